package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-employee-gateway/internal/domain"
	"github.com/tbourn/go-employee-gateway/internal/downstream"
)

// ----- Fake client -----

type fakeClient struct {
	calls []string

	list    []domain.Employee
	listErr error

	getID  string
	getEmp domain.Employee
	getErr error

	created   domain.Employee
	createErr error

	updateID   string
	updateBody domain.Employee
	updateResp domain.Employee
	updateErr  error

	deleteID  string
	deleteErr error

	outcome    downstream.Outcome
	outcomeErr error
}

func (f *fakeClient) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	f.calls = append(f.calls, "list")
	return f.list, f.listErr
}

func (f *fakeClient) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	f.calls = append(f.calls, "get")
	f.getID = id
	return f.getEmp, f.getErr
}

func (f *fakeClient) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	f.calls = append(f.calls, "create")
	f.created = e
	return e, f.createErr
}

func (f *fakeClient) UpdateEmployee(ctx context.Context, id string, e domain.Employee) (domain.Employee, error) {
	f.calls = append(f.calls, "update")
	f.updateID, f.updateBody = id, e
	return f.updateResp, f.updateErr
}

func (f *fakeClient) DeleteEmployee(ctx context.Context, id string) error {
	f.calls = append(f.calls, "delete")
	f.deleteID = id
	return f.deleteErr
}

func (f *fakeClient) FetchErrorDemo(ctx context.Context) (downstream.Outcome, error) {
	f.calls = append(f.calls, "error_demo")
	return f.outcome, f.outcomeErr
}

func mustEmployee(t *testing.T, doc string) domain.Employee {
	t.Helper()
	var e domain.Employee
	if err := json.Unmarshal([]byte(doc), &e); err != nil {
		t.Fatalf("unmarshal %s: %v", doc, err)
	}
	return e
}

// logCtx returns a context carrying a logger that writes JSON lines to buf.
func logCtx(buf *bytes.Buffer) context.Context {
	lg := zerolog.New(buf)
	return lg.WithContext(context.Background())
}

// ----- Tests -----

func TestList_PassesThrough(t *testing.T) {
	fc := &fakeClient{list: []domain.Employee{{ID: "b"}, {ID: "a"}}}
	svc := NewEmployeeService(fc)

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected list %+v", got)
	}

	fc.listErr = downstream.ErrUnavailable
	if _, err := svc.List(context.Background()); !errors.Is(err, downstream.ErrUnavailable) {
		t.Fatalf("err = %v; want ErrUnavailable", err)
	}
}

func TestGet_ValidatesIDAndForwards(t *testing.T) {
	fc := &fakeClient{getEmp: domain.Employee{ID: "e1"}}
	svc := NewEmployeeService(fc)

	if _, err := svc.Get(context.Background(), "  "); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("blank id err = %v; want ErrInvalidID", err)
	}
	if len(fc.calls) != 0 {
		t.Fatalf("blank id must not reach downstream, calls=%v", fc.calls)
	}

	got, err := svc.Get(context.Background(), "e1")
	if err != nil || got.ID != "e1" || fc.getID != "e1" {
		t.Fatalf("Get = %+v, %v (forwarded id %q)", got, err, fc.getID)
	}

	fc.getErr = &downstream.StatusError{Op: downstream.OpGet, Status: 404}
	if _, err := svc.Get(context.Background(), "gone"); !errors.Is(err, downstream.ErrNotFound) {
		t.Fatalf("err = %v; want downstream.ErrNotFound", err)
	}
}

func TestCreate_ForwardsBodyUnchanged(t *testing.T) {
	fc := &fakeClient{}
	svc := NewEmployeeService(fc)

	in := mustEmployee(t, `{"id":"c1","name":"Cy","nested":{"k":[1,2]}}`)
	out, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, _ := json.Marshal(in)
	b, _ := json.Marshal(fc.created)
	if !bytes.Equal(a, b) || out.ID != "c1" {
		t.Fatalf("forwarded body changed: %s vs %s", a, b)
	}
}

func TestUpdate_PathIDTakesPrecedence(t *testing.T) {
	fc := &fakeClient{updateResp: mustEmployee(t, `{"id":"whatever","name":"New"}`)}
	svc := NewEmployeeService(fc)

	out, err := svc.Update(context.Background(), "path-id", mustEmployee(t, `{"id":"body-id","name":"New"}`))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if fc.updateID != "path-id" || fc.updateBody.ID != "path-id" {
		t.Fatalf("forwarded id=%q body.id=%q; want path-id", fc.updateID, fc.updateBody.ID)
	}
	if out.ID != "path-id" {
		t.Fatalf("returned id = %q; want path-id", out.ID)
	}
	if v, _ := out.Attr("name"); string(v) != `"New"` {
		t.Fatalf("attributes lost: %s", v)
	}

	if _, err := svc.Update(context.Background(), "", domain.Employee{}); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("blank id err = %v; want ErrInvalidID", err)
	}

	fc.updateErr = errors.New("boom")
	if _, err := svc.Update(context.Background(), "x", domain.Employee{}); err == nil || err.Error() != "boom" {
		t.Fatalf("err = %v; want boom", err)
	}
}

func TestDelete_ForwardsAndValidates(t *testing.T) {
	fc := &fakeClient{}
	svc := NewEmployeeService(fc)

	if err := svc.Delete(context.Background(), "d1"); err != nil || fc.deleteID != "d1" {
		t.Fatalf("Delete err=%v id=%q", err, fc.deleteID)
	}
	if err := svc.Delete(context.Background(), ""); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("blank id err = %v; want ErrInvalidID", err)
	}
}

func TestErrorDemo_ServerErrorIsFatalWithText(t *testing.T) {
	var buf bytes.Buffer
	fc := &fakeClient{outcome: downstream.Outcome{Kind: downstream.OutcomeServerError, Status: 500, Body: []byte("boom")}}
	svc := NewEmployeeService(fc)

	_, err := svc.ErrorDemo(logCtx(&buf))
	if !errors.Is(err, ErrDownstreamFailure) {
		t.Fatalf("err = %v; want ErrDownstreamFailure", err)
	}
	var fe *FatalError
	if !errors.As(err, &fe) || fe.Status != 500 || !strings.Contains(fe.Error(), "boom") {
		t.Fatalf("unexpected fatal error: %#v", err)
	}
	if !strings.Contains(buf.String(), `"error_msg":"boom"`) {
		t.Fatalf("expected error text to be logged, got %s", buf.String())
	}
}

func TestErrorDemo_ClientErrorIsSwallowed(t *testing.T) {
	var buf bytes.Buffer
	fc := &fakeClient{outcome: downstream.Outcome{Kind: downstream.OutcomeClientError, Status: 404, Body: []byte(`{"x":1}`)}}
	svc := NewEmployeeService(fc)

	res, err := svc.ErrorDemo(logCtx(&buf))
	if err != nil {
		t.Fatalf("4xx must not raise, got %v", err)
	}
	if !res.Swallowed || res.Status != 404 || res.Employee.ID != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(buf.String(), "4xx error occurred") {
		t.Fatalf("expected 4xx log line, got %s", buf.String())
	}
}

func TestErrorDemo_SuccessReturnsEmployee(t *testing.T) {
	emp := mustEmployee(t, `{"id":"ok","name":"Fine"}`)
	fc := &fakeClient{outcome: downstream.Outcome{Kind: downstream.OutcomeSuccess, Status: 200, Employee: emp}}
	svc := NewEmployeeService(fc)

	res, err := svc.ErrorDemo(context.Background())
	if err != nil {
		t.Fatalf("ErrorDemo: %v", err)
	}
	if res.Swallowed || res.Employee.ID != "ok" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestErrorDemo_TransportErrorPropagates(t *testing.T) {
	fc := &fakeClient{outcomeErr: downstream.ErrUnavailable}
	if _, err := NewEmployeeService(fc).ErrorDemo(context.Background()); !errors.Is(err, downstream.ErrUnavailable) {
		t.Fatalf("err = %v; want ErrUnavailable", err)
	}
}

func TestFatalError_EmptyMessage(t *testing.T) {
	fe := &FatalError{Status: 502}
	if fe.Error() != "downstream responded 502" {
		t.Fatalf("Error() = %q", fe.Error())
	}
}

// Compile-time guard: the real client satisfies the service contract.
var _ EmployeeClient = (*downstream.Client)(nil)
