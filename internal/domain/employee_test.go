package domain

import (
	"encoding/json"
	"errors"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_employees?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

// jsonEqual compares two JSON documents semantically.
func jsonEqual(t *testing.T, a, b []byte) bool {
	t.Helper()
	var x, y any
	if err := json.Unmarshal(a, &x); err != nil {
		t.Fatalf("unmarshal %s: %v", a, err)
	}
	if err := json.Unmarshal(b, &y); err != nil {
		t.Fatalf("unmarshal %s: %v", b, err)
	}
	xa, _ := json.Marshal(x)
	ya, _ := json.Marshal(y)
	return string(xa) == string(ya)
}

func TestEmployee_RoundTripPreservesUnknownAttributes(t *testing.T) {
	in := []byte(`{"id":"e-1","name":"Ada","salary":4200,"address":{"city":"Athens"},"tags":["a","b"]}`)

	var e Employee
	if err := json.Unmarshal(in, &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.ID != "e-1" {
		t.Fatalf("ID = %q; want e-1", e.ID)
	}
	if v, ok := e.Attr("name"); !ok || string(v) != `"Ada"` {
		t.Fatalf("name attr = %s (%v)", v, ok)
	}
	if _, ok := e.Attr("id"); ok {
		t.Fatalf("id must not be exposed as an attribute")
	}

	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !jsonEqual(t, in, out) {
		t.Fatalf("round trip changed document:\n in=%s\nout=%s", in, out)
	}
}

func TestEmployee_IDForms(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantID  string
		wantErr bool
	}{
		{"string", `{"id":"abc"}`, "abc", false},
		{"number", `{"id":42}`, "42", false},
		{"null", `{"id":null,"name":"x"}`, "", false},
		{"missing", `{"name":"x"}`, "", false},
		{"bool", `{"id":true}`, "", true},
		{"object", `{"id":{"v":1}}`, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var e Employee
			err := json.Unmarshal([]byte(tc.in), &e)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if e.ID != tc.wantID {
				t.Fatalf("ID = %q; want %q", e.ID, tc.wantID)
			}
		})
	}

	var e Employee
	if err := json.Unmarshal([]byte(`{"id":[1]}`), &e); !errors.Is(err, ErrInvalidEmployeeID) {
		t.Fatalf("array id err = %v; want ErrInvalidEmployeeID", err)
	}
}

func TestEmployee_NonStringIDTokensRoundTrip(t *testing.T) {
	for _, in := range []string{
		`{"id":42,"name":"N"}`,
		`{"id":4.20e1}`,
		`{"id":"","name":"E"}`,
		`{"id":null,"name":"x"}`,
	} {
		var e Employee
		if err := json.Unmarshal([]byte(in), &e); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(e)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if !jsonEqual(t, []byte(in), out) {
			t.Fatalf("id token changed:\n in=%s\nout=%s", in, out)
		}

		// Same id keeps the token; a new id replaces it.
		if same, _ := json.Marshal(e.WithID(e.ID)); !jsonEqual(t, []byte(in), same) {
			t.Fatalf("WithID(same) changed %s to %s", in, same)
		}
		moved, _ := json.Marshal(e.WithID("p-1"))
		var doc map[string]any
		_ = json.Unmarshal(moved, &doc)
		if doc["id"] != "p-1" {
			t.Fatalf("WithID(new) = %s", moved)
		}
	}

	// A caller overwriting ID drops the stale token.
	var e Employee
	_ = json.Unmarshal([]byte(`{"id":7}`), &e)
	e.ID = "x-7"
	if out, _ := json.Marshal(e); string(out) != `{"id":"x-7"}` {
		t.Fatalf("stale id token written: %s", out)
	}
}

func TestEmployee_NotAnObject(t *testing.T) {
	var e Employee
	if err := json.Unmarshal([]byte(`[1,2]`), &e); err == nil {
		t.Fatalf("expected error decoding an array into Employee")
	}
	if err := json.Unmarshal([]byte(`null`), &e); err != nil || e.ID != "" {
		t.Fatalf("null should decode to zero Employee, got %+v err=%v", e, err)
	}
}

func TestEmployee_MarshalOmitsEmptyID(t *testing.T) {
	e := NewEmployee("", map[string]json.RawMessage{"name": json.RawMessage(`"Bob"`)})
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"name":"Bob"}` {
		t.Fatalf("marshal = %s", out)
	}
}

func TestEmployee_WithIDOverridesAndDoesNotAlias(t *testing.T) {
	attrs := map[string]json.RawMessage{
		"id":   json.RawMessage(`"ignored"`),
		"name": json.RawMessage(`"Cy"`),
	}
	e := NewEmployee("body-id", attrs)
	if e.ID != "body-id" {
		t.Fatalf("NewEmployee must ignore attrs id, got %q", e.ID)
	}

	p := e.WithID("path-id")
	if p.ID != "path-id" || e.ID != "body-id" {
		t.Fatalf("WithID mutated receiver or failed: e=%q p=%q", e.ID, p.ID)
	}

	// Attrs returns a copy.
	cp := p.Attrs()
	cp["name"] = json.RawMessage(`"changed"`)
	if v, _ := p.Attr("name"); string(v) != `"Cy"` {
		t.Fatalf("Attrs leaked internal map, name=%s", v)
	}
}

func TestEmployeeRecord_TableNameAndStorage(t *testing.T) {
	if (EmployeeRecord{}).TableName() != "employees" {
		t.Fatalf("EmployeeRecord.TableName() = %q", (EmployeeRecord{}).TableName())
	}

	db := newDomainDB(t)
	if err := db.AutoMigrate(&EmployeeRecord{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	var e Employee
	if err := json.Unmarshal([]byte(`{"id":"r-1","name":"Dee","level":3}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rec, err := NewEmployeeRecord(e)
	if err != nil {
		t.Fatalf("NewEmployeeRecord: %v", err)
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var got EmployeeRecord
	if err := db.First(&got, "id = ?", "r-1").Error; err != nil {
		t.Fatalf("first: %v", err)
	}
	back, err := got.Employee()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	a, _ := json.Marshal(e)
	b, _ := json.Marshal(back)
	if !jsonEqual(t, a, b) {
		t.Fatalf("stored employee differs: %s vs %s", a, b)
	}
}

func TestEmployeeRecord_CorruptDoc(t *testing.T) {
	if _, err := (EmployeeRecord{ID: "x", Doc: "{not json"}).Employee(); err == nil {
		t.Fatalf("expected decode error for corrupt doc")
	}
}
