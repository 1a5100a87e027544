// Package downstream is the HTTP client for the employee service the gateway
// forwards to.
//
// A Client is built once from a fixed base address and is immutable
// afterwards, so a single instance is shared by all requests without locking.
// Every operation issues exactly one outbound request; there are no retries,
// fallbacks or client-side timeouts beyond the caller's context.
//
// Non-2xx answers on the CRUD operations surface as *StatusError, which keeps
// the downstream status, content type and body so the HTTP layer can relay
// them unchanged. FetchErrorDemo instead classifies the answer into an
// Outcome and leaves the branching to the caller.
package downstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-employee-gateway/internal/domain"
)

const (
	employeePath  = "/employee"
	errorDemoPath = "/emp/error"

	// maxBodyBytes caps how much of a downstream response is buffered.
	maxBodyBytes = 10 << 20

	headerRequestID      = "X-Request-ID"
	headerIdempotencyKey = "Idempotency-Key"
	contentTypeJSON      = "application/json"

	tracerName = "github.com/tbourn/go-employee-gateway/internal/downstream"
)

// Operation names used in logs, spans and metrics.
const (
	OpList      = "list"
	OpGet       = "get"
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpErrorDemo = "error_demo"
)

// Client talks to the downstream employee service.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	maxBody int64
}

// New returns a Client for baseURL (e.g. "http://localhost:8080"). A trailing
// slash is ignored. When hc is nil a dedicated http.Client without a timeout
// is used; cancellation comes from the request context.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		tracer:  otel.Tracer(tracerName),
		maxBody: maxBodyBytes,
	}
}

// BaseURL reports the downstream base address.
func (c *Client) BaseURL() string { return c.baseURL }

// ListEmployees calls GET /employee and returns the records in downstream order.
func (c *Client) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	resp, err := c.do(ctx, OpList, http.MethodGet, employeePath, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.statusError(OpList); err != nil {
		return nil, err
	}
	var out []domain.Employee
	if err := resp.decode(OpList, &out); err != nil {
		return nil, err
	}
	if out == nil {
		// empty body or a JSON null
		out = []domain.Employee{}
	}
	return out, nil
}

// GetEmployee calls GET /employee/{id}. A 404 yields an error matching ErrNotFound.
func (c *Client) GetEmployee(ctx context.Context, id string) (domain.Employee, error) {
	return c.employeeCall(ctx, OpGet, http.MethodGet, employeeIDPath(id), nil)
}

// CreateEmployee calls POST /employee with e as the body.
func (c *Client) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	return c.employeeCall(ctx, OpCreate, http.MethodPost, employeePath, e)
}

// UpdateEmployee calls PUT /employee/{id} with e as the body.
func (c *Client) UpdateEmployee(ctx context.Context, id string, e domain.Employee) (domain.Employee, error) {
	return c.employeeCall(ctx, OpUpdate, http.MethodPut, employeeIDPath(id), e)
}

// DeleteEmployee calls DELETE /employee/{id}. The response body is discarded.
func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	resp, err := c.do(ctx, OpDelete, http.MethodDelete, employeeIDPath(id), nil)
	if err != nil {
		return err
	}
	return resp.statusError(OpDelete)
}

// FetchErrorDemo calls GET /emp/error and classifies the answer once.
// Only transport failures and undecodable success bodies are returned as
// errors; 4xx and 5xx answers are reported through the Outcome.
func (c *Client) FetchErrorDemo(ctx context.Context) (Outcome, error) {
	resp, err := c.do(ctx, OpErrorDemo, http.MethodGet, errorDemoPath, nil)
	if err != nil {
		return Outcome{}, err
	}
	return classify(OpErrorDemo, resp)
}

func (c *Client) employeeCall(ctx context.Context, op, method, path string, body any) (domain.Employee, error) {
	resp, err := c.do(ctx, op, method, path, body)
	if err != nil {
		return domain.Employee{}, err
	}
	if err := resp.statusError(op); err != nil {
		return domain.Employee{}, err
	}
	var e domain.Employee
	if err := resp.decode(op, &e); err != nil {
		return domain.Employee{}, err
	}
	return e, nil
}

// response is a fully buffered downstream answer.
type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) statusError(op string) error {
	if r.status >= 200 && r.status < 300 {
		return nil
	}
	return &StatusError{Op: op, Status: r.status, ContentType: r.contentType, Body: r.body}
}

// decode unmarshals a JSON body into v. An empty body leaves v untouched.
func (r *response) decode(op string, v any) error {
	if len(bytes.TrimSpace(r.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadResponse, op, err)
	}
	return nil
}

// do performs one request and buffers the response body.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (*response, error) {
	target := c.baseURL + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("downstream %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	ctx, span := c.tracer.Start(ctx, "downstream "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(method),
			semconv.URLFull(target),
		),
	)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "build request")
		return nil, fmt.Errorf("downstream %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSON)
	}
	if rid := RequestIDFrom(ctx); rid != "" {
		req.Header.Set(headerRequestID, rid)
	}
	if key := IdempotencyKeyFrom(ctx); key != "" {
		req.Header.Set(headerIdempotencyKey, key)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	lg := zerolog.Ctx(ctx).With().
		Str("component", "downstream").
		Str("op", op).
		Str("method", method).
		Str("url", target).
		Logger()

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		observe(op, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		lg.Warn().Err(err).Dur("latency", time.Since(start)).Msg("downstream call failed")
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, target, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	latency := time.Since(start)
	observe(op, statusLabel(res.StatusCode), latency)
	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read body")
		lg.Warn().Err(err).Int("status", res.StatusCode).Msg("downstream body read failed")
		return nil, fmt.Errorf("%w: %s %s: read body: %w", ErrUnavailable, method, target, err)
	}
	if int64(len(data)) > c.maxBody {
		span.SetStatus(codes.Error, "body too large")
		lg.Warn().Int("status", res.StatusCode).Int64("limit", c.maxBody).Msg("downstream body over limit")
		return nil, fmt.Errorf("%w: %s %s: more than %d bytes", ErrBodyTooLarge, method, target, c.maxBody)
	}
	if res.StatusCode >= 500 {
		span.SetStatus(codes.Error, http.StatusText(res.StatusCode))
	}

	lg.Debug().
		Int("status", res.StatusCode).
		Int("bytes", len(data)).
		Dur("latency", latency).
		Msg("downstream call")

	return &response{
		status:      res.StatusCode,
		contentType: res.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

// employeeIDPath builds /employee/{id} with id escaped as one path segment.
func employeeIDPath(id string) string {
	return employeePath + "/" + url.PathEscape(id)
}
