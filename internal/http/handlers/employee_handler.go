// Employee HTTP handlers.
//
// This file exposes the gateway endpoints, each mounted under the API base path
// (default /client):
//   - GET    /                 and GET  /exchange        (list)
//   - GET    /{id}                                       (get)
//   - POST   /                 and POST /sync            (create)
//   - PUT    /{id}                                       (update)
//   - DELETE /{id}                                       (delete)
//   - GET    /error            and GET  /exchange/error  (error demo)
//
// Handlers are transport-thin: they bind input, call the gateway service with a
// context carrying the request logger, correlation ID and idempotency key, and
// translate downstream results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-employee-gateway/internal/domain"
	"github.com/tbourn/go-employee-gateway/internal/downstream"
	"github.com/tbourn/go-employee-gateway/internal/http/middleware"
	"github.com/tbourn/go-employee-gateway/internal/services"
)

//
// Service contract (context-aware)
//

// EmployeeService defines the gateway operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation.
type EmployeeService interface {
	// List returns all employees in downstream order.
	List(ctx context.Context) ([]domain.Employee, error)
	// Get returns a single employee.
	Get(ctx context.Context, id string) (domain.Employee, error)
	// Create forwards a new employee and returns the stored record.
	Create(ctx context.Context, e domain.Employee) (domain.Employee, error)
	// Update replaces employee id; the path id wins over any body id.
	Update(ctx context.Context, id string, e domain.Employee) (domain.Employee, error)
	// Delete removes employee id.
	Delete(ctx context.Context, id string) error
	// ErrorDemo calls the failing downstream endpoint.
	ErrorDemo(ctx context.Context) (services.DemoResult, error)
}

//
// Handler wiring
//

// Handlers groups the employee endpoints.
type Handlers struct {
	svc EmployeeService
}

// New constructs and returns a Handlers instance bound to svc.
func New(svc EmployeeService) *Handlers {
	return &Handlers{svc: svc}
}

//
// Helpers
//

// requestContext derives the context handed to the service layer. It carries
// the request-scoped logger (for zerolog.Ctx) and the values forwarded on the
// downstream call.
func requestContext(c *gin.Context) context.Context {
	ctx := middleware.LoggerFrom(c).WithContext(c.Request.Context())
	ctx = downstream.WithRequestID(ctx, middleware.RequestIDFrom(c))
	if key, ok := middleware.GetIdempotencyKey(c); ok {
		ctx = downstream.WithIdempotencyKey(ctx, key)
	}
	return ctx
}

// bindEmployee decodes the request body. It writes a 400 and reports false on
// malformed input.
func bindEmployee(c *gin.Context) (domain.Employee, bool) {
	var e domain.Employee
	if err := c.ShouldBindJSON(&e); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return domain.Employee{}, false
	}
	return e, true
}

// writeError maps service and downstream errors onto HTTP responses.
//
//   - invalid id                     -> 400 bad_request
//   - downstream non-2xx answer      -> relayed unchanged
//   - error-demo 5xx                 -> 500 downstream_error, message = downstream text
//   - transport / undecodable / oversized answer -> 502 bad_gateway
//   - anything else                  -> 500 internal_error
func writeError(c *gin.Context, err error) {
	var se *downstream.StatusError
	var fe *services.FatalError
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.As(err, &se):
		relay(c, se.Status, se.ContentType, se.Body)
	case errors.As(err, &fe):
		fail(c, http.StatusInternalServerError, ErrCodeDownstream, fe.Error())
	case errors.Is(err, downstream.ErrUnavailable),
		errors.Is(err, downstream.ErrBadResponse),
		errors.Is(err, downstream.ErrBodyTooLarge):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("downstream failure")
		fail(c, http.StatusBadGateway, ErrCodeBadGateway, "employee service unavailable")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// Handlers
//

// ListEmployees godoc
// @Summary     List employees
// @Description Returns every employee known to the downstream service, in downstream order. Also mounted at /exchange.
// @Tags        Employees
// @Produce     json
//
// @Param       X-Request-ID  header  string  false  "Correlation ID (forwarded downstream)"
//
// @Success     200  {array}   domain.Employee
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client [get]
// @Router      /client/exchange [get]
func (h *Handlers) ListEmployees(c *gin.Context) {
	list, err := h.svc.List(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, list)
}

// GetEmployee godoc
// @ID          getEmployee
// @Summary     Get an employee
// @Description Fetches one employee by id. Downstream errors (e.g. 404) are relayed unchanged.
// @Tags        Employees
// @Produce     json
//
// @Param       id  path  string  true  "Employee ID"  example(e-42)
//
// @Success     200  {object}  domain.Employee
// @Failure     404  {object}  map[string]any          "Relayed from the employee service"
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client/{id} [get]
func (h *Handlers) GetEmployee(c *gin.Context) {
	e, err := h.svc.Get(requestContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, e)
}

// CreateEmployee godoc
// @Summary     Create an employee
// @Description Forwards the employee document unchanged and returns the stored record. Also mounted at /sync.
// @Tags        Employees
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string           false  "Forwarded downstream"  example(emp-create-001)
// @Param       body             body    domain.Employee  true   "Employee document"
//
// @Success     200  {object}  domain.Employee
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client [post]
// @Router      /client/sync [post]
func (h *Handlers) CreateEmployee(c *gin.Context) {
	in, valid := bindEmployee(c)
	if !valid {
		return
	}
	out, err := h.svc.Create(requestContext(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// UpdateEmployee godoc
// @ID          updateEmployee
// @Summary     Update an employee
// @Description Replaces the employee at {id}. The path id overrides any id in the body.
// @Tags        Employees
// @Accept      json
// @Produce     json
//
// @Param       id    path  string           true  "Employee ID"  example(e-42)
// @Param       body  body  domain.Employee  true  "Employee document"
//
// @Success     200  {object}  domain.Employee
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  map[string]any          "Relayed from the employee service"
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client/{id} [put]
func (h *Handlers) UpdateEmployee(c *gin.Context) {
	in, valid := bindEmployee(c)
	if !valid {
		return
	}
	out, err := h.svc.Update(requestContext(c), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// DeleteEmployee godoc
// @ID          deleteEmployee
// @Summary     Delete an employee
// @Description Removes the employee at {id}.
// @Tags        Employees
//
// @Param       id  path  string  true  "Employee ID"  example(e-42)
//
// @Success     204  {string}  string                  "No Content"
// @Failure     404  {object}  map[string]any          "Relayed from the employee service"
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client/{id} [delete]
func (h *Handlers) DeleteEmployee(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	noContent(c)
}

// ErrorDemo godoc
// @Summary     Call the failing downstream endpoint
// @Description Calls /emp/error downstream. A 5xx becomes a 500 whose message is the downstream text; a 4xx is logged and answered with the same status and an empty body; a 2xx employee is returned unchanged. Also mounted at /exchange/error.
// @Tags        Employees
// @Produce     json
//
// @Success     200  {object}  domain.Employee
// @Success     404  {string}  string                  "Downstream 4xx, logged and swallowed"
// @Failure     500  {object}  handlers.ErrorResponse  "Downstream 5xx text"
// @Failure     502  {object}  handlers.ErrorResponse  "Employee service unavailable"
// @Router      /client/error [get]
// @Router      /client/exchange/error [get]
func (h *Handlers) ErrorDemo(c *gin.Context) {
	res, err := h.svc.ErrorDemo(requestContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Swallowed {
		bareStatus(c, res.Status)
		return
	}
	ok(c, http.StatusOK, res.Employee)
}
