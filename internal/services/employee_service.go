// Package services – EmployeeService
//
// This file implements the EmployeeService, the gateway's only use-case
// layer. Each method forwards to exactly one downstream call; the service
// adds no business rules beyond path-id precedence on update and the
// status branching of the error-demo call.
package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-employee-gateway/internal/domain"
	"github.com/tbourn/go-employee-gateway/internal/downstream"
)

// EmployeeClient is the downstream contract required by EmployeeService.
// *downstream.Client satisfies it.
type EmployeeClient interface {
	// ListEmployees returns every employee in downstream order.
	ListEmployees(ctx context.Context) ([]domain.Employee, error)
	// GetEmployee fetches one employee.
	GetEmployee(ctx context.Context, id string) (domain.Employee, error)
	// CreateEmployee stores a new employee.
	CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error)
	// UpdateEmployee replaces employee id.
	UpdateEmployee(ctx context.Context, id string, e domain.Employee) (domain.Employee, error)
	// DeleteEmployee removes employee id.
	DeleteEmployee(ctx context.Context, id string) error
	// FetchErrorDemo calls the deliberately failing endpoint.
	FetchErrorDemo(ctx context.Context) (downstream.Outcome, error)
}

// DemoResult is the non-fatal result of ErrorDemo.
//
// When Swallowed is false, Employee holds the downstream record. When true,
// the downstream answered with a 4xx (Status): the error was logged and
// dropped, so there is neither an employee nor an error to report.
type DemoResult struct {
	Employee  domain.Employee
	Swallowed bool
	Status    int
}

// EmployeeService forwards employee operations to the downstream service.
// It holds no state besides the immutable client and is safe for concurrent use.
type EmployeeService struct {
	Client EmployeeClient
}

// NewEmployeeService constructs an EmployeeService around client.
func NewEmployeeService(client EmployeeClient) *EmployeeService {
	return &EmployeeService{Client: client}
}

// List returns all employees.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.Client.ListEmployees(ctx)
}

// Get returns employee id. A downstream 404 surfaces as an error matching
// downstream.ErrNotFound.
func (s *EmployeeService) Get(ctx context.Context, id string) (domain.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Employee{}, ErrInvalidID
	}
	return s.Client.GetEmployee(ctx, id)
}

// Create forwards e unchanged and returns the created record.
func (s *EmployeeService) Create(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	return s.Client.CreateEmployee(ctx, e)
}

// Update replaces employee id with e. The path id overrides any id in e,
// both in the forwarded body and in the returned record.
func (s *EmployeeService) Update(ctx context.Context, id string, e domain.Employee) (domain.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Employee{}, ErrInvalidID
	}
	out, err := s.Client.UpdateEmployee(ctx, id, e.WithID(id))
	if err != nil {
		return domain.Employee{}, err
	}
	return out.WithID(id), nil
}

// Delete removes employee id.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return s.Client.DeleteEmployee(ctx, id)
}

// ErrorDemo calls the failing downstream endpoint and branches on its status:
//   - 5xx: the body text is logged and returned as a *FatalError.
//   - 4xx: logged and swallowed (DemoResult.Swallowed).
//   - otherwise: the decoded employee is returned.
//
// The 4xx branch returns neither an employee nor an error. That mirrors the
// demo it was built from and is kept deliberately; callers must not read a
// swallowed result as success.
func (s *EmployeeService) ErrorDemo(ctx context.Context) (DemoResult, error) {
	out, err := s.Client.FetchErrorDemo(ctx)
	if err != nil {
		return DemoResult{}, err
	}

	lg := zerolog.Ctx(ctx)
	switch out.Kind {
	case downstream.OutcomeServerError:
		msg := out.Text()
		lg.Error().
			Int("status", out.Status).
			Str("error_msg", msg).
			Msg("downstream server error")
		return DemoResult{}, &FatalError{Status: out.Status, Message: msg}
	case downstream.OutcomeClientError:
		lg.Warn().
			Int("status", out.Status).
			Msg("4xx error occurred")
		return DemoResult{Swallowed: true, Status: out.Status}, nil
	default:
		return DemoResult{Employee: out.Employee, Status: out.Status}, nil
	}
}
