package downstream

import (
	"github.com/tbourn/go-employee-gateway/internal/domain"
)

// OutcomeKind tells which branch a classified downstream answer falls in.
type OutcomeKind int

const (
	// OutcomeSuccess is any status outside 4xx/5xx; Employee holds the body.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeClientError is a 4xx answer.
	OutcomeClientError
	// OutcomeServerError is a 5xx answer; Body holds the raw error text.
	OutcomeServerError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeClientError:
		return "client_error"
	case OutcomeServerError:
		return "server_error"
	default:
		return "unknown"
	}
}

// Outcome is a downstream answer decoded exactly once:
//
//	Success(Employee) | ClientError(Status, Body) | ServerError(Status, Body)
type Outcome struct {
	Kind     OutcomeKind
	Status   int
	Employee domain.Employee
	Body     []byte
}

// Text returns the body as a string, as sent by the downstream service.
func (o Outcome) Text() string { return string(o.Body) }

func classify(op string, r *response) (Outcome, error) {
	switch {
	case r.status >= 500:
		return Outcome{Kind: OutcomeServerError, Status: r.status, Body: r.body}, nil
	case r.status >= 400:
		return Outcome{Kind: OutcomeClientError, Status: r.status, Body: r.body}, nil
	}
	var e domain.Employee
	if err := r.decode(op, &e); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: OutcomeSuccess, Status: r.status, Employee: e, Body: r.body}, nil
}
