package downstream

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound matches a *StatusError carrying HTTP 404.
	ErrNotFound = errors.New("employee not found")

	// ErrUnavailable wraps transport failures (connection refused, reset,
	// context cancellation, truncated body).
	ErrUnavailable = errors.New("downstream unavailable")

	// ErrBadResponse wraps a success response whose body is not valid JSON
	// for the expected shape.
	ErrBadResponse = errors.New("downstream returned an undecodable body")

	// ErrBodyTooLarge is returned when a response body exceeds the client's
	// buffer limit. The body is never relayed in part.
	ErrBodyTooLarge = errors.New("downstream response body too large")
)

// StatusError is a non-2xx downstream answer on a CRUD operation. It keeps
// enough of the response to relay it to the caller unchanged.
type StatusError struct {
	Op          string
	Status      int
	ContentType string
	Body        []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downstream %s: status=%d body=%s", e.Op, e.Status, snippet(e.Body, 512))
}

// Is lets errors.Is(err, ErrNotFound) match 404 answers.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

func snippet(b []byte, max int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
