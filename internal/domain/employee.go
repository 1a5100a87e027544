// Package domain defines the data shapes exchanged with the downstream
// employee service and, for the local stub, their persistence mapping.
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrInvalidEmployeeID is returned when an employee document carries an "id"
// that is neither a JSON string nor a JSON number.
var ErrInvalidEmployeeID = errors.New("employee id must be a string")

// Employee is an opaque employee record. Only the identifier is modeled;
// every other attribute is carried verbatim so that a decode/encode round trip
// through the gateway does not lose or reshape data.
//
// JSON form:
//
//	{"id": "e-1", "name": "Ada", "salary": 4200}
type Employee struct {
	// ID is the employee identifier; empty when the document has none.
	ID string `json:"id" example:"e-1"`

	// rawID is the decoded "id" token when it was not a non-empty JSON
	// string (a number, "" or null). It is written back verbatim while ID
	// still matches it.
	rawID json.RawMessage
	attrs map[string]json.RawMessage
}

// NewEmployee builds an Employee from an id and raw attribute values.
// An "id" key inside attrs is ignored; id always wins.
func NewEmployee(id string, attrs map[string]json.RawMessage) Employee {
	e := Employee{ID: id}
	for k, v := range attrs {
		if k == "id" {
			continue
		}
		if e.attrs == nil {
			e.attrs = make(map[string]json.RawMessage, len(attrs))
		}
		e.attrs[k] = append(json.RawMessage(nil), v...)
	}
	return e
}

// Attr returns the raw JSON value of a non-id attribute.
func (e Employee) Attr(key string) (json.RawMessage, bool) {
	v, ok := e.attrs[key]
	return v, ok
}

// Attrs returns a copy of all non-id attributes.
func (e Employee) Attrs() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(e.attrs))
	for k, v := range e.attrs {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// WithID returns a copy of e whose identifier is id. The original id token
// is kept when id is unchanged.
func (e Employee) WithID(id string) Employee {
	out := NewEmployee(id, e.attrs)
	if id == e.ID {
		out.rawID = e.rawID
	}
	return out
}

// MarshalJSON writes the attributes plus "id". A decoded id token that was
// not a non-empty string is written back as it came; otherwise an empty ID
// is omitted.
func (e Employee) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(e.attrs)+1)
	for k, v := range e.attrs {
		doc[k] = v
	}
	if e.rawID != nil {
		if id, err := parseID(e.rawID); err == nil && id == e.ID {
			doc["id"] = e.rawID
			return json.Marshal(doc)
		}
	}
	if e.ID != "" {
		id, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		doc["id"] = id
	}
	return json.Marshal(doc)
}

// UnmarshalJSON accepts any JSON object. A numeric id is exposed in its
// literal textual form; null, "" or a missing id leaves ID empty. Every id
// token other than a non-empty string is remembered for MarshalJSON.
func (e *Employee) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc == nil {
		// JSON null
		*e = Employee{}
		return nil
	}

	var (
		id    string
		rawID json.RawMessage
	)
	if raw, ok := doc["id"]; ok {
		parsed, err := parseID(raw)
		if err != nil {
			return err
		}
		id = parsed
		if trimmed := bytes.TrimSpace(raw); parsed == "" || trimmed[0] != '"' {
			rawID = append(json.RawMessage(nil), trimmed...)
		}
		delete(doc, "id")
	}
	if len(doc) == 0 {
		doc = nil
	}
	*e = Employee{ID: id, rawID: rawID, attrs: doc}
	return nil
}

func parseID(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", ErrInvalidEmployeeID
		}
		return n.String(), nil
	}
}
