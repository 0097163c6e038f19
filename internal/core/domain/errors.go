package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the template index and reconciliation layer.
// They are rejected before any mutation happens.
var (
	// ErrDuplicateAlias means the alias already exists under some provenance.
	ErrDuplicateAlias = errors.New("alias already exists")
	// ErrNotManual means the alias is canonical or derived and cannot be removed.
	ErrNotManual = errors.New("alias is not manually added")
	// ErrAliasNotFound means no alias with that literal spelling exists.
	ErrAliasNotFound = errors.New("alias not found")
)

// RemoteCallError is a failed verification call against the gateway. It is
// recorded per job and is never fatal to a run.
type RemoteCallError struct {
	Target string // association id or provider/model pair
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("verification of %s failed: %v", e.Target, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// New creates a generic Problem
func New(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// ValidationError creates a rich validation error
func ValidationError(validationErrors map[string]string) *Problem {
	return New(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

// BadRequestError creates a standard error for a bad request
func BadRequestError(detail string, opts ...ProblemOption) *Problem {
	return New(http.StatusBadRequest, "Bad Request", detail, opts...)
}

// ConflictError creates a 409 for duplicate-resource rejections
func ConflictError(detail string, opts ...ProblemOption) *Problem {
	return New(http.StatusConflict, "Conflict", detail, opts...)
}

// NotFoundError creates a standard 404 error
func NotFoundError(detail string, opts ...ProblemOption) *Problem {
	return New(http.StatusNotFound, "Not Found", detail, opts...)
}

// InternalError creates a standard error for any internal server error
func InternalError(detail string, err error) *Problem {
	return New(http.StatusInternalServerError, "Internal Server Error", detail, WithLog(err))
}

// GatewayError creates a 502 for upstream gateway failures
func GatewayError(detail string, err error) *Problem {
	return New(http.StatusBadGateway, "Bad Gateway", detail, WithLog(err))
}
