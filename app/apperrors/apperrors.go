// Package apperrors is the single failure channel between the content core and
// the HTTP front-ends. Every service and render operation returns either a value
// or one *AppError.
package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	// Internal covers store, transport and render failures.
	Internal Kind = iota
	// Validation covers malformed or missing input.
	Validation
	// NotFound covers lookups on absent resources.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// AppError carries a human readable message and its classification.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *AppError {
	return &AppError{Kind: Validation, Message: msg}
}

func NewNotFound(msg string) *AppError {
	return &AppError{Kind: NotFound, Message: msg}
}

// NewInternal wraps err. When msg is empty the message of err is used.
func NewInternal(msg string, err error) *AppError {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &AppError{Kind: Internal, Message: msg, Err: err}
}

// From returns err as an *AppError, classifying unknown errors as Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternal("", err)
}

// IsKind reports whether err is an *AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusMapper turns a Kind into a transport status. The not-found status is
// configurable because the admin API and the public site disagree on it.
type StatusMapper struct {
	NotFoundStatus int
}

var (
	// AdminStatus answers missing posts with 400, as the admin API always has.
	AdminStatus = StatusMapper{NotFoundStatus: http.StatusBadRequest}
	// SiteStatus answers missing posts with 404.
	SiteStatus = StatusMapper{NotFoundStatus: http.StatusNotFound}
)

func (m StatusMapper) Status(kind Kind) int {
	switch kind {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		if m.NotFoundStatus == 0 {
			return http.StatusNotFound
		}
		return m.NotFoundStatus
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON error payload.
type Body struct {
	ErrMsg     string `json:"err_msg"`
	StatusCode int    `json:"status_code"`
}

// Body resolves e into its wire form.
func (m StatusMapper) Body(e *AppError) Body {
	return Body{ErrMsg: e.Error(), StatusCode: m.Status(e.Kind)}
}

// Write serialises err as a JSON body with the mapped status.
func (m StatusMapper) Write(w http.ResponseWriter, err error) {
	body := m.Body(From(err))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.StatusCode)
	json.NewEncoder(w).Encode(body)
}
