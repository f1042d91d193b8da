package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFlowNotFound   = errors.New("booking flow not found or expired")
	ErrReauthRequired = errors.New("re-authentication required")
	ErrNotFound       = errors.New("not found")
)

// ValidationError names the offending field so it can be shown next to it.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return strings.Join(parts, "; ")
}

// Fields lists the offending field names in order.
func (e ValidationErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for _, v := range e {
		out = append(out, v.Field)
	}
	return out
}

// Has reports whether field is among the errors.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// APIError is a failed request/response with the backend. Status 0 means transport failure.
type APIError struct {
	Op         string
	Status     int
	Message    string
	TokenError bool
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: transport error: %s", e.Op, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.Status, msg)
}

func (e *APIError) Unwrap() error {
	if e.TokenError {
		return ErrReauthRequired
	}
	if e.Status == 404 {
		return ErrNotFound
	}
	return e.Err
}

// PaymentError carries the provider's message verbatim.
type PaymentError struct {
	Status  string
	Message string
}

func (e *PaymentError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment not completed: status %s", e.Status)
	}
	return e.Message
}

func IsValidation(err error) bool {
	var single ValidationError
	var multi ValidationErrors
	return errors.As(err, &multi) || errors.As(err, &single)
}

func IsReauthRequired(err error) bool {
	return errors.Is(err, ErrReauthRequired)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports a network failure that never reached the server.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 0
}

func IsPayment(err error) bool {
	var target *PaymentError
	return errors.As(err, &target)
}
