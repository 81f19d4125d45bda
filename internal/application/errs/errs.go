package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Code string

const (
	CodeAuthRequired Code = "auth_required"
	CodeAccessDenied Code = "access_denied"
	CodeConflict     Code = "conflict"
	CodeRateLimited  Code = "rate_limited"
	CodeNetwork      Code = "network"
	CodeUnknown      Code = "unknown"
)

// OrchestratorError is the single error type crossing the orchestrator
// boundary. Callers get a machine code, a user-facing message and an optional
// recovery hint, never a bare cause.
type OrchestratorError struct {
	Code       Code
	Resource   string
	Message    string
	Hint       string
	RetryAfter time.Duration
	Status     int
	Err        error
}

func (e *OrchestratorError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Resource, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

func AuthRequired(resource string) *OrchestratorError {
	return &OrchestratorError{
		Code:     CodeAuthRequired,
		Resource: resource,
		Message:  "authentication is missing or expired",
		Hint:     "sign in again and retry",
		Status:   http.StatusUnauthorized,
	}
}

func AccessDenied(resource, reason string) *OrchestratorError {
	return &OrchestratorError{
		Code:     CodeAccessDenied,
		Resource: resource,
		Message:  reason,
		Hint:     "request access from your organization admin",
		Status:   http.StatusForbidden,
	}
}

func Conflict(resource, detail string) *OrchestratorError {
	return &OrchestratorError{
		Code:     CodeConflict,
		Resource: resource,
		Message:  detail,
		Hint:     "choose a different name",
		Status:   http.StatusConflict,
	}
}

func RateLimited(retryAfter time.Duration) *OrchestratorError {
	return &OrchestratorError{
		Code:       CodeRateLimited,
		Message:    "the service is rate limiting requests",
		Hint:       "wait a moment and retry",
		RetryAfter: retryAfter,
		Status:     http.StatusTooManyRequests,
	}
}

func Network(cause error) *OrchestratorError {
	return &OrchestratorError{
		Code:    CodeNetwork,
		Message: "the service could not be reached",
		Hint:    "check your connection and retry",
		Err:     cause,
	}
}

func Unknown(cause error) *OrchestratorError {
	return &OrchestratorError{
		Code:    CodeUnknown,
		Message: "an unexpected error occurred",
		Err:     cause,
	}
}

// FromStatus classifies a non-2xx response into the taxonomy.
func FromStatus(resource string, status int, retryAfter time.Duration) *OrchestratorError {
	switch status {
	case http.StatusUnauthorized:
		return AuthRequired(resource)
	case http.StatusForbidden:
		return AccessDenied(resource, "access to "+resource+" was denied")
	case http.StatusConflict:
		return Conflict(resource, resource+" already exists")
	case http.StatusTooManyRequests:
		return RateLimited(retryAfter)
	default:
		err := &OrchestratorError{
			Code:     CodeUnknown,
			Resource: resource,
			Message:  fmt.Sprintf("unexpected status %d from %s", status, resource),
			Status:   status,
		}
		if status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout {
			err.Code = CodeNetwork
			err.Message = resource + " is temporarily unavailable"
		}
		return err
	}
}

// As extracts an OrchestratorError from an error chain, wrapping foreign
// errors as unknown so callers always see the taxonomy.
func As(err error) *OrchestratorError {
	if err == nil {
		return nil
	}
	var oe *OrchestratorError
	if errors.As(err, &oe) {
		return oe
	}
	return Unknown(err)
}
