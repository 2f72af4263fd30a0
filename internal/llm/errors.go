package llm

import (
	"errors"
	"fmt"
)

// ServiceError reports a failed generation call.
type ServiceError struct {
	Provider   string
	StatusCode int    // HTTP status, 0 when no response was received
	Code       string // provider error code, if any
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Code != "":
		return fmt.Sprintf("%s api error %d (%s): %s", e.Provider, e.StatusCode, e.Code, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s api error %d: %s", e.Provider, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
}

func (e *ServiceError) Unwrap() error { return e.Err }

// IsServiceError reports whether err is or wraps a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func transportError(provider, msg string, err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return &ServiceError{Provider: provider, Message: msg, Err: err}
}
