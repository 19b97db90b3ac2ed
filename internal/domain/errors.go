package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrMalformedTemplate indicates a recurrence template that cannot be
// processed (missing anchor field, bad dates). Caught per template during
// batch generation so one bad template never aborts the run.
type ErrMalformedTemplate struct {
	TemplateID string
	Reason     string
}

func (e *ErrMalformedTemplate) Error() string {
	return fmt.Sprintf("malformed template %s: %s", e.TemplateID, e.Reason)
}

// ErrRateLimited indicates a throttled operation was invoked again
// before its cool-down elapsed.
type ErrRateLimited struct {
	Operation string
	RetryIn   string
}

func (e *ErrRateLimited) Error() string {
	return fmt.Sprintf("rate limited: %s (retry in %s)", e.Operation, e.RetryIn)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists.
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrForbidden indicates the user lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}
