package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error kinds
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInternal          = errors.New("internal error")
	ErrTemporaryFailure  = errors.New("temporary failure")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error kind
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// StatusCode maps an error to the HTTP status it should produce
func StatusCode(err error) int {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyOrder):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	return errors.Is(err, ErrTemporaryFailure)
}

// NewOrderNotFoundError creates the error returned for an unknown order id
func NewOrderNotFoundError(orderID string) *AppError {
	return NewAppError(ErrNotFound, fmt.Sprintf("order %s not found", orderID), http.StatusNotFound, false).
		WithContext("order_id", orderID)
}

// NewInvalidTransitionError creates the error returned for an illegal state transition
func NewInvalidTransitionError(orderID, fromState, toState string) *AppError {
	return NewAppError(
		ErrInvalidTransition,
		fmt.Sprintf("transition %s -> %s is not permitted", fromState, toState),
		http.StatusConflict,
		false,
	).WithContext("order_id", orderID)
}

// NewEmptyOrderError creates the error returned when an order is created without items
func NewEmptyOrderError() *AppError {
	return NewAppError(ErrEmptyOrder, "order must contain at least one item", http.StatusBadRequest, false)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, false)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError, true)
}
