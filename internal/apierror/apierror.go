package apierror

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

type ErrorCode string

const (
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrConflict       ErrorCode = "CONFLICT"
	ErrBadRequest     ErrorCode = "BAD_REQUEST"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrInternalServer ErrorCode = "INTERNAL_SERVER_ERROR"
)

type APIError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAPIError(code ErrorCode, message string, details interface{}) APIError {
	logrus.Error(details)
	return APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// ValidationError is a client-correctable failure: a missing required id or
// a record used in the wrong role. Operations returning it guarantee no
// partial mutation happened.
func ValidationError(message string) APIError {
	return APIError{Code: ErrInvalidInput, Message: message}
}

// NotFoundError reports an unknown id, distinctly from validation failures.
func NotFoundError(message string) APIError {
	return APIError{Code: ErrNotFound, Message: message}
}

// IsValidation reports whether err is a client-correctable validation error.
func IsValidation(err error) bool {
	apiErr, ok := err.(APIError)
	return ok && (apiErr.Code == ErrInvalidInput || apiErr.Code == ErrBadRequest)
}

// IsNotFound reports whether err is an unknown-id error.
func IsNotFound(err error) bool {
	apiErr, ok := err.(APIError)
	return ok && apiErr.Code == ErrNotFound
}

func MapErrorToHTTPStatus(err error) int {
	if apiErr, ok := err.(APIError); ok {
		switch apiErr.Code {
		case ErrNotFound:
			return http.StatusNotFound
		case ErrConflict:
			return http.StatusConflict
		case ErrInvalidInput, ErrBadRequest:
			return http.StatusBadRequest
		case ErrInternalServer:
			return http.StatusInternalServerError
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
