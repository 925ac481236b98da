package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeCompetitorNotFound = "COMPETITOR_NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNoCompetitors      = "NO_COMPETITORS"
	CodeNumbersLocked      = "NUMBERS_LOCKED"
	CodeAssignmentFailed   = "ASSIGNMENT_FAILED"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeSessionNotRunning  = "SESSION_NOT_RUNNING"
	CodeInvalidDay         = "INVALID_DAY"
	CodeInvalidModule      = "INVALID_MODULE"
	CodeTimeCapReached     = "TIME_CAP_REACHED"
	CodeTimerActive        = "TIMER_ACTIVE"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Registry errors
	case errors.Is(err, model.ErrCompetitorNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCompetitorNotFound, "Competitor not found"}}
	case errors.Is(err, model.ErrFirstNameRequired),
		errors.Is(err, model.ErrLastNameRequired),
		errors.Is(err, model.ErrInvalidLanguage),
		errors.Is(err, model.ErrInvalidCountry):
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, err.Error()}}

	// Number assignment errors
	case errors.Is(err, model.ErrNoCompetitors):
		return &httpError{http.StatusConflict, APIError{CodeNoCompetitors, "No competitors to number"}}
	case errors.Is(err, model.ErrNumbersLocked):
		return &httpError{http.StatusConflict, APIError{CodeNumbersLocked, "Numbers are already assigned; confirm to reassign"}}
	case errors.Is(err, model.ErrInvalidNumbers), errors.Is(err, model.ErrAssignmentStale):
		return &httpError{http.StatusConflict, APIError{CodeAssignmentFailed, "Number assignment failed; try again"}}

	// Session errors
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}
	case errors.Is(err, model.ErrSessionNotRunning):
		return &httpError{http.StatusConflict, APIError{CodeSessionNotRunning, "Session is not running"}}
	case errors.Is(err, model.ErrInvalidDay):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidDay, "Invalid competition day"}}
	case errors.Is(err, model.ErrInvalidModule):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidModule, "Module must be morning or evening"}}
	case errors.Is(err, model.ErrTimeCapReached):
		return &httpError{http.StatusConflict, APIError{CodeTimeCapReached, "Maximum session time reached"}}
	case errors.Is(err, model.ErrTimerActive):
		return &httpError{http.StatusConflict, APIError{CodeTimerActive, "Another session is already active"}}

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, model.ErrEmailExists):
		return &httpError{http.StatusConflict, APIError{CodeEmailExists, "Email already registered"}}
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrPasswordTooShort):
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, err.Error()}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
