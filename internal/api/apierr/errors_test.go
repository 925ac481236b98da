package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/competition-console/internal/model"
	"github.com/mcoot/competition-console/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrCompetitorNotFound, http.StatusNotFound, CodeCompetitorNotFound},
		{model.ErrFirstNameRequired, http.StatusBadRequest, CodeValidationFailed},
		{model.ErrInvalidCountry, http.StatusBadRequest, CodeValidationFailed},
		{model.ErrNoCompetitors, http.StatusConflict, CodeNoCompetitors},
		{model.ErrNumbersLocked, http.StatusConflict, CodeNumbersLocked},
		{model.ErrAssignmentStale, http.StatusConflict, CodeAssignmentFailed},
		{model.ErrSessionNotRunning, http.StatusConflict, CodeSessionNotRunning},
		{model.ErrInvalidDay, http.StatusBadRequest, CodeInvalidDay},
		{model.ErrInvalidModule, http.StatusBadRequest, CodeInvalidModule},
		{model.ErrTimeCapReached, http.StatusConflict, CodeTimeCapReached},
		{model.ErrTimerActive, http.StatusConflict, CodeTimerActive},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized, CodeInvalidCredentials},
		{auth.ErrInvalidSession, http.StatusUnauthorized, CodeUnauthorized},
		{model.ErrEmailExists, http.StatusConflict, CodeEmailExists},
		{NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
		{errors.New("connection refused"), http.StatusInternalServerError, CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			// Wrapped errors map the same way
			err := fmt.Errorf("context: %w", tt.err)
			rec := httptest.NewRecorder()
			WriteError(rec, err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, Status(err))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotEmpty(t, body.Error.Message)
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("redis: dial tcp 10.0.0.5:6379: connect: connection refused"))

	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
