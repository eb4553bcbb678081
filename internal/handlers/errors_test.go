package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/services"
	"teambuilder/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, *gin.Context, utils.APIResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, err)

	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, c, body
}

func TestRespondError_Mapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"user not found", fmt.Errorf("lookup: %w", interfaces.ErrUserNotFound), http.StatusNotFound},
		{"report not found", services.ErrReportNotFound, http.StatusNotFound},
		{"no run", services.ErrNoRunRecorded, http.StatusNotFound},
		{"run in progress", services.ErrRunInProgress, http.StatusConflict},
		{"derived field", services.ErrDerivedField, http.StatusBadRequest},
		{"store down", fmt.Errorf("write: %w", interfaces.ErrStoreUnavailable), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _, body := respond(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, utils.StatusError, body.Status)
		})
	}
}

func TestRespondError_InternalErrorHidesDetails(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.7:27017: connection refused")

	w, c, body := respond(t, fmt.Errorf("failed to get user: %w", cause))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, body.Error)
	assert.Equal(t, utils.ErrInternalServer, body.Error.Message)
	assert.NotContains(t, w.Body.String(), "10.0.0.7")

	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, cause)
}
