package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/travel-companion-backend/internal/platform/apierr"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

func TestRespondServiceErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
		code   string
		msg    string
	}{
		{fmt.Errorf("%w: destination is required", domainerrs.ErrValidation), http.StatusBadRequest, "validation_error", "validation error: destination is required"},
		{fmt.Errorf("%w: no active itinerary", domainerrs.ErrNotFound), http.StatusNotFound, "not_found", "not found: no active itinerary"},
		{domainerrs.ErrConflict, http.StatusConflict, "conflict", "conflict"},
		{fmt.Errorf("%w: upstream timeout", domainerrs.ErrCollaboratorUnavailable), http.StatusServiceUnavailable, "collaborator_unavailable", apierr.UnavailableMessage},
		{errors.New("pq: relation missing"), http.StatusInternalServerError, "internal_error", "Internal Server Error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		RespondServiceError(c, tc.err)

		require.Equal(t, tc.status, rec.Code)
		var env ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		require.Equal(t, tc.code, env.Error.Code)
		require.Equal(t, tc.msg, env.Error.Message)
	}
}

func TestRespondErrorAbortsWithStatusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", nil)

	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	var env ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Equal(t, "Request Entity Too Large", env.Error.Message)
}

func TestRespondServiceErrorRecordsInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondServiceError(c, errors.New("disk full"))

	require.Len(t, c.Errors, 1)
	require.Contains(t, c.Errors.String(), "disk full")
}
