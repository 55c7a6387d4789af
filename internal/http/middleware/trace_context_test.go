package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/travel-companion-backend/internal/platform/ctxutil"
)

func TestRequestIDsKeepsWellFormedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen ctxutil.Trace
	r := gin.New()
	r.Use(RequestIDs())
	r.GET("/x", func(c *gin.Context) {
		seen, _ = ctxutil.TraceFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "trip-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, "trip-42", seen.RequestID)
	require.Equal(t, "trip-42", seen.TraceID)
	require.Equal(t, "trip-42", rec.Header().Get(headerRequestID))
}

func TestRequestIDsReplacesMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDs())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "bad id\nwith newline")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	got := rec.Header().Get(headerRequestID)
	require.NotEqual(t, "bad id\nwith newline", got)
	require.Len(t, got, 36)
}
