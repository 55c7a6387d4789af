package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitPerUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{RPS: 0.001, Burst: 2}))
	r.GET("/api/chat/history", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(user string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chat/history?user_id="+user, nil))
		return rec.Code
	}
	require.Equal(t, http.StatusOK, hit("u1"))
	require.Equal(t, http.StatusOK, hit("u1"))
	require.Equal(t, http.StatusTooManyRequests, hit("u1"))
	require.Equal(t, http.StatusOK, hit("u2"))
}
