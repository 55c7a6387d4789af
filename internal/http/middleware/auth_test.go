package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/travel-companion-backend/internal/platform/ctxutil"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

func signed(t *testing.T, secret, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authEngine(am *AuthMiddleware, seen *string) *gin.Engine {
	r := gin.New()
	r.Use(am.AttachIdentity())
	r.GET("/api/alerts", func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			*seen = rd.Subject
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := authEngine(NewAuthMiddleware(logger.Nop(), ""), &seen)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/alerts", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, seen)
}

func TestAuthValidatesBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := authEngine(NewAuthMiddleware(logger.Nop(), "s3cret"), &seen)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong key", "Bearer " + signed(t, "other", "u1", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, "s3cret", "u1", time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"no subject", "Bearer " + signed(t, "s3cret", "", time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"valid", "Bearer " + signed(t, "s3cret", "u1", time.Now().Add(time.Hour)), http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, tc.status, rec.Code, tc.name)
	}
	require.Equal(t, "u1", seen)
}
