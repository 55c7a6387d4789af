package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/platform/ctxutil"
)

var errUserIDRequired = errors.New("user_id is required")

// resolveUserID reconciles the request's user_id with the token subject.
// It writes the error response itself and reports false when the request must stop.
func resolveUserID(c *gin.Context, supplied string) (string, bool) {
	supplied = strings.TrimSpace(supplied)
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd != nil && rd.Subject != "" {
		if supplied == "" {
			return rd.Subject, true
		}
		if supplied != rd.Subject {
			response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("user_id does not match token subject"))
			return "", false
		}
	}
	if supplied == "" {
		response.RespondError(c, http.StatusBadRequest, "validation_error", errUserIDRequired)
		return "", false
	}
	return supplied, true
}

// bindJSON decodes the body, answering 400 on malformed input.
func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	if v := strings.TrimSpace(c.Query(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

type userOnlyReq struct {
	UserID string `json:"user_id"`
}
