package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError aborts the chain with the error envelope. A nil err falls back
// to the status text.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// RespondServiceError maps a service error onto the envelope. Unclassified
// failures are attached to the gin context for the request log and never
// echoed to the caller.
func RespondServiceError(c *gin.Context, err error) {
	ae := apierr.FromError(err)
	if ae == nil || ae.Status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	if ae.Status > http.StatusInternalServerError {
		_ = c.Error(err)
	}
	RespondError(c, ae.Status, ae.Code, ae.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
