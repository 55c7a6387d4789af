package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type TranslateHandler struct {
	translation services.TranslationService
}

func NewTranslateHandler(translation services.TranslationService) *TranslateHandler {
	return &TranslateHandler{translation: translation}
}

// POST /api/translate
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req services.TranslateInput
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.translation.Translate(c.Request.Context(), req)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, out)
}
