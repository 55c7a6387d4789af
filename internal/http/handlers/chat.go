package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type ChatHandler struct {
	session services.SessionService
}

func NewChatHandler(session services.SessionService) *ChatHandler {
	return &ChatHandler{session: session}
}

type chatReq struct {
	UserID  string          `json:"user_id"`
	Message string          `json:"message"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// POST /api/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	resp, err := h.session.Handle(c.Request.Context(), userID, services.ChatRequest{
		Message: req.Message,
		Action:  req.Action,
		Payload: req.Payload,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"response":  resp,
		"user_id":   userID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GET /api/chat/history?user_id=&limit=50
func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	msgs, err := h.session.History(c.Request.Context(), userID, queryInt(c, "limit", 0))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"messages": msgs})
}
