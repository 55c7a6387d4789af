package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type AlertHandler struct {
	alerts services.AlertService
}

func NewAlertHandler(alerts services.AlertService) *AlertHandler {
	return &AlertHandler{alerts: alerts}
}

// GET /api/alerts?user_id=
func (h *AlertHandler) List(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	rows, err := h.alerts.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"alerts": rows, "count": len(rows)})
}

// POST /api/alerts/check
func (h *AlertHandler) Check(c *gin.Context) {
	var req userOnlyReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	res, err := h.alerts.Check(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"alerts":       res.Alerts,
		"created":      res.Created,
		"count":        len(res.Alerts),
		"last_updated": time.Now().UTC().Format(time.RFC3339),
	})
}

type dismissReq struct {
	UserID  string `json:"user_id"`
	AlertID string `json:"alert_id"`
}

// POST /api/alerts/dismiss
func (h *AlertHandler) Dismiss(c *gin.Context) {
	var req dismissReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	if err := h.alerts.Dismiss(c.Request.Context(), userID, req.AlertID); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Alert dismissed"})
}

type customAlertReq struct {
	UserID string                    `json:"user_id"`
	Alert  services.CustomAlertInput `json:"alert"`
}

// POST /api/alerts/custom
func (h *AlertHandler) Custom(c *gin.Context) {
	var req customAlertReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	a, err := h.alerts.CreateCustom(c.Request.Context(), userID, req.Alert)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Custom alert created", "alert": a})
}
