package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type DocumentHandler struct {
	documents services.DocumentService
	maxBody   int64
}

// NewDocumentHandler caps request bodies at maxBody bytes; zero disables the cap.
func NewDocumentHandler(documents services.DocumentService, maxBody int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxBody: maxBody}
}

// GET /api/documents?user_id=
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	list, err := h.documents.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, list)
}

type documentActionReq struct {
	UserID      string `json:"user_id"`
	Action      string `json:"action"`
	DocumentKey string `json:"document_key"`
	services.UploadDocumentInput
}

// POST /api/documents
func (h *DocumentHandler) Act(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}
	var req documentActionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "validation_error", errors.New("document is too large"))
			return
		}
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	switch strings.TrimSpace(req.Action) {
	case "upload":
		doc, err := h.documents.Upload(ctx, userID, req.UploadDocumentInput)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": "Document uploaded", "document": doc})
	case "delete":
		if err := h.documents.Delete(ctx, userID, req.DocumentKey); err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": "Document deleted", "document_key": req.DocumentKey})
	case "scan":
		res, err := h.documents.Scan(ctx, userID, req.DocumentKey)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, res)
	case "organize":
		res, err := h.documents.Organize(ctx, userID)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{
			"organization_stats": res.Stats,
			"recommendations":    res.Stats.Recommendations,
			"documents":          res.Documents,
		})
	default:
		response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("action must be upload, delete, scan or organize"))
	}
}

type documentKeyReq struct {
	UserID      string `json:"user_id"`
	DocumentKey string `json:"document_key"`
}

// POST /api/documents/download
func (h *DocumentHandler) Download(c *gin.Context) {
	var req documentKeyReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	dl, err := h.documents.Download(c.Request.Context(), userID, req.DocumentKey)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, dl)
}

// POST /api/documents/backup
func (h *DocumentHandler) Backup(c *gin.Context) {
	var req userOnlyReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	res, err := h.documents.Backup(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}
