package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type ItineraryHandler struct {
	itineraries services.ItineraryService
}

func NewItineraryHandler(itineraries services.ItineraryService) *ItineraryHandler {
	return &ItineraryHandler{itineraries: itineraries}
}

// GET /api/itinerary?user_id=
func (h *ItineraryHandler) Get(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	it, err := h.itineraries.Get(c.Request.Context(), userID)
	if errors.Is(err, domainerrs.ErrNotFound) {
		response.RespondOK(c, gin.H{"found": false})
		return
	}
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"found": true, "itinerary": it})
}

type itineraryActionReq struct {
	UserID        string                        `json:"user_id"`
	Action        string                        `json:"action"`
	ItineraryData *services.ItineraryInput      `json:"itinerary_data"`
	Preferences   *services.GeneratePreferences `json:"preferences"`
}

// POST /api/itinerary
func (h *ItineraryHandler) Act(c *gin.Context) {
	var req itineraryActionReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	action := strings.TrimSpace(req.Action)
	switch action {
	case "create", "update":
		if req.ItineraryData == nil {
			response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("itinerary_data is required"))
			return
		}
		var (
			it  any
			err error
		)
		if action == "create" {
			it, err = h.itineraries.Create(ctx, userID, *req.ItineraryData)
		} else {
			it, err = h.itineraries.Update(ctx, userID, *req.ItineraryData)
		}
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"itinerary": it})
	case "delete":
		archived, err := h.itineraries.Delete(ctx, userID)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"message": "Itinerary deleted", "archived": archived})
	case "generate":
		var prefs services.GeneratePreferences
		if req.Preferences != nil {
			prefs = *req.Preferences
		}
		it, err := h.itineraries.Generate(ctx, userID, prefs)
		if err != nil {
			response.RespondServiceError(c, err)
			return
		}
		response.RespondOK(c, gin.H{"itinerary": it})
	default:
		response.RespondError(c, http.StatusBadRequest, "validation_error", errors.New("action must be create, update, delete or generate"))
	}
}

// POST /api/itinerary/export
func (h *ItineraryHandler) Export(c *gin.Context) {
	var req userOnlyReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	exp, err := h.itineraries.Export(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, exp)
}

// GET /api/itinerary/archived?user_id=
func (h *ItineraryHandler) Archived(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	rows, err := h.itineraries.ListArchived(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"itineraries": rows})
}
