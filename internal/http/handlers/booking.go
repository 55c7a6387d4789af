package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http/response"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type BookingHandler struct {
	bookings services.BookingService
}

func NewBookingHandler(bookings services.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type bookingSearchReq struct {
	UserID string `json:"user_id"`
	services.BookingSearchInput
}

// POST /api/booking
func (h *BookingHandler) Search(c *gin.Context) {
	var req bookingSearchReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	res, err := h.bookings.Search(c.Request.Context(), userID, req.BookingSearchInput)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/bookings?user_id=
func (h *BookingHandler) List(c *gin.Context) {
	userID, ok := resolveUserID(c, c.Query("user_id"))
	if !ok {
		return
	}
	list, err := h.bookings.List(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, list)
}

type recordBookingReq struct {
	UserID  string                `json:"user_id"`
	Booking services.BookingInput `json:"booking"`
}

// POST /api/bookings
func (h *BookingHandler) Record(c *gin.Context) {
	var req recordBookingReq
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := resolveUserID(c, req.UserID)
	if !ok {
		return
	}
	b, err := h.bookings.Record(c.Request.Context(), userID, req.Booking)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"booking": b})
}
