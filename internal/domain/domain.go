package domain

import (
	"github.com/yungbote/travel-companion-backend/internal/domain/alerts"
	"github.com/yungbote/travel-companion-backend/internal/domain/booking"
	"github.com/yungbote/travel-companion-backend/internal/domain/chat"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/domain/user"
)

type User = user.User

type ConversationMessage = chat.ConversationMessage

type Itinerary = itinerary.Itinerary
type ItineraryDay = itinerary.Day
type ItineraryActivity = itinerary.Activity
type ItineraryTransportation = itinerary.Transportation
type ItineraryBudget = itinerary.Budget

type Alert = alerts.Alert

type Document = documents.Document

type Booking = booking.Booking
type SearchRecord = booking.SearchRecord

const (
	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant

	ItineraryStatusDraft     = itinerary.StatusDraft
	ItineraryStatusConfirmed = itinerary.StatusConfirmed
	ItineraryStatusArchived  = itinerary.StatusArchived
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&User{},
		&ConversationMessage{},
		&Itinerary{},
		&Alert{},
		&Document{},
		&Booking{},
		&SearchRecord{},
	}
}
