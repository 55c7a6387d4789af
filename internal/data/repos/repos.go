package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/alerts"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/booking"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/chat"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/documents"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/user"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ConversationMessageRepo = chat.ConversationMessageRepo
type ItineraryRepo = itinerary.ItineraryRepo
type AlertRepo = alerts.AlertRepo
type DocumentRepo = documents.DocumentRepo
type BookingRepo = booking.BookingRepo
type SearchRecordRepo = booking.SearchRecordRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewConversationMessageRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMessageRepo {
	return chat.NewConversationMessageRepo(db, baseLog)
}
func NewItineraryRepo(db *gorm.DB, baseLog *logger.Logger) ItineraryRepo {
	return itinerary.NewItineraryRepo(db, baseLog)
}
func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	return alerts.NewAlertRepo(db, baseLog)
}
func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return documents.NewDocumentRepo(db, baseLog)
}
func NewBookingRepo(db *gorm.DB, baseLog *logger.Logger) BookingRepo {
	return booking.NewBookingRepo(db, baseLog)
}
func NewSearchRecordRepo(db *gorm.DB, baseLog *logger.Logger) SearchRecordRepo {
	return booking.NewSearchRecordRepo(db, baseLog)
}
