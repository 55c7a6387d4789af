package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type Repos struct {
	User          repos.UserRepo
	Message       repos.ConversationMessageRepo
	Itinerary     repos.ItineraryRepo
	Alert         repos.AlertRepo
	Document      repos.DocumentRepo
	Booking       repos.BookingRepo
	SearchHistory repos.SearchRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Message:       repos.NewConversationMessageRepo(db, log),
		Itinerary:     repos.NewItineraryRepo(db, log),
		Alert:         repos.NewAlertRepo(db, log),
		Document:      repos.NewDocumentRepo(db, log),
		Booking:       repos.NewBookingRepo(db, log),
		SearchHistory: repos.NewSearchRecordRepo(db, log),
	}
}
