package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

type Services struct {
	Session     services.SessionService
	Itinerary   services.ItineraryService
	Alerts      services.AlertService
	Documents   services.DocumentService
	Bookings    services.BookingService
	Translation services.TranslationService
	Sweeper     services.Sweeper
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) Services {
	log.Info("Wiring services...")
	policy := services.MustLoadPolicy()

	itinerary := services.NewItineraryService(db, log, r.Itinerary, c.LLM, c.Renderer, c.Bucket, c.Locker)
	alerts := services.NewAlertService(db, log, r.Alert, r.Itinerary, r.Booking, r.Document,
		c.Providers, c.Locker, policy, services.AlertConfig{ProviderTimeout: cfg.ProviderTimeout})
	documents := services.NewDocumentService(db, log, r.Document, c.Bucket, c.Extractor, c.Locker, policy,
		services.DocumentConfig{MaxBytes: cfg.DocumentMaxBytes})
	bookings := services.NewBookingService(db, log, r.Booking, r.SearchHistory, c.Providers.Flights, c.Providers.Hotels)
	translation := services.NewTranslationService(log, c.Providers.Translator)

	session := services.NewSessionService(db, log, services.SessionDeps{
		Users:       r.User,
		Messages:    r.Message,
		Itineraries: itinerary,
		Alerts:      alerts,
		Documents:   documents,
		Bookings:    bookings,
		Translation: translation,
		Weather:     c.Providers.Weather,
		LLM:         c.LLM,
		Locker:      c.Locker,
	}, services.SessionConfig{
		HistoryWindow: cfg.ChatHistoryWindow,
		Retention:     cfg.ChatRetention,
	})

	sweeper := services.NewSweeper(log, r.Itinerary, alerts, session, services.SweeperConfig{
		MaxUsers:    cfg.SweepMaxUsers,
		Concurrency: cfg.SweepConcurrency,
	})

	return Services{
		Session:     session,
		Itinerary:   itinerary,
		Alerts:      alerts,
		Documents:   documents,
		Bookings:    bookings,
		Translation: translation,
		Sweeper:     sweeper,
	}
}
