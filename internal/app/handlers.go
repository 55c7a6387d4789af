package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/travel-companion-backend/internal/http"
	httpH "github.com/yungbote/travel-companion-backend/internal/http/handlers"
	httpMW "github.com/yungbote/travel-companion-backend/internal/http/middleware"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Chat      *httpH.ChatHandler
	Itinerary *httpH.ItineraryHandler
	Alerts    *httpH.AlertHandler
	Documents *httpH.DocumentHandler
	Bookings  *httpH.BookingHandler
	Translate *httpH.TranslateHandler
}

// uploadBodyLimit covers base64 expansion plus the JSON envelope.
func uploadBodyLimit(maxBytes int64) int64 {
	return maxBytes*4/3 + 64<<10
}

func wireHandlers(log *logger.Logger, cfg Config, s Services, db httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:    httpH.NewHealthHandler(db),
		Chat:      httpH.NewChatHandler(s.Session),
		Itinerary: httpH.NewItineraryHandler(s.Itinerary),
		Alerts:    httpH.NewAlertHandler(s.Alerts),
		Documents: httpH.NewDocumentHandler(s.Documents, uploadBodyLimit(cfg.DocumentMaxBytes)),
		Bookings:  httpH.NewBookingHandler(s.Bookings),
		Translate: httpH.NewTranslateHandler(s.Translation),
	}
}

func wireRouter(log *logger.Logger, cfg Config, h Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		ServiceName:    cfg.ServiceName,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      httpMW.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst},
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),

		ChatHandler:      h.Chat,
		ItineraryHandler: h.Itinerary,
		AlertHandler:     h.Alerts,
		DocumentHandler:  h.Documents,
		BookingHandler:   h.Bookings,
		TranslateHandler: h.Translate,
		HealthHandler:    h.Health,
	})
}
