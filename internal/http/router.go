package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/travel-companion-backend/internal/http/handlers"
	httpMW "github.com/yungbote/travel-companion-backend/internal/http/middleware"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	CORSOrigins    []string
	RateLimit      httpMW.RateLimitConfig
	AuthMiddleware *httpMW.AuthMiddleware

	ChatHandler      *httpH.ChatHandler
	ItineraryHandler *httpH.ItineraryHandler
	AlertHandler     *httpH.AlertHandler
	DocumentHandler  *httpH.DocumentHandler
	BookingHandler   *httpH.BookingHandler
	TranslateHandler *httpH.TranslateHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.RequestIDs())
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.AttachIdentity())
	}
	api.Use(httpMW.RequestLogger(cfg.Log))
	limited := httpMW.RateLimit(cfg.RateLimit)

	// Chat
	if cfg.ChatHandler != nil {
		api.POST("/chat", limited, cfg.ChatHandler.Chat)
		api.GET("/chat/history", cfg.ChatHandler.History)
	}

	// Itinerary
	if cfg.ItineraryHandler != nil {
		api.GET("/itinerary", cfg.ItineraryHandler.Get)
		api.POST("/itinerary", limited, cfg.ItineraryHandler.Act)
		api.POST("/itinerary/export", limited, cfg.ItineraryHandler.Export)
		api.GET("/itinerary/archived", cfg.ItineraryHandler.Archived)
	}

	// Alerts
	if cfg.AlertHandler != nil {
		api.GET("/alerts", cfg.AlertHandler.List)
		api.POST("/alerts/check", limited, cfg.AlertHandler.Check)
		api.POST("/alerts/dismiss", cfg.AlertHandler.Dismiss)
		api.POST("/alerts/custom", cfg.AlertHandler.Custom)
	}

	// Documents
	if cfg.DocumentHandler != nil {
		api.GET("/documents", cfg.DocumentHandler.List)
		api.POST("/documents", cfg.DocumentHandler.Act)
		api.POST("/documents/download", cfg.DocumentHandler.Download)
		api.POST("/documents/backup", limited, cfg.DocumentHandler.Backup)
	}

	// Booking
	if cfg.BookingHandler != nil {
		api.POST("/booking", limited, cfg.BookingHandler.Search)
		api.GET("/bookings", cfg.BookingHandler.List)
		api.POST("/bookings", cfg.BookingHandler.Record)
	}

	if cfg.TranslateHandler != nil {
		api.POST("/translate", limited, cfg.TranslateHandler.Translate)
	}

	return r
}
