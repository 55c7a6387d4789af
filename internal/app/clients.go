package app

import (
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/extract"
	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	"github.com/yungbote/travel-companion-backend/internal/platform/redisx"
	"github.com/yungbote/travel-companion-backend/internal/platform/render"
)

type Clients struct {
	Redis      *goredis.Client
	Locker     locker.Locker
	LLM        openai.Client
	Bucket     gcp.BucketService
	DocumentAI gcp.DocumentAI
	Extractor  extract.Extractor
	Renderer   render.ItineraryRenderer
	Providers  *providers.Set
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis (optional)
	rdb, err := redisx.NewClientFromEnv(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	c.Redis = rdb
	c.Locker = locker.New(log, rdb, locker.Config{Timeout: cfg.UserLockTimeout})
	providerCache := cache.New(log, rdb, "tc:provider:")

	// Openai (optional)
	llm, err := openai.NewClient(log)
	switch {
	case err == nil:
		c.LLM = llm
	case errors.Is(err, openai.ErrNotConfigured):
		log.Warn("Language model not configured; chat and generation use fallbacks")
	default:
		c.Close()
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Gcs
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Bucket = bucket

	// Document AI (optional)
	docAI, err := gcp.NewDocumentAI(log)
	switch {
	case err == nil:
		c.DocumentAI = docAI
		c.Extractor = extract.New(log, docAI)
	case errors.Is(err, gcp.ErrDocumentAINotConfigured):
		c.Extractor = extract.New(log, nil)
	default:
		c.Close()
		return Clients{}, fmt.Errorf("init document ai: %w", err)
	}

	renderer, err := render.NewItineraryRenderer(log)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init renderer: %w", err)
	}
	c.Renderer = renderer
	c.Providers = providers.NewSetFromEnv(log, providerCache, c.LLM)
	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.DocumentAI != nil {
		_ = c.DocumentAI.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
