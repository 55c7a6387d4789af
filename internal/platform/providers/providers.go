package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/httpx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	"github.com/yungbote/travel-companion-backend/internal/utils"
)

// Config is shared by every HTTP-backed adapter.
type Config struct {
	Timeout    time.Duration
	CacheTTL   time.Duration
	MaxRetries int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Timeout:    utils.GetEnvAsDuration("PROVIDER_TIMEOUT", 8*time.Second, log),
		CacheTTL:   utils.GetEnvAsDuration("PROVIDER_CACHE_TTL", 30*time.Minute, log),
		MaxRetries: utils.GetEnvAsInt("PROVIDER_MAX_RETRIES", 2, log),
	}
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 30 * time.Minute
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	return c
}

// Set bundles the adapters a service may depend on.
type Set struct {
	Weather    WeatherProvider
	News       NewsProvider
	Flights    FlightProvider
	Hotels     HotelProvider
	Translator Translator
}

// NewSetFromEnv builds every adapter from environment keys. Adapters without
// a key serve mock data. llm may be nil.
func NewSetFromEnv(log *logger.Logger, c cache.Cache, llm openai.Client) *Set {
	cfg := ConfigFromEnv(log)
	return &Set{
		Weather: NewWeather(log, cfg, c,
			utils.GetEnv("OPENWEATHER_API_KEY", "", nil),
			utils.GetEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5", log)),
		News: NewNews(log, cfg, c,
			utils.GetEnv("NEWS_API_KEY", "", nil),
			utils.GetEnv("NEWS_API_BASE_URL", "https://newsapi.org/v2", log)),
		Flights: NewFlights(log, cfg, c,
			utils.GetEnv("AVIATIONSTACK_API_KEY", "", nil),
			utils.GetEnv("AVIATIONSTACK_BASE_URL", "http://api.aviationstack.com/v1", log)),
		Hotels: NewHotels(log, cfg, c,
			utils.GetEnv("HOTELS_API_KEY", "", nil),
			utils.GetEnv("HOTELS_BASE_URL", "https://test.api.amadeus.com/v3", log)),
		Translator: NewTranslator(log, llm),
	}
}

type base struct {
	name   string
	apiKey string
	http   *resty.Client
	cache  cache.Cache
	ttl    time.Duration
	log    *logger.Logger
}

func newBase(log *logger.Logger, name string, cfg Config, c cache.Cache, apiKey, baseURL string) *base {
	cfg = cfg.withDefaults()
	hc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return httpx.IsRetryableError(err)
			}
			return r != nil && httpx.IsRetryableHTTPStatus(r.StatusCode())
		})
	return &base{
		name:   name,
		apiKey: strings.TrimSpace(apiKey),
		http:   hc,
		cache:  c,
		ttl:    cfg.CacheTTL,
		log:    log.With("provider", name),
	}
}

func (b *base) configured() bool { return b.apiKey != "" }

type statusError struct {
	provider string
	status   int
	body     string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.provider, e.status, e.body)
}

func (e *statusError) HTTPStatusCode() int { return e.status }

// getJSON performs a GET and decodes the body into out.
func (b *base) getJSON(ctx context.Context, path string, query map[string]string, headers map[string]string, out any) error {
	ctx, span := observability.StartSpan(ctx, "provider."+b.name)
	resp, err := b.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetHeaders(headers).
		Get(path)
	if err == nil && resp.IsError() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 200 {
			body = body[:200]
		}
		err = &statusError{provider: b.name, status: resp.StatusCode(), body: body}
	}
	if err == nil {
		if derr := json.Unmarshal(resp.Body(), out); derr != nil {
			err = fmt.Errorf("%s: decode response: %w", b.name, derr)
		}
	}
	observability.EndSpan(span, err)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.Current().IncProviderCall(b.name, outcome)
	return err
}

// fallback reports whether the adapter should serve mock data for err. A
// canceled caller is never masked.
func (b *base) fallback(ctx context.Context, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return false, err
	}
	b.log.Warn("provider call failed, serving mock data", "error", err)
	observability.Current().IncProviderFallback(b.name, "error")
	return true, nil
}

func (b *base) notConfigured() {
	observability.Current().IncProviderFallback(b.name, "not_configured")
}

// loadCached returns the cached value for key or calls fetch and stores its result.
func loadCached[T any](ctx context.Context, b *base, key string, fetch func(context.Context) (T, error)) (T, error) {
	key = b.name + ":" + key
	if b.cache != nil {
		if raw, ok, err := b.cache.Get(ctx, key); err == nil && ok {
			var v T
			if json.Unmarshal(raw, &v) == nil {
				return v, nil
			}
		} else if err != nil {
			b.log.Debug("cache read failed", "error", err)
		}
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if b.cache != nil {
		if raw, merr := json.Marshal(v); merr == nil {
			if serr := b.cache.Set(ctx, key, raw, b.ttl); serr != nil {
				b.log.Debug("cache write failed", "error", serr)
			}
		}
	}
	return v, nil
}

func cacheKey(parts ...string) string {
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, "|")
}

// seed gives mock generators a stable value per input.
func seed(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum32()
}

// Price is a normalized amount.
type Price struct {
	Total    float64 `json:"total"`
	Currency string  `json:"currency"`
	PerNight float64 `json:"per_night,omitempty"`
}
