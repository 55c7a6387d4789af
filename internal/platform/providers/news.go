package providers

import (
	"context"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type NewsProvider interface {
	TravelNews(ctx context.Context, location string) (*NewsResult, error)
}

type NewsResult struct {
	Location string        `json:"location"`
	Articles []NewsArticle `json:"articles"`
	Source   string        `json:"source"`
	Mock     bool          `json:"mock"`
}

type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
}

type news struct {
	*base
	now func() time.Time
}

func NewNews(log *logger.Logger, cfg Config, c cache.Cache, apiKey, baseURL string) NewsProvider {
	return &news{base: newBase(log, "newsapi", cfg, c, apiKey, baseURL), now: time.Now}
}

func (n *news) TravelNews(ctx context.Context, location string) (*NewsResult, error) {
	if !n.configured() {
		n.notConfigured()
		return n.mock(location), nil
	}
	res, err := loadCached(ctx, n.base, cacheKey("travel", location), func(ctx context.Context) (*NewsResult, error) {
		return n.fetch(ctx, location)
	})
	if err != nil {
		if ok, ferr := n.fallback(ctx, err); !ok {
			return nil, ferr
		}
		return n.mock(location), nil
	}
	return res, nil
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (n *news) fetch(ctx context.Context, location string) (*NewsResult, error) {
	now := n.now().UTC()
	var resp newsAPIResponse
	err := n.getJSON(ctx, "/everything", map[string]string{
		"q":        `"` + location + `" AND (travel OR tourism OR airport OR embassy)`,
		"from":     now.AddDate(0, 0, -7).Format("2006-01-02"),
		"to":       now.Format("2006-01-02"),
		"sortBy":   "publishedAt",
		"language": "en",
		"pageSize": "10",
	}, map[string]string{"X-Api-Key": n.apiKey}, &resp)
	if err != nil {
		return nil, err
	}
	out := &NewsResult{Location: location, Source: "newsapi", Articles: make([]NewsArticle, 0, len(resp.Articles))}
	for _, a := range resp.Articles {
		out.Articles = append(out.Articles, NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt,
		})
	}
	return out, nil
}

func (n *news) mock(location string) *NewsResult {
	now := n.now().UTC()
	return &NewsResult{
		Location: location,
		Source:   "mock",
		Mock:     true,
		Articles: []NewsArticle{
			{
				Title:       "New flight routes to " + location + " announced",
				Description: "A major airline announces new direct flights to " + location + ".",
				URL:         "https://example.com/news/routes",
				Source:      "Travel Weekly",
				PublishedAt: now.Add(-2 * time.Hour).Format(time.RFC3339),
			},
			{
				Title:       "Tourism in " + location + " shows strong recovery",
				Description: "Visitor numbers in " + location + " are bouncing back.",
				URL:         "https://example.com/news/tourism",
				Source:      "Tourism Today",
				PublishedAt: now.Add(-6 * time.Hour).Format(time.RFC3339),
			},
		},
	}
}
