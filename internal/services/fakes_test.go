package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
)

type memBucket struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failWrite error
	deletes   int
}

func newMemBucket() *memBucket { return &memBucket{objects: map[string][]byte{}} }

func objectID(category gcp.BucketCategory, key string) string { return string(category) + ":" + key }

func (b *memBucket) UploadFile(dbc dbctx.Context, category gcp.BucketCategory, key string, file io.Reader, contentType string) error {
	if b.failWrite != nil {
		return b.failWrite
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectID(category, key)] = data
	return nil
}

func (b *memBucket) DeleteFile(dbc dbctx.Context, category gcp.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, objectID(category, key))
	b.deletes++
	return nil
}

func (b *memBucket) DownloadFile(ctx context.Context, category gcp.BucketCategory, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[objectID(category, key)]
	if !ok {
		return nil, fmt.Errorf("object %s missing", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *memBucket) GetObjectAttrs(ctx context.Context, category gcp.BucketCategory, key string) (*gcp.ObjectAttrs, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[objectID(category, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gcp.ErrObjectNotFound, key)
	}
	return &gcp.ObjectAttrs{Size: int64(len(data)), ContentType: gcp.ContentTypeForKey(key), Updated: time.Now()}, nil
}

func (b *memBucket) ListKeys(ctx context.Context, category gcp.BucketCategory, prefix string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for id := range b.objects {
		key := strings.TrimPrefix(id, string(category)+":")
		if key != id && strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *memBucket) SignedURL(ctx context.Context, category gcp.BucketCategory, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/%s/%s?ttl=%d", category, key, int(ttl.Seconds())), nil
}

func (b *memBucket) remove(category gcp.BucketCategory, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, objectID(category, key))
}

func (b *memBucket) put(category gcp.BucketCategory, key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[objectID(category, key)] = data
}

func (b *memBucket) get(category gcp.BucketCategory, key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[objectID(category, key)]
	return data, ok
}

type fakeExtractor struct {
	text  string
	err   error
	calls int
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, contentType string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.text != "" {
		return f.text, nil
	}
	return string(data), nil
}

func testLocker() locker.Locker {
	return locker.NewLocal(locker.Config{Timeout: 2 * time.Second})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.SQLiteDB(t)
}

type fakeWeather struct {
	days  []providers.ForecastDay
	err   error
	calls int
}

func (f *fakeWeather) Forecast(ctx context.Context, location string, days int) (*providers.Forecast, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &providers.Forecast{Location: location, Days: f.days, Source: "fake"}, nil
}

type fakeNews struct {
	articles []providers.NewsArticle
	err      error
	location string
}

func (f *fakeNews) TravelNews(ctx context.Context, location string) (*providers.NewsResult, error) {
	f.location = location
	if f.err != nil {
		return nil, f.err
	}
	return &providers.NewsResult{Location: location, Articles: f.articles, Source: "fake"}, nil
}

type fakeFlights struct {
	gates    map[string]string
	offers   []providers.FlightOffer
	err      error
	searched []providers.FlightCriteria
}

func (f *fakeFlights) Search(ctx context.Context, c providers.FlightCriteria) (*providers.FlightSearchResult, error) {
	f.searched = append(f.searched, c)
	if f.err != nil {
		return nil, f.err
	}
	return &providers.FlightSearchResult{Flights: f.offers, Source: "fake"}, nil
}

func (f *fakeFlights) Status(ctx context.Context, flightNumber, date string) (*providers.FlightStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &providers.FlightStatus{FlightNumber: flightNumber, Status: "scheduled", Gate: f.gates[flightNumber]}, nil
}

type fakeHotels struct {
	offers   []providers.HotelOffer
	err      error
	searched []providers.HotelCriteria
}

func (f *fakeHotels) Search(ctx context.Context, c providers.HotelCriteria) (*providers.HotelSearchResult, error) {
	f.searched = append(f.searched, c)
	if f.err != nil {
		return nil, f.err
	}
	return &providers.HotelSearchResult{Hotels: f.offers, Source: "fake"}, nil
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(ctx context.Context, text, source, target string) (*providers.Translation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if source == "" {
		source = "auto"
	}
	return &providers.Translation{TranslatedText: "[" + target + "] " + text, SourceLanguage: source, TargetLanguage: target}, nil
}

// quietProviders never produces alert-worthy data.
func quietProviders() *providers.Set {
	return &providers.Set{
		Weather:    &fakeWeather{},
		News:       &fakeNews{},
		Flights:    &fakeFlights{},
		Hotels:     &fakeHotels{},
		Translator: &fakeTranslator{},
	}
}

type fakeLLM struct {
	jsonFn func(schemaName, user string) (map[string]any, error)
	textFn func(system, user string) (string, error)
	calls  []string
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, schemaName)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.jsonFn == nil {
		return nil, fmt.Errorf("unexpected GenerateJSON %s", schemaName)
	}
	return f.jsonFn(schemaName, user)
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	f.calls = append(f.calls, "text")
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.textFn == nil {
		return "Happy travels!", nil
	}
	return f.textFn(system, user)
}
