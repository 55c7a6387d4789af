package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

var testCfg = Config{Timeout: 2 * time.Second, CacheTTL: time.Minute, MaxRetries: 0}

func TestWeatherForecastGroupsByDayAndCaches(t *testing.T) {
	var calls int32
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC).Unix()
	day1b := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC).Unix()
	day2 := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/forecast" || r.URL.Query().Get("appid") != "k" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"city":{"name":"Paris","country":"FR"},"list":[
			{"dt":%d,"main":{"temp_min":12,"temp_max":18,"humidity":60},"weather":[{"description":"light rain"}],"wind":{"speed":3},"rain":{"3h":1.5}},
			{"dt":%d,"main":{"temp_min":10,"temp_max":21,"humidity":55},"weather":[{"description":"thunderstorm"}],"wind":{"speed":9}},
			{"dt":%d,"main":{"temp_min":11,"temp_max":19,"humidity":50},"weather":[{"description":"clear sky"}],"wind":{"speed":2}}
		]}`, day1, day1b, day2)
	}))
	defer srv.Close()

	w := NewWeather(logger.Nop(), testCfg, cache.NewMemory(16), "k", srv.URL)
	f, err := w.Forecast(context.Background(), "Paris", 2)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if f.Mock || len(f.Days) != 2 {
		t.Fatalf("forecast: want 2 live days got mock=%v days=%d", f.Mock, len(f.Days))
	}
	d := f.Days[0]
	if d.Date != "2025-06-01" || d.TempMin != 10 || d.TempMax != 21 || d.Precipitation != 1.5 {
		t.Fatalf("day1 aggregate: %+v", d)
	}
	if got := d.AllConditions(); got != "light rain, thunderstorm" {
		t.Fatalf("conditions: want=%q got=%q", "light rain, thunderstorm", got)
	}

	if _, err := w.Forecast(context.Background(), "paris ", 2); err != nil {
		t.Fatalf("Forecast cached: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream calls: want=1 got=%d", n)
	}
}

func TestWeatherWithoutKeyServesStableMock(t *testing.T) {
	w := NewWeather(logger.Nop(), testCfg, nil, "", "http://unused")
	a, err := w.Forecast(context.Background(), "Lisbon", 3)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	b, _ := w.Forecast(context.Background(), "Lisbon", 3)
	if !a.Mock || len(a.Days) != 3 {
		t.Fatalf("mock forecast: mock=%v days=%d", a.Mock, len(a.Days))
	}
	for i := range a.Days {
		if a.Days[i].Description != b.Days[i].Description {
			t.Fatalf("mock should be deterministic: %q vs %q", a.Days[i].Description, b.Days[i].Description)
		}
	}
}

func TestWeatherUpstreamFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	w := NewWeather(logger.Nop(), testCfg, nil, "k", srv.URL)
	f, err := w.Forecast(context.Background(), "Rome", 1)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	if !f.Mock {
		t.Fatalf("expected mock fallback")
	}
}

func TestCanceledCallerIsNotMasked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n := NewNews(logger.Nop(), testCfg, nil, "k", srv.URL)
	if _, err := n.TravelNews(ctx, "Tokyo"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}

func TestNewsParsesArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k" {
			t.Errorf("missing api key header")
		}
		fmt.Fprint(w, `{"status":"ok","articles":[{"title":"Embassy issues security alert","description":"d","url":"https://n/1","publishedAt":"2025-06-01T00:00:00Z","source":{"name":"Wire"}}]}`)
	}))
	defer srv.Close()
	n := NewNews(logger.Nop(), testCfg, nil, "k", srv.URL)
	res, err := n.TravelNews(context.Background(), "France")
	if err != nil {
		t.Fatalf("TravelNews: %v", err)
	}
	if len(res.Articles) != 1 || res.Articles[0].Source != "Wire" || res.Mock {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestFlightStatusParsesGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("flight_iata"); got != "AF123" {
			t.Errorf("flight_iata: want=AF123 got=%s", got)
		}
		fmt.Fprint(w, `{"data":[{"flight_status":"scheduled","departure":{"gate":"K42","terminal":"2E","delay":15,"scheduled":"2025-06-01T10:00:00+00:00"},"flight":{"iata":"AF123"}}]}`)
	}))
	defer srv.Close()
	f := NewFlights(logger.Nop(), testCfg, nil, "k", srv.URL)
	st, err := f.Status(context.Background(), "af 123", "2025-06-01")
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Gate != "K42" || st.DelayMinutes != 15 || st.Mock {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestFlightSearchMockWithoutKey(t *testing.T) {
	f := NewFlights(logger.Nop(), testCfg, nil, "", "")
	res, err := f.Search(context.Background(), FlightCriteria{Origin: "jfk", Destination: "cdg", DepartureDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Mock || len(res.Flights) != 3 || res.Flights[0].Origin != "JFK" {
		t.Fatalf("unexpected mock flights: %+v", res)
	}
}

func TestHotelSearchParsesOffers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer")
		}
		fmt.Fprint(w, `{"data":[{"hotel":{"hotelId":"H1","name":"Le Petit","cityCode":"PAR","rating":"4","address":{"lines":["1 Rue"]}},"offers":[{"price":{"total":"210.50","currency":"EUR"}}]}]}`)
	}))
	defer srv.Close()
	h := NewHotels(logger.Nop(), testCfg, nil, "k", srv.URL)
	res, err := h.Search(context.Background(), HotelCriteria{Location: "par", CheckIn: "2025-06-01", CheckOut: "2025-06-03"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hotels) != 1 || res.Hotels[0].Price.Total != 210.5 || res.Hotels[0].StarRating != 4 {
		t.Fatalf("unexpected hotels: %+v", res.Hotels)
	}
}

type fakeLLM struct {
	obj map[string]any
	err error
}

func (f *fakeLLM) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	return f.obj, f.err
}

func (f *fakeLLM) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", f.err
}

func TestTranslatorUsesModel(t *testing.T) {
	tr := NewTranslator(logger.Nop(), &fakeLLM{obj: map[string]any{"translated_text": "Bonjour", "detected_source_language": "en"}})
	res, err := tr.Translate(context.Background(), "Hello", "", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.TranslatedText != "Bonjour" || res.SourceLanguage != "en" || res.Mock {
		t.Fatalf("unexpected translation: %+v", res)
	}
}

func TestTranslatorEchoesOnFailure(t *testing.T) {
	tr := NewTranslator(logger.Nop(), &fakeLLM{err: fmt.Errorf("%w: timeout", domainerrs.ErrCollaboratorUnavailable)})
	res, err := tr.Translate(context.Background(), "Hello", "en", "fr")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.TranslatedText != "Hello" || !res.Mock {
		t.Fatalf("want echo got %+v", res)
	}
	if _, err := tr.Translate(context.Background(), "", "en", "fr"); !errors.Is(err, domainerrs.ErrValidation) {
		t.Fatalf("empty text: want ErrValidation got=%v", err)
	}
}
