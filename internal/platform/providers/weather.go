package providers

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type WeatherProvider interface {
	Forecast(ctx context.Context, location string, days int) (*Forecast, error)
}

type Forecast struct {
	Location string        `json:"location"`
	Country  string        `json:"country,omitempty"`
	Days     []ForecastDay `json:"forecast"`
	Source   string        `json:"source"`
	Mock     bool          `json:"mock"`
}

type ForecastDay struct {
	Date          string   `json:"date"`
	Description   string   `json:"description"`
	Conditions    []string `json:"conditions,omitempty"`
	TempMin       float64  `json:"temp_min"`
	TempMax       float64  `json:"temp_max"`
	Humidity      int      `json:"humidity"`
	WindSpeed     float64  `json:"wind_speed"`
	Precipitation float64  `json:"precipitation"`
}

// AllConditions joins every condition reported for the day.
func (d ForecastDay) AllConditions() string {
	if len(d.Conditions) == 0 {
		return d.Description
	}
	return strings.Join(d.Conditions, ", ")
}

type weather struct {
	*base
	now func() time.Time
}

func NewWeather(log *logger.Logger, cfg Config, c cache.Cache, apiKey, baseURL string) WeatherProvider {
	return &weather{base: newBase(log, "openweathermap", cfg, c, apiKey, baseURL), now: time.Now}
}

func (w *weather) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	if days <= 0 {
		days = 5
	}
	if days > 5 {
		days = 5
	}
	if !w.configured() {
		w.notConfigured()
		return w.mock(location, days), nil
	}
	f, err := loadCached(ctx, w.base, cacheKey("forecast", location, strconv.Itoa(days)), func(ctx context.Context) (*Forecast, error) {
		return w.fetch(ctx, location, days)
	})
	if err != nil {
		if ok, ferr := w.fallback(ctx, err); !ok {
			return nil, ferr
		}
		return w.mock(location, days), nil
	}
	return f, nil
}

type owmForecastResponse struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp     float64 `json:"temp"`
			TempMin  float64 `json:"temp_min"`
			TempMax  float64 `json:"temp_max"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Rain map[string]float64 `json:"rain"`
		Snow map[string]float64 `json:"snow"`
	} `json:"list"`
}

func (w *weather) fetch(ctx context.Context, location string, days int) (*Forecast, error) {
	var resp owmForecastResponse
	err := w.getJSON(ctx, "/forecast", map[string]string{
		"q":     location,
		"appid": w.apiKey,
		"units": "metric",
		"cnt":   strconv.Itoa(days * 8),
	}, nil, &resp)
	if err != nil {
		return nil, err
	}

	byDate := map[string]*ForecastDay{}
	seen := map[string]map[string]bool{}
	order := make([]string, 0, days)
	for _, item := range resp.List {
		date := time.Unix(item.Dt, 0).UTC().Format("2006-01-02")
		d := byDate[date]
		if d == nil {
			d = &ForecastDay{Date: date, TempMin: item.Main.TempMin, TempMax: item.Main.TempMax, Humidity: item.Main.Humidity, WindSpeed: item.Wind.Speed}
			byDate[date] = d
			seen[date] = map[string]bool{}
			order = append(order, date)
		}
		d.TempMin = math.Min(d.TempMin, item.Main.TempMin)
		d.TempMax = math.Max(d.TempMax, item.Main.TempMax)
		d.WindSpeed = math.Max(d.WindSpeed, item.Wind.Speed)
		d.Precipitation += item.Rain["3h"] + item.Snow["3h"]
		for _, wd := range item.Weather {
			desc := strings.TrimSpace(wd.Description)
			if desc == "" || seen[date][desc] {
				continue
			}
			seen[date][desc] = true
			if d.Description == "" {
				d.Description = desc
			}
			d.Conditions = append(d.Conditions, desc)
		}
	}
	sort.Strings(order)
	out := &Forecast{Location: resp.City.Name, Country: resp.City.Country, Source: "openweathermap"}
	if out.Location == "" {
		out.Location = location
	}
	for _, date := range order {
		if len(out.Days) == days {
			break
		}
		out.Days = append(out.Days, *byDate[date])
	}
	return out, nil
}

var mockConditions = []string{"clear sky", "few clouds", "scattered clouds", "light rain", "overcast clouds"}

// mock never reports severe conditions so it cannot raise alerts on its own.
func (w *weather) mock(location string, days int) *Forecast {
	start := w.now().UTC()
	out := &Forecast{Location: location, Country: "Unknown", Source: "mock", Mock: true}
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		s := seed(location, date)
		desc := mockConditions[s%uint32(len(mockConditions))]
		low := 10 + float64(s%12)
		out.Days = append(out.Days, ForecastDay{
			Date:        date,
			Description: desc,
			Conditions:  []string{desc},
			TempMin:     low,
			TempMax:     low + 6 + float64(s%5),
			Humidity:    40 + int(s%45),
			WindSpeed:   float64(5 + s%15),
		})
	}
	return out
}
