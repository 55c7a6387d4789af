package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type FlightProvider interface {
	Search(ctx context.Context, c FlightCriteria) (*FlightSearchResult, error)
	Status(ctx context.Context, flightNumber, date string) (*FlightStatus, error)
}

type FlightCriteria struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Passengers    int    `json:"passengers,omitempty"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

type FlightOffer struct {
	ID            string `json:"id"`
	Airline       string `json:"airline"`
	FlightNumber  string `json:"flight_number"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
	Duration      string `json:"duration,omitempty"`
	Stops         int    `json:"stops"`
	Price         Price  `json:"price"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

type FlightSearchResult struct {
	Flights []FlightOffer `json:"flights"`
	Source  string        `json:"source"`
	Mock    bool          `json:"mock"`
}

type FlightStatus struct {
	FlightNumber  string `json:"flight_number"`
	Status        string `json:"status"`
	Gate          string `json:"gate,omitempty"`
	Terminal      string `json:"terminal,omitempty"`
	DepartureTime string `json:"departure_time,omitempty"`
	DelayMinutes  int    `json:"delay_minutes"`
	Mock          bool   `json:"mock"`
}

type flights struct {
	*base
}

func NewFlights(log *logger.Logger, cfg Config, c cache.Cache, apiKey, baseURL string) FlightProvider {
	return &flights{base: newBase(log, "aviationstack", cfg, c, apiKey, baseURL)}
}

type aviationstackResponse struct {
	Data []struct {
		FlightDate   string `json:"flight_date"`
		FlightStatus string `json:"flight_status"`
		Departure    struct {
			IATA      string `json:"iata"`
			Gate      string `json:"gate"`
			Terminal  string `json:"terminal"`
			Delay     *int   `json:"delay"`
			Scheduled string `json:"scheduled"`
		} `json:"departure"`
		Arrival struct {
			IATA      string `json:"iata"`
			Scheduled string `json:"scheduled"`
		} `json:"arrival"`
		Airline struct {
			IATA string `json:"iata"`
			Name string `json:"name"`
		} `json:"airline"`
		Flight struct {
			IATA string `json:"iata"`
		} `json:"flight"`
	} `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *flights) query(ctx context.Context, params map[string]string) (*aviationstackResponse, error) {
	params["access_key"] = f.apiKey
	var resp aviationstackResponse
	if err := f.getJSON(ctx, "/flights", params, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("aviationstack: %s: %s", resp.Error.Code, resp.Error.Message)
	}
	return &resp, nil
}

func (f *flights) Search(ctx context.Context, c FlightCriteria) (*FlightSearchResult, error) {
	if !f.configured() {
		f.notConfigured()
		return mockFlights(c), nil
	}
	res, err := loadCached(ctx, f.base, cacheKey("search", c.Origin, c.Destination, c.DepartureDate), func(ctx context.Context) (*FlightSearchResult, error) {
		resp, err := f.query(ctx, map[string]string{
			"dep_iata":    strings.ToUpper(c.Origin),
			"arr_iata":    strings.ToUpper(c.Destination),
			"flight_date": c.DepartureDate,
		})
		if err != nil {
			return nil, err
		}
		out := &FlightSearchResult{Source: "aviationstack", Flights: make([]FlightOffer, 0, len(resp.Data))}
		for _, d := range resp.Data {
			out.Flights = append(out.Flights, FlightOffer{
				ID:            d.Flight.IATA + "-" + d.FlightDate,
				Airline:       d.Airline.IATA,
				FlightNumber:  d.Flight.IATA,
				Origin:        d.Departure.IATA,
				Destination:   d.Arrival.IATA,
				DepartureTime: d.Departure.Scheduled,
				ArrivalTime:   d.Arrival.Scheduled,
				Price:         Price{Currency: "USD"},
				CabinClass:    c.CabinClass,
			})
		}
		return out, nil
	})
	if err != nil {
		if ok, ferr := f.fallback(ctx, err); !ok {
			return nil, ferr
		}
		return mockFlights(c), nil
	}
	return res, nil
}

// Status is not cached: gate assignments change close to departure.
func (f *flights) Status(ctx context.Context, flightNumber, date string) (*FlightStatus, error) {
	flightNumber = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(flightNumber), " ", ""))
	if !f.configured() {
		f.notConfigured()
		return mockFlightStatus(flightNumber, date), nil
	}
	params := map[string]string{"flight_iata": flightNumber}
	if date != "" {
		params["flight_date"] = date
	}
	resp, err := f.query(ctx, params)
	if err == nil && len(resp.Data) == 0 {
		err = fmt.Errorf("aviationstack: flight %s not found", flightNumber)
	}
	if err != nil {
		if ok, ferr := f.fallback(ctx, err); !ok {
			return nil, ferr
		}
		return mockFlightStatus(flightNumber, date), nil
	}
	d := resp.Data[0]
	st := &FlightStatus{
		FlightNumber:  flightNumber,
		Status:        d.FlightStatus,
		Gate:          d.Departure.Gate,
		Terminal:      d.Departure.Terminal,
		DepartureTime: d.Departure.Scheduled,
	}
	if d.Departure.Delay != nil {
		st.DelayMinutes = *d.Departure.Delay
	}
	return st, nil
}

func mockFlights(c FlightCriteria) *FlightSearchResult {
	date := c.DepartureDate
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	origin := strings.ToUpper(c.Origin)
	dest := strings.ToUpper(c.Destination)
	mk := func(id, airline, num, dep, arr, dur string, stops int, total float64) FlightOffer {
		return FlightOffer{
			ID:            id,
			Airline:       airline,
			FlightNumber:  airline + num,
			Origin:        origin,
			Destination:   dest,
			DepartureTime: date + "T" + dep,
			ArrivalTime:   date + "T" + arr,
			Duration:      dur,
			Stops:         stops,
			Price:         Price{Total: total, Currency: "USD"},
			CabinClass:    "economy",
		}
	}
	return &FlightSearchResult{
		Source: "mock",
		Mock:   true,
		Flights: []FlightOffer{
			mk("mock_flight_001", "AA", "123", "08:00:00", "11:30:00", "PT5H30M", 0, 299.99),
			mk("mock_flight_002", "DL", "456", "14:30:00", "18:15:00", "PT5H45M", 1, 279.99),
			mk("mock_flight_003", "UA", "789", "19:45:00", "23:20:00", "PT5H35M", 0, 349.99),
		},
	}
}

// mockFlightStatus is stable per flight and date so it never reports a gate change.
func mockFlightStatus(flightNumber, date string) *FlightStatus {
	s := seed(flightNumber, date)
	return &FlightStatus{
		FlightNumber: flightNumber,
		Status:       "scheduled",
		Gate:         fmt.Sprintf("%c%d", 'A'+rune(s%6), 1+s%40),
		Terminal:     fmt.Sprintf("%d", 1+s%4),
		Mock:         true,
	}
}
