package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/booking"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
)

const recentSearchesKeep = 10

type BookingService interface {
	Search(ctx context.Context, userID string, in BookingSearchInput) (*BookingSearchResult, error)
	SearchFlights(ctx context.Context, userID string, c providers.FlightCriteria) (*BookingSearchResult, error)
	SearchHotels(ctx context.Context, userID string, c providers.HotelCriteria) (*BookingSearchResult, error)
	Record(ctx context.Context, userID string, in BookingInput) (*types.Booking, error)
	List(ctx context.Context, userID string) (*BookingList, error)
}

type BookingSearchInput struct {
	BookingType string         `json:"booking_type"`
	Details     map[string]any `json:"booking_details"`
}

type BookingSearchResult struct {
	Message  string                  `json:"message"`
	Flights  []providers.FlightOffer `json:"flights,omitempty"`
	Hotels   []providers.HotelOffer  `json:"hotels,omitempty"`
	SearchID uuid.UUID               `json:"search_id"`
	Source   string                  `json:"source"`
	Mock     bool                    `json:"mock"`
}

// BookingInput records a reservation made elsewhere.
type BookingInput struct {
	BookingRef   string         `json:"booking_ref"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	FlightNumber string         `json:"flight_number"`
	Gate         string         `json:"gate"`
	DepartureAt  string         `json:"departure_at"`
	Details      map[string]any `json:"details"`
}

type BookingList struct {
	Bookings       []*types.Booking      `json:"bookings"`
	RecentSearches []*types.SearchRecord `json:"recent_searches"`
}

type bookingService struct {
	db       *gorm.DB
	log      *logger.Logger
	bookings repos.BookingRepo
	searches repos.SearchRecordRepo
	flights  providers.FlightProvider
	hotels   providers.HotelProvider
}

func NewBookingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	bookingRepo repos.BookingRepo,
	searchRepo repos.SearchRecordRepo,
	flights providers.FlightProvider,
	hotels providers.HotelProvider,
) BookingService {
	return &bookingService{
		db:       db,
		log:      baseLog.With("service", "BookingService"),
		bookings: bookingRepo,
		searches: searchRepo,
		flights:  flights,
		hotels:   hotels,
	}
}

// remarshal converts between loosely typed maps and structs through JSON.
func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func decodeDetails(details map[string]any, out any) error {
	if err := remarshal(details, out); err != nil {
		return validationf("booking_details: %v", err)
	}
	return nil
}

func (s *bookingService) Search(ctx context.Context, userID string, in BookingSearchInput) (*BookingSearchResult, error) {
	if in.Details == nil {
		return nil, validationf("booking_details is required")
	}
	switch strings.TrimSpace(in.BookingType) {
	case booking.TypeFlight:
		var c providers.FlightCriteria
		if err := decodeDetails(in.Details, &c); err != nil {
			return nil, err
		}
		return s.SearchFlights(ctx, userID, c)
	case booking.TypeHotel:
		var c providers.HotelCriteria
		if err := decodeDetails(in.Details, &c); err != nil {
			return nil, err
		}
		return s.SearchHotels(ctx, userID, c)
	default:
		return nil, validationf("booking_type must be flight or hotel")
	}
}

func (s *bookingService) SearchFlights(ctx context.Context, userID string, c providers.FlightCriteria) (*BookingSearchResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	c.Origin = strings.ToUpper(strings.TrimSpace(c.Origin))
	c.Destination = strings.ToUpper(strings.TrimSpace(c.Destination))
	c.DepartureDate = strings.TrimSpace(c.DepartureDate)
	if c.Origin == "" || c.Destination == "" || c.DepartureDate == "" {
		return nil, validationf("origin, destination and departure_date are required")
	}
	if _, err := itinerary.ParseDate(c.DepartureDate); err != nil {
		return nil, validationf("departure_date must be YYYY-MM-DD")
	}
	if c.Passengers <= 0 {
		c.Passengers = 1
	}
	res, err := s.flights.Search(ctx, c)
	if err != nil {
		return nil, err
	}
	out := &BookingSearchResult{Flights: res.Flights, Source: res.Source, Mock: res.Mock}
	out.Message = fmt.Sprintf("Found %d flights from %s to %s", len(res.Flights), c.Origin, c.Destination)
	criteria := map[string]any{}
	_ = remarshal(c, &criteria)
	out.SearchID, err = s.record(ctx, userID, booking.TypeFlight, criteria, len(res.Flights), res.Mock)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *bookingService) SearchHotels(ctx context.Context, userID string, c providers.HotelCriteria) (*BookingSearchResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	c.Location = strings.TrimSpace(c.Location)
	if c.Location == "" || strings.TrimSpace(c.CheckIn) == "" || strings.TrimSpace(c.CheckOut) == "" {
		return nil, validationf("location, check_in and check_out are required")
	}
	in, err := itinerary.ParseDate(c.CheckIn)
	if err != nil {
		return nil, validationf("check_in must be YYYY-MM-DD")
	}
	outDate, err := itinerary.ParseDate(c.CheckOut)
	if err != nil {
		return nil, validationf("check_out must be YYYY-MM-DD")
	}
	if !outDate.After(in) {
		return nil, validationf("check_out must be after check_in")
	}
	if c.Guests <= 0 {
		c.Guests = 1
	}
	if c.Rooms <= 0 {
		c.Rooms = 1
	}
	res, err := s.hotels.Search(ctx, c)
	if err != nil {
		return nil, err
	}
	out := &BookingSearchResult{Hotels: res.Hotels, Source: res.Source, Mock: res.Mock}
	out.Message = fmt.Sprintf("Found %d hotels in %s", len(res.Hotels), c.Location)
	criteria := map[string]any{}
	_ = remarshal(c, &criteria)
	out.SearchID, err = s.record(ctx, userID, booking.TypeHotel, criteria, len(res.Hotels), res.Mock)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// record stores the search and trims the user's history to the newest ten.
func (s *bookingService) record(ctx context.Context, userID, searchType string, criteria map[string]any, n int, mock bool) (uuid.UUID, error) {
	row := &types.SearchRecord{
		ID:          uuid.New(),
		UserID:      userID,
		SearchType:  searchType,
		Criteria:    datatypes.JSONMap(criteria),
		ResultCount: n,
		Mock:        mock,
	}
	err := inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if err := s.searches.Create(dbc, row); err != nil {
			return err
		}
		_, err := s.searches.PruneOld(dbc, userID, recentSearchesKeep)
		return err
	})
	return row.ID, err
}

func (s *bookingService) Record(ctx context.Context, userID string, in BookingInput) (*types.Booking, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	typ := strings.TrimSpace(in.Type)
	switch typ {
	case booking.TypeFlight, booking.TypeHotel, booking.TypeCarRental:
	default:
		return nil, validationf("type must be flight, hotel or car_rental")
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = booking.StatusConfirmed
	}
	if status != booking.StatusConfirmed && status != booking.StatusCancelled {
		return nil, validationf("status must be confirmed or cancelled")
	}
	row := &types.Booking{
		ID:           uuid.New(),
		UserID:       userID,
		BookingRef:   strings.TrimSpace(in.BookingRef),
		Type:         typ,
		Status:       status,
		FlightNumber: strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.FlightNumber), " ", "")),
		Gate:         strings.TrimSpace(in.Gate),
		Details:      datatypes.JSONMap(in.Details),
	}
	if raw := strings.TrimSpace(in.DepartureAt); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, validationf("departure_at must be RFC3339")
		}
		t = t.UTC()
		row.DepartureAt = &t
	}
	if typ == booking.TypeFlight && (row.FlightNumber == "" || row.DepartureAt == nil) {
		return nil, validationf("flight bookings need flight_number and departure_at")
	}
	if err := s.bookings.Create(dbctx.Context{Ctx: ctx}, row); err != nil {
		return nil, err
	}
	s.log.Info("Booking recorded", "user_id", userID, "type", typ)
	return row, nil
}

func (s *bookingService) List(ctx context.Context, userID string) (*BookingList, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := s.bookings.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.searches.ListRecent(dbc, userID, recentSearchesKeep)
	if err != nil {
		return nil, err
	}
	out := &BookingList{Bookings: rows, RecentSearches: recent}
	if out.Bookings == nil {
		out.Bookings = []*types.Booking{}
	}
	if out.RecentSearches == nil {
		out.RecentSearches = []*types.SearchRecord{}
	}
	return out, nil
}
