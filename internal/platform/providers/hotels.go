package providers

import (
	"context"
	"strconv"
	"strings"

	"github.com/yungbote/travel-companion-backend/internal/platform/cache"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type HotelProvider interface {
	Search(ctx context.Context, c HotelCriteria) (*HotelSearchResult, error)
}

type HotelCriteria struct {
	Location string `json:"location"`
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Guests   int    `json:"guests,omitempty"`
	Rooms    int    `json:"rooms,omitempty"`
}

type HotelOffer struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city"`
	StarRating int      `json:"star_rating,omitempty"`
	Price      Price    `json:"price"`
	Amenities  []string `json:"amenities,omitempty"`
}

type HotelSearchResult struct {
	Hotels []HotelOffer `json:"hotels"`
	Source string       `json:"source"`
	Mock   bool         `json:"mock"`
}

type hotels struct {
	*base
}

func NewHotels(log *logger.Logger, cfg Config, c cache.Cache, apiKey, baseURL string) HotelProvider {
	return &hotels{base: newBase(log, "hotels", cfg, c, apiKey, baseURL)}
}

type hotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Rating   string `json:"rating"`
			Address  struct {
				Lines []string `json:"lines"`
			} `json:"address"`
			Amenities []string `json:"amenities"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

func (h *hotels) Search(ctx context.Context, c HotelCriteria) (*HotelSearchResult, error) {
	if c.Guests <= 0 {
		c.Guests = 1
	}
	if c.Rooms <= 0 {
		c.Rooms = 1
	}
	if !h.configured() {
		h.notConfigured()
		return mockHotels(c), nil
	}
	key := cacheKey("search", c.Location, c.CheckIn, c.CheckOut, strconv.Itoa(c.Guests), strconv.Itoa(c.Rooms))
	res, err := loadCached(ctx, h.base, key, func(ctx context.Context) (*HotelSearchResult, error) {
		var resp hotelOffersResponse
		err := h.getJSON(ctx, "/shopping/hotel-offers", map[string]string{
			"cityCode":     strings.ToUpper(c.Location),
			"checkInDate":  c.CheckIn,
			"checkOutDate": c.CheckOut,
			"adults":       strconv.Itoa(c.Guests),
			"roomQuantity": strconv.Itoa(c.Rooms),
		}, map[string]string{"Authorization": "Bearer " + h.apiKey}, &resp)
		if err != nil {
			return nil, err
		}
		out := &HotelSearchResult{Source: "hotels", Hotels: make([]HotelOffer, 0, len(resp.Data))}
		for _, d := range resp.Data {
			offer := HotelOffer{
				ID:        d.Hotel.HotelID,
				Name:      d.Hotel.Name,
				Address:   strings.Join(d.Hotel.Address.Lines, ", "),
				City:      d.Hotel.CityCode,
				Amenities: d.Hotel.Amenities,
			}
			offer.StarRating, _ = strconv.Atoi(d.Hotel.Rating)
			if len(d.Offers) > 0 {
				total, _ := strconv.ParseFloat(d.Offers[0].Price.Total, 64)
				offer.Price = Price{Total: total, Currency: d.Offers[0].Price.Currency}
			}
			out.Hotels = append(out.Hotels, offer)
		}
		return out, nil
	})
	if err != nil {
		if ok, ferr := h.fallback(ctx, err); !ok {
			return nil, ferr
		}
		return mockHotels(c), nil
	}
	return res, nil
}

func mockHotels(c HotelCriteria) *HotelSearchResult {
	loc := strings.TrimSpace(c.Location)
	return &HotelSearchResult{
		Source: "mock",
		Mock:   true,
		Hotels: []HotelOffer{
			{ID: "hotel_001", Name: "Grand " + loc + " Hotel", Address: "123 Main Street, " + loc, City: loc, StarRating: 4,
				Price: Price{Total: 180, Currency: "USD", PerNight: 180}, Amenities: []string{"wifi", "pool", "gym", "restaurant"}},
			{ID: "hotel_002", Name: loc + " Business Suites", Address: "456 Business Ave, " + loc, City: loc, StarRating: 3,
				Price: Price{Total: 120, Currency: "USD", PerNight: 120}, Amenities: []string{"wifi", "business center"}},
			{ID: "hotel_003", Name: "Budget Inn " + loc, Address: "789 Economy St, " + loc, City: loc, StarRating: 2,
				Price: Price{Total: 75, Currency: "USD", PerNight: 75}, Amenities: []string{"wifi", "parking"}},
		},
	}
}
