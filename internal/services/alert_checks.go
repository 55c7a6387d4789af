package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/alerts"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
)

const (
	checkinWindowStart   = 22 * time.Hour
	checkinWindowEnd     = 24 * time.Hour
	departureWindowStart = 2 * time.Hour
	departureWindowEnd   = 3 * time.Hour
	gateWatchWindow      = 6 * time.Hour
	forecastDays         = 5
	newsTitleMax         = 100
)

// checkOutcome is what one generator found. Gate updates are applied with the
// alerts so booking state and alert state move together.
type checkOutcome struct {
	candidates []AlertCandidate
	gates      map[uuid.UUID]string
}

type checkGenerator struct {
	name string
	run  func(ctx context.Context, userID string, active *types.Itinerary, now time.Time) (checkOutcome, error)
}

// Check runs every alert generator and feeds the results through dedup.
func (s *alertService) Check(ctx context.Context, userID string) (*CheckResult, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(ctx, "alerts.check")
	defer func() { observability.EndSpan(span, err) }()

	active, err := s.itins.GetActive(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	gens := []checkGenerator{
		{name: "flight", run: s.checkFlights},
		{name: "weather", run: s.checkWeather},
		{name: "news", run: s.checkNews},
		{name: "documents", run: s.checkDocuments},
	}
	outcomes := make([]checkOutcome, len(gens))
	var g errgroup.Group
	for i, gen := range gens {
		g.Go(func() error {
			gctx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
			defer cancel()
			out, err := gen.run(gctx, userID, active, now)
			if err != nil {
				// One failing source never blocks the others.
				s.log.Warn("alert generator failed", "generator", gen.name, "user_id", userID, "error", err)
				return nil
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	res := &CheckResult{Created: []*types.Alert{}}
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		for _, out := range outcomes {
			for id, gate := range out.gates {
				if err := s.bookings.UpdateGate(dbc, id, gate); err != nil {
					return err
				}
			}
			for _, c := range out.candidates {
				row, created, err := s.generateLocked(dbc, userID, c)
				if err != nil {
					return err
				}
				if created {
					res.Created = append(res.Created, row)
				}
			}
		}
		live, err := s.alerts.ListLive(dbc, userID)
		if err != nil {
			return err
		}
		res.Alerts = live
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Alerts == nil {
		res.Alerts = []*types.Alert{}
	}
	return res, nil
}

func (s *alertService) checkFlights(ctx context.Context, userID string, _ *types.Itinerary, now time.Time) (checkOutcome, error) {
	out := checkOutcome{gates: map[uuid.UUID]string{}}
	rows, err := s.bookings.ListFlightsDepartingBetween(dbctx.Context{Ctx: ctx}, userID, now, now.Add(checkinWindowEnd))
	if err != nil {
		return out, err
	}
	for _, b := range rows {
		if b.DepartureAt == nil {
			continue
		}
		until := b.DepartureAt.Sub(now)
		flight := b.FlightNumber
		if flight == "" {
			flight = "N/A"
		}
		bookingID := b.ID.String()
		switch {
		case until >= checkinWindowStart && until <= checkinWindowEnd:
			out.candidates = append(out.candidates, AlertCandidate{
				Type:           alerts.TypeFlightCheckinReminder,
				Title:          "Flight Check-in Available",
				Message:        fmt.Sprintf("Check-in is now available for your flight %s", flight),
				ActionRequired: true,
				Action:         "check_in",
				BookingID:      bookingID,
			})
		case until >= departureWindowStart && until <= departureWindowEnd:
			out.candidates = append(out.candidates, AlertCandidate{
				Type:      alerts.TypeDepartureReminder,
				Title:     "Upcoming Flight Departure",
				Message:   fmt.Sprintf("Your flight %s departs in approximately %.1f hours", flight, until.Hours()),
				BookingID: bookingID,
			})
		}
		if until > gateWatchWindow || b.FlightNumber == "" || s.providers == nil || s.providers.Flights == nil {
			continue
		}
		st, err := s.providers.Flights.Status(ctx, b.FlightNumber, b.DepartureAt.UTC().Format(itinerary.DateLayout))
		if err != nil {
			return out, err
		}
		reported := strings.TrimSpace(st.Gate)
		if reported == "" || reported == b.Gate {
			continue
		}
		if b.Gate != "" {
			out.candidates = append(out.candidates, AlertCandidate{
				Type:           alerts.TypeGateChange,
				Title:          "Gate Change Alert",
				Message:        fmt.Sprintf("Gate change for flight %s. New gate: %s", flight, reported),
				ActionRequired: true,
				Action:         "review_gate",
				BookingID:      bookingID,
			})
		}
		out.gates[b.ID] = reported
	}
	return out, nil
}

func (s *alertService) checkWeather(ctx context.Context, _ string, active *types.Itinerary, _ time.Time) (checkOutcome, error) {
	var out checkOutcome
	if active == nil || strings.TrimSpace(active.Destination) == "" || s.providers == nil || s.providers.Weather == nil {
		return out, nil
	}
	location := active.Destination
	fc, err := s.providers.Weather.Forecast(ctx, location, forecastDays)
	if err != nil {
		return out, err
	}
	for _, day := range fc.Days {
		conditions := day.AllConditions()
		alertType, ok := s.policy.WeatherAlertType(conditions)
		if !ok {
			continue
		}
		c := AlertCandidate{Type: alertType, Location: location, Date: day.Date}
		if alertType == alerts.TypeSevereWeather {
			c.Title = "Severe Weather Alert - " + location
			c.Message = fmt.Sprintf("Severe weather expected in %s on %s: %s", location, day.Date, conditions)
			c.ActionRequired = true
			c.Action = "review_plans"
		} else {
			c.Title = "Weather Advisory - " + location
			c.Message = fmt.Sprintf("Weather conditions may affect travel in %s on %s: %s", location, day.Date, conditions)
		}
		out.candidates = append(out.candidates, c)
	}
	return out, nil
}

// destinationCountry takes the last comma-separated part of a destination.
func destinationCountry(destination string) string {
	parts := strings.Split(destination, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

func (s *alertService) checkNews(ctx context.Context, _ string, active *types.Itinerary, _ time.Time) (checkOutcome, error) {
	var out checkOutcome
	if active == nil || strings.TrimSpace(active.Destination) == "" || s.providers == nil || s.providers.News == nil {
		return out, nil
	}
	country := destinationCountry(active.Destination)
	res, err := s.providers.News.TravelNews(ctx, country)
	if err != nil {
		return out, err
	}
	articles := res.Articles
	if max := s.policy.News.MaxArticles; max > 0 && len(articles) > max {
		articles = articles[:max]
	}
	for _, a := range articles {
		if !s.policy.MatchesNewsKeyword(a.Title, a.Description) {
			continue
		}
		headline := a.Title
		if r := []rune(headline); len(r) > newsTitleMax {
			headline = string(r[:newsTitleMax]) + "..."
		}
		source := a.Source
		if source == "" {
			source = "Unknown"
		}
		out.candidates = append(out.candidates, AlertCandidate{
			Type:           alerts.TypeTravelAdvisory,
			Title:          "Travel Advisory - " + country,
			Message:        fmt.Sprintf("Travel news for %s: %s", country, headline),
			ActionRequired: true,
			Action:         "read_advisory",
			Location:       active.Destination,
			Correlation:    newsCorrelation(a),
			URL:            a.URL,
			Source:         source,
		})
	}
	return out, nil
}

// newsCorrelation keys an article by URL, else by a digest of its headline.
func newsCorrelation(a providers.NewsArticle) string {
	if u := strings.TrimSpace(a.URL); u != "" {
		return "news:" + u
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(a.Title))))
	return "news:" + hex.EncodeToString(sum[:8])
}

func (s *alertService) checkDocuments(ctx context.Context, userID string, _ *types.Itinerary, now time.Time) (checkOutcome, error) {
	var out checkOutcome
	rows, err := s.documents.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return out, err
	}
	keyword := strings.ToLower(s.policy.Documents.PassportKeyword)
	window := time.Duration(s.policy.Documents.ExpiryWindowDays) * 24 * time.Hour
	for _, d := range rows {
		if d.DocumentType != documents.TypeIdentification || !strings.Contains(strings.ToLower(d.Filename), keyword) {
			continue
		}
		msg := "Your passport may expire soon. Please verify the expiry date and renew if necessary."
		if d.Scanned {
			expiry, ok := latestDate(d.ExtractedText)
			if !ok || expiry.After(now.Add(window)) {
				continue
			}
			msg = fmt.Sprintf("Your passport expires on %s. Please renew it if necessary.", expiry.Format(itinerary.DateLayout))
		}
		out.candidates = append(out.candidates, AlertCandidate{
			Type:           alerts.TypeDocumentExpiry,
			Title:          "Passport Expiry Warning",
			Message:        msg,
			ActionRequired: true,
			Action:         "verify_document",
			Correlation:    "document:" + d.Key,
		})
	}
	return out, nil
}

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{2})[./](\d{2})[./](\d{4})\b`)
	textDateRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{4})\b`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// latestDate returns the latest calendar date printed in text. On identity
// documents the expiry is the latest printed date.
func latestDate(text string) (time.Time, bool) {
	var found []time.Time
	add := func(y, m, d int) {
		if m < 1 || m > 12 || d < 1 || d > 31 {
			return
		}
		t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		if t.Day() == d {
			found = append(found, t)
		}
	}
	for _, m := range isoDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	for _, m := range numericDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	}
	for _, m := range textDateRe.FindAllStringSubmatch(text, -1) {
		add(atoi(m[3]), int(monthAbbrev[strings.ToLower(m[2])]), atoi(m[1]))
	}
	if len(found) == 0 {
		return time.Time{}, false
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Before(found[j]) })
	return found[len(found)-1], true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
