package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/alerts"
	"github.com/yungbote/travel-companion-backend/internal/domain/documents"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type alertFixture struct {
	db        *gorm.DB
	svc       *alertService
	providers *providers.Set
	now       time.Time
}

func newAlertFixture(t *testing.T) alertFixture {
	t.Helper()
	db := newTestDB(t)
	log := testutil.Logger(t)
	set := quietProviders()
	svc := NewAlertService(
		db, log,
		repos.NewAlertRepo(db, log),
		repos.NewItineraryRepo(db, log),
		repos.NewBookingRepo(db, log),
		repos.NewDocumentRepo(db, log),
		set, testLocker(), MustLoadPolicy(),
		AlertConfig{ProviderTimeout: time.Second},
	).(*alertService)
	now := time.Now().UTC().Truncate(time.Second)
	svc.now = fixedClock(now)
	return alertFixture{db: db, svc: svc, providers: set, now: now}
}

func seedActiveItinerary(t *testing.T, db *gorm.DB, userID, destination string) *types.Itinerary {
	t.Helper()
	it := &types.Itinerary{
		UserID:       userID,
		Title:        "Trip to " + destination,
		Destination:  destination,
		StartDate:    "2026-06-01",
		EndDate:      "2026-06-03",
		DurationDays: 3,
		Travelers:    1,
		Status:       types.ItineraryStatusDraft,
	}
	if err := repos.NewItineraryRepo(db, testutil.Logger(t)).Create(dbctx.Context{Ctx: context.Background()}, it); err != nil {
		t.Fatalf("seed itinerary: %v", err)
	}
	return it
}

func TestAlertGenerateDeduplicatesUntilDismissed(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	c := AlertCandidate{Type: alerts.TypeGateChange, Title: "Gate Change Alert", BookingID: "b-1", Priority: 1}

	first, created, err := f.svc.Generate(ctx, "u1", c)
	if err != nil || !created {
		t.Fatalf("first Generate: created=%v err=%v", created, err)
	}
	if first.Priority != 4 {
		t.Fatalf("policy priority: want=4 got=%d", first.Priority)
	}
	again, created, err := f.svc.Generate(ctx, "u1", c)
	if err != nil || created || again.ID != first.ID {
		t.Fatalf("duplicate Generate: created=%v id=%v err=%v", created, again.ID, err)
	}

	if err := f.svc.Dismiss(ctx, "u1", first.ID.String()); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	live, _ := f.svc.List(ctx, "u1")
	if len(live) != 0 {
		t.Fatalf("dismissed alert still listed: %d", len(live))
	}
	_, created, err = f.svc.Generate(ctx, "u1", c)
	if err != nil || !created {
		t.Fatalf("Generate after dismiss: created=%v err=%v", created, err)
	}
}

func TestAlertGenerateRejectsUnknownType(t *testing.T) {
	f := newAlertFixture(t)
	_, _, err := f.svc.Generate(context.Background(), "u1", AlertCandidate{Type: "meteor", Title: "x"})
	if !errors.Is(err, domainerrs.ErrValidation) {
		t.Fatalf("want=ErrValidation got=%v", err)
	}
}

func TestAlertDedupKey(t *testing.T) {
	cases := []struct {
		c    AlertCandidate
		want string
	}{
		{AlertCandidate{BookingID: "b1", Date: "2026-01-01", Title: "t"}, "booking:b1"},
		{AlertCandidate{Date: "2026-01-01", Title: "t"}, "date:2026-01-01"},
		{AlertCandidate{Correlation: "document:k", BookingID: "b1"}, "document:k"},
	}
	for _, tc := range cases {
		if got := DedupKey(tc.c); got != tc.want {
			t.Fatalf("DedupKey(%+v): want=%s got=%s", tc.c, tc.want, got)
		}
	}
	if DedupKey(AlertCandidate{Title: "Hello"}) != DedupKey(AlertCandidate{Title: " hello "}) {
		t.Fatalf("title digest should ignore case and padding")
	}
}

func TestAlertCreateCustom(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()

	high := 9
	a, err := f.svc.CreateCustom(ctx, "u1", CustomAlertInput{Message: "Pack umbrella", Priority: &high, TriggerDate: "2026-06-02"})
	if err != nil {
		t.Fatalf("CreateCustom: %v", err)
	}
	if a.Priority != 5 || a.Title != "Custom Alert" || !a.UserCreated || a.Type != alerts.TypeCustom {
		t.Fatalf("custom alert: %+v", a)
	}
	if a.TriggerDate == nil || a.Date != "2026-06-02" {
		t.Fatalf("trigger date: %+v", a.TriggerDate)
	}

	low := -3
	b, err := f.svc.CreateCustom(ctx, "u1", CustomAlertInput{Title: "Call bank", Priority: &low})
	if err != nil {
		t.Fatalf("CreateCustom low: %v", err)
	}
	if b.Priority != 1 {
		t.Fatalf("clamped priority: want=1 got=%d", b.Priority)
	}

	if _, err := f.svc.CreateCustom(ctx, "u1", CustomAlertInput{TriggerDate: "next tuesday"}); !errors.Is(err, domainerrs.ErrValidation) {
		t.Fatalf("bad trigger date: want=ErrValidation got=%v", err)
	}
}

func TestAlertDismissOwnership(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	a, _, err := f.svc.Generate(ctx, "u1", AlertCandidate{Type: alerts.TypeSecurity, Title: "Check locks"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := f.svc.Dismiss(ctx, "u2", a.ID.String()); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("foreign dismiss: want=ErrNotFound got=%v", err)
	}
	if err := f.svc.Dismiss(ctx, "u1", "not-a-uuid"); !errors.Is(err, domainerrs.ErrNotFound) {
		t.Fatalf("bad id: want=ErrNotFound got=%v", err)
	}
	if err := f.svc.Dismiss(ctx, "u1", a.ID.String()); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if err := f.svc.Dismiss(ctx, "u1", a.ID.String()); err != nil {
		t.Fatalf("repeat dismiss should ack: %v", err)
	}
}

func TestAlertCheckRunsEveryGenerator(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	seedActiveItinerary(t, f.db, "u1", "Paris, France")
	testutil.SeedFlightBooking(t, ctx, f.db, "u1", "AF100", f.now.Add(23*time.Hour))
	soon := testutil.SeedFlightBooking(t, ctx, f.db, "u1", "AF200", f.now.Add(150*time.Minute))
	if err := f.db.Model(soon).Update("gate", "A1").Error; err != nil {
		t.Fatalf("set gate: %v", err)
	}
	testutil.SeedDocument(t, ctx, f.db, "u1", "passport_scan.pdf", documents.TypeIdentification, f.now)

	f.providers.Flights.(*fakeFlights).gates = map[string]string{"AF200": "B7"}
	f.providers.Weather.(*fakeWeather).days = []providers.ForecastDay{
		{Date: "2026-06-01", Description: "clear sky"},
		{Date: "2026-06-02", Description: "thunderstorm", Conditions: []string{"thunderstorm"}},
		{Date: "2026-06-03", Description: "fog"},
	}
	news := f.providers.News.(*fakeNews)
	news.articles = []providers.NewsArticle{
		{Title: "Rail strike announced", URL: "https://news.test/strike", Source: "Wire"},
		{Title: "New museum opens"},
	}

	res, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	got := map[string]int{}
	for _, a := range res.Created {
		got[a.Type]++
	}
	want := map[string]int{
		alerts.TypeFlightCheckinReminder: 1,
		alerts.TypeDepartureReminder:     1,
		alerts.TypeGateChange:            1,
		alerts.TypeSevereWeather:         1,
		alerts.TypeWeatherAdvisory:       1,
		alerts.TypeTravelAdvisory:        1,
		alerts.TypeDocumentExpiry:        1,
	}
	for typ, n := range want {
		if got[typ] != n {
			t.Fatalf("created %s: want=%d got=%d (all=%v)", typ, n, got[typ], got)
		}
	}
	if news.location != "France" {
		t.Fatalf("news location: want=France got=%s", news.location)
	}
	var stored types.Booking
	if err := f.db.First(&stored, "id = ?", soon.ID).Error; err != nil || stored.Gate != "B7" {
		t.Fatalf("gate not stored: gate=%s err=%v", stored.Gate, err)
	}

	again, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if len(again.Created) != 0 {
		t.Fatalf("second check should dedup, created=%d", len(again.Created))
	}
	if len(again.Alerts) != len(res.Created) {
		t.Fatalf("live alerts: want=%d got=%d", len(res.Created), len(again.Alerts))
	}
}

func TestAlertCheckKeepsDistinctNewsArticles(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	seedActiveItinerary(t, f.db, "u1", "Lyon, France")
	f.providers.News.(*fakeNews).articles = []providers.NewsArticle{
		{Title: "Rail strike on Monday", URL: "https://news.test/a"},
		{Title: "Airport strike spreads", URL: "https://news.test/b"},
		{Title: "Embassy issues security alert"},
	}

	res, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	keys := map[string]bool{}
	for _, a := range res.Created {
		if a.Type == alerts.TypeTravelAdvisory {
			keys[a.DedupKey] = true
		}
	}
	if len(keys) != 3 {
		t.Fatalf("travel advisories: want=3 distinct got=%d (%v)", len(keys), keys)
	}
	if !keys["news:https://news.test/a"] || !keys["news:https://news.test/b"] {
		t.Fatalf("url correlation missing: %v", keys)
	}

	again, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("second Check: %v", err)
	}
	if len(again.Created) != 0 {
		t.Fatalf("repeat articles should dedup, created=%d", len(again.Created))
	}
	live := 0
	for _, a := range again.Alerts {
		if a.Type == alerts.TypeTravelAdvisory {
			live++
		}
	}
	if live != 3 {
		t.Fatalf("live advisories: want=3 got=%d", live)
	}
}

func TestAlertCheckSkipsFailingGenerator(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	seedActiveItinerary(t, f.db, "u1", "Oslo")
	f.providers.Weather.(*fakeWeather).err = errors.New("upstream down")
	testutil.SeedFlightBooking(t, ctx, f.db, "u1", "SK1", f.now.Add(23*time.Hour))

	res, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Created) != 1 || res.Created[0].Type != alerts.TypeFlightCheckinReminder {
		t.Fatalf("created: %+v", res.Created)
	}
}

func TestAlertCheckFirstGateSightingIsNotAChange(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	b := testutil.SeedFlightBooking(t, ctx, f.db, "u1", "LH9", f.now.Add(4*time.Hour))
	f.providers.Flights.(*fakeFlights).gates = map[string]string{"LH9": "C3"}

	res, err := f.svc.Check(ctx, "u1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(res.Created) != 0 {
		t.Fatalf("first gate report should only be stored: %+v", res.Created)
	}
	var stored types.Booking
	if err := f.db.First(&stored, "id = ?", b.ID).Error; err != nil || stored.Gate != "C3" {
		t.Fatalf("gate: want=C3 got=%s err=%v", stored.Gate, err)
	}
}

func TestPassportExpiryFromText(t *testing.T) {
	f := newAlertFixture(t)
	ctx := context.Background()
	near := f.now.AddDate(0, 2, 0).Format("2006-01-02")
	far := f.now.AddDate(5, 0, 0).Format("02/01/2006")

	nearDoc := testutil.SeedDocument(t, ctx, f.db, "u1", "passport_old.pdf", documents.TypeIdentification, f.now)
	farDoc := testutil.SeedDocument(t, ctx, f.db, "u1", "passport_new.pdf", documents.TypeIdentification, f.now)
	testutil.SeedDocument(t, ctx, f.db, "u1", "visa.pdf", documents.TypeIdentification, f.now)
	f.db.Model(nearDoc).Updates(map[string]any{"scanned": true, "extracted_text": "Issued 2016-03-01 Expires " + near})
	f.db.Model(farDoc).Updates(map[string]any{"scanned": true, "extracted_text": "Date of expiry " + far})

	out, err := f.svc.checkDocuments(ctx, "u1", nil, f.now)
	if err != nil {
		t.Fatalf("checkDocuments: %v", err)
	}
	if len(out.candidates) != 1 || out.candidates[0].Correlation != "document:"+nearDoc.Key {
		t.Fatalf("candidates: %+v", out.candidates)
	}
}

func TestLatestDate(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"issued 2019-04-02 expires 2029-04-01", "2029-04-01", true},
		{"valid until 15/08/2027", "2027-08-15", true},
		{"DATE OF EXPIRY 03 MAR 2031", "2031-03-03", true},
		{"no dates here", "", false},
		{"2026-02-30 is not a date", "", false},
	}
	for _, tc := range cases {
		got, ok := latestDate(tc.text)
		if ok != tc.ok {
			t.Fatalf("%q: ok want=%v got=%v", tc.text, tc.ok, ok)
		}
		if ok && got.Format("2006-01-02") != tc.want {
			t.Fatalf("%q: want=%s got=%s", tc.text, tc.want, got.Format("2006-01-02"))
		}
	}
}
