package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	"github.com/yungbote/travel-companion-backend/internal/data/repos/testutil"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	"github.com/yungbote/travel-companion-backend/internal/platform/render"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type sessionFixture struct {
	db        *gorm.DB
	svc       *sessionService
	llm       *fakeLLM
	providers *providers.Set
	now       time.Time
}

// newSessionFixture wires real components over SQLite. A nil llm leaves the
// session without a language model.
func newSessionFixture(t *testing.T, llm *fakeLLM) sessionFixture {
	t.Helper()
	db := newTestDB(t)
	log := testutil.Logger(t)
	lk := testLocker()
	set := quietProviders()
	renderer, err := render.NewItineraryRenderer(log)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	var model openai.Client
	if llm != nil {
		model = llm
	}
	bucket := newMemBucket()
	policy := MustLoadPolicy()
	itinRepo := repos.NewItineraryRepo(db, log)
	docRepo := repos.NewDocumentRepo(db, log)
	bookingRepo := repos.NewBookingRepo(db, log)

	deps := SessionDeps{
		Users:       repos.NewUserRepo(db, log),
		Messages:    repos.NewConversationMessageRepo(db, log),
		Itineraries: NewItineraryService(db, log, itinRepo, nil, renderer, bucket, lk),
		Alerts: NewAlertService(db, log, repos.NewAlertRepo(db, log), itinRepo, bookingRepo, docRepo,
			set, lk, policy, AlertConfig{ProviderTimeout: time.Second}),
		Documents:   NewDocumentService(db, log, docRepo, bucket, &fakeExtractor{}, lk, policy, DocumentConfig{}),
		Bookings:    NewBookingService(db, log, bookingRepo, repos.NewSearchRecordRepo(db, log), set.Flights, set.Hotels),
		Translation: NewTranslationService(log, set.Translator),
		Weather:     set.Weather,
		LLM:         model,
		Locker:      lk,
	}
	svc := NewSessionService(db, log, deps, SessionConfig{}).(*sessionService)
	now := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(now)
	return sessionFixture{db: db, svc: svc, llm: llm, providers: set, now: now}
}

// classifyAs answers intent classification with intent and defers every
// other schema to rest.
func classifyAs(intent string, rest func(schemaName, user string) (map[string]any, error)) func(string, string) (map[string]any, error) {
	return func(schemaName, user string) (map[string]any, error) {
		if schemaName == "chat_intent" {
			return map[string]any{"intent": intent, "confidence": 0.9}, nil
		}
		if rest == nil {
			return nil, fmt.Errorf("unexpected schema %s", schemaName)
		}
		return rest(schemaName, user)
	}
}

func TestSessionAppendsBothTurnsWithSequence(t *testing.T) {
	f := newSessionFixture(t, &fakeLLM{jsonFn: classifyAs(IntentGeneralTravel, nil)})
	ctx := context.Background()

	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: "Any tips for Lisbon?"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Text != "Happy travels!" || resp.Type != ReplyGeneral {
		t.Fatalf("reply: want=general got=%q/%s", resp.Text, resp.Type)
	}

	msgs, err := f.svc.History(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("history length: want=2 got=%d", len(msgs))
	}
	if msgs[0].Role != types.RoleUser || msgs[1].Role != types.RoleAssistant {
		t.Fatalf("roles: got=%s,%s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].Seq != 1 || msgs[1].Seq != 2 {
		t.Fatalf("seq: want=1,2 got=%d,%d", msgs[0].Seq, msgs[1].Seq)
	}
	if msgs[1].Intent != IntentGeneralTravel {
		t.Fatalf("intent: want=%s got=%s", IntentGeneralTravel, msgs[1].Intent)
	}
	if want := f.now.Add(30 * 24 * time.Hour); !msgs[0].ExpiresAt.Equal(want) {
		t.Fatalf("expires_at: want=%v got=%v", want, msgs[0].ExpiresAt)
	}
}

func TestSessionModelSeesHistoryWindow(t *testing.T) {
	var lastPrompt string
	llm := &fakeLLM{
		jsonFn: classifyAs(IntentGeneralTravel, nil),
		textFn: func(system, user string) (string, error) {
			lastPrompt = user
			return "ok", nil
		},
	}
	f := newSessionFixture(t, llm)
	f.svc.cfg.HistoryWindow = 3
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: fmt.Sprintf("question %d", i)}); err != nil {
			t.Fatalf("Handle %d: %v", i, err)
		}
	}
	if strings.Contains(lastPrompt, "question 0") || !strings.Contains(lastPrompt, "question 2") {
		t.Fatalf("window: prompt=%q", lastPrompt)
	}
}

func TestSessionKeywordFallbackWithoutModel(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: "What's the weather looking like?"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != ReplyAlerts {
		t.Fatalf("type: want=%s got=%s", ReplyAlerts, resp.Type)
	}

	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Message: "Tell me something nice"})
	if err != nil {
		t.Fatalf("Handle general: %v", err)
	}
	if resp.Text != degradedReply || resp.Type != ReplyError {
		t.Fatalf("general without model: want=degraded got=%q/%s", resp.Text, resp.Type)
	}
}

func TestSessionCollaboratorFailureDegrades(t *testing.T) {
	llm := &fakeLLM{
		jsonFn: classifyAs(IntentGeneralTravel, nil),
		textFn: func(system, user string) (string, error) {
			return "", fmt.Errorf("%w: upstream 503", domainerrs.ErrCollaboratorUnavailable)
		},
	}
	f := newSessionFixture(t, llm)
	ctx := context.Background()

	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: "hello"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Text != degradedReply || resp.Type != ReplyError {
		t.Fatalf("degraded: got=%q/%s", resp.Text, resp.Type)
	}
	msgs, _ := f.svc.History(ctx, "u1", 10)
	if len(msgs) != 2 || msgs[1].ResponseType != ReplyError {
		t.Fatalf("history after failure: %d messages", len(msgs))
	}
}

func TestSessionFlightSearchFromConversation(t *testing.T) {
	llm := &fakeLLM{jsonFn: classifyAs(IntentFlightBooking, func(schemaName, user string) (map[string]any, error) {
		if schemaName != "flight_criteria" {
			return nil, fmt.Errorf("unexpected schema %s", schemaName)
		}
		return map[string]any{
			"origin": "JFK", "destination": "CDG", "departure_date": "2026-06-01",
			"return_date": nil, "passengers": 2,
		}, nil
	})}
	f := newSessionFixture(t, llm)
	flights := f.providers.Flights.(*fakeFlights)
	flights.offers = []providers.FlightOffer{{FlightNumber: "AF7"}}

	resp, err := f.svc.Handle(context.Background(), "u1", ChatRequest{Message: "Book me a flight from New York to Paris on June 1st for two"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.ActionRequired != "search_flights" || resp.Type != ReplyFlights {
		t.Fatalf("flight reply: got action=%q type=%q", resp.ActionRequired, resp.Type)
	}
	if len(flights.searched) != 1 || flights.searched[0].Destination != "CDG" || flights.searched[0].Passengers != 2 {
		t.Fatalf("search criteria: %+v", flights.searched)
	}
	result, ok := resp.Data.(*BookingSearchResult)
	if !ok || len(result.Flights) != 1 || result.SearchID == uuid.Nil {
		t.Fatalf("search result: %#v", resp.Data)
	}
}

func TestSessionAsksForMissingBookingDetails(t *testing.T) {
	llm := &fakeLLM{jsonFn: classifyAs(IntentHotelBooking, func(schemaName, user string) (map[string]any, error) {
		return map[string]any{"location": "Rome", "check_in": nil, "check_out": nil, "guests": nil}, nil
	})}
	f := newSessionFixture(t, llm)

	resp, err := f.svc.Handle(context.Background(), "u1", ChatRequest{Message: "I need a hotel in Rome"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Text != hotelClarification || resp.Type != ReplyClarification {
		t.Fatalf("clarification: got=%q/%s", resp.Text, resp.Type)
	}
	if n := len(f.providers.Hotels.(*fakeHotels).searched); n != 0 {
		t.Fatalf("provider searched: want=0 got=%d", n)
	}
}

func TestSessionTranslation(t *testing.T) {
	llm := &fakeLLM{jsonFn: classifyAs(IntentTranslation, func(schemaName, user string) (map[string]any, error) {
		return map[string]any{"text": "Where is the station?", "target_language": "es"}, nil
	})}
	f := newSessionFixture(t, llm)

	resp, err := f.svc.Handle(context.Background(), "u1", ChatRequest{Message: "Translate 'Where is the station?' to Spanish"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Text != "[es] Where is the station?" || resp.Type != ReplyTranslation {
		t.Fatalf("translation: got=%q/%s", resp.Text, resp.Type)
	}
}

func TestSessionItineraryPlanningAttachesActive(t *testing.T) {
	llm := &fakeLLM{jsonFn: classifyAs(IntentItineraryPlanning, nil)}
	f := newSessionFixture(t, llm)
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]any{"destination": "Paris", "start_date": "2026-06-01", "end_date": "2026-06-03"})
	if _, err := f.svc.Handle(ctx, "u1", ChatRequest{Action: "itinerary.create", Payload: payload}); err != nil {
		t.Fatalf("create action: %v", err)
	}

	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: "Help me plan my days"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.ActionRequired != "save_itinerary" {
		t.Fatalf("action_required: want=save_itinerary got=%q", resp.ActionRequired)
	}
	it, ok := resp.Data.(*types.Itinerary)
	if !ok || it.Destination != "Paris" {
		t.Fatalf("attached itinerary: %#v", resp.Data)
	}
}

func TestSessionStructuredActionsSkipClassification(t *testing.T) {
	llm := &fakeLLM{}
	f := newSessionFixture(t, llm)
	ctx := context.Background()

	payload, _ := json.Marshal(map[string]any{"destination": "Kyoto", "start_date": "2026-10-01", "end_date": "2026-10-02", "travelers": 2})
	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Action: "itinerary.create", Payload: payload})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	it, ok := resp.Data.(*types.Itinerary)
	if !ok || it.DurationDays != 2 || it.Travelers != 2 {
		t.Fatalf("created itinerary: %#v", resp.Data)
	}

	custom, _ := json.Marshal(map[string]any{"title": "Museum tickets", "priority": 9})
	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "alerts.custom", Payload: custom})
	if err != nil {
		t.Fatalf("custom alert: %v", err)
	}
	alert, ok := resp.Data.(*types.Alert)
	if !ok || alert.Priority != 5 {
		t.Fatalf("custom alert: %#v", resp.Data)
	}

	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "alerts.list"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list, ok := resp.Data.([]*types.Alert); !ok || len(list) != 1 {
		t.Fatalf("alerts list: %#v", resp.Data)
	}

	upload, _ := json.Marshal(map[string]any{"filename": "plan.txt", "file_content": b64("day one louvre")})
	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "documents.upload", Payload: upload})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	doc, ok := resp.Data.(*types.Document)
	if !ok || resp.Type != ReplyDocuments {
		t.Fatalf("uploaded document: %#v", resp.Data)
	}
	byKey, _ := json.Marshal(map[string]any{"document_key": doc.Key})

	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "documents.scan", Payload: byKey})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if scan, ok := resp.Data.(*ScanResult); !ok || scan.WordCount != 3 {
		t.Fatalf("scan result: %#v", resp.Data)
	}
	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "documents.download", Payload: byKey})
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if dl, ok := resp.Data.(*DocumentDownload); !ok || !strings.Contains(dl.DownloadURL, doc.Key) {
		t.Fatalf("download result: %#v", resp.Data)
	}
	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "documents.delete", Payload: byKey})
	if err != nil || resp.Type != ReplyDocuments || resp.Text != "Document deleted." {
		t.Fatalf("delete: resp=%+v err=%v", resp, err)
	}
	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "documents.download", Payload: byKey})
	if err != nil || resp.Type != ReplyError {
		t.Fatalf("download after delete: resp=%+v err=%v", resp, err)
	}

	if len(llm.calls) != 0 {
		t.Fatalf("model calls: want=0 got=%v", llm.calls)
	}

	msgs, _ := f.svc.History(ctx, "u1", 0)
	if len(msgs) != 16 || msgs[0].Text != "/itinerary.create" {
		t.Fatalf("history: %d messages, first=%q", len(msgs), msgs[0].Text)
	}
}

func TestSessionDomainErrorsReplyWithMessage(t *testing.T) {
	f := newSessionFixture(t, &fakeLLM{})
	ctx := context.Background()

	resp, err := f.svc.Handle(ctx, "u1", ChatRequest{Action: "itinerary.get"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.Type != ReplyError || resp.Text == degradedReply || strings.HasPrefix(resp.Text, "not found") {
		t.Fatalf("not found reply: got=%q/%s", resp.Text, resp.Type)
	}

	resp, err = f.svc.Handle(ctx, "u1", ChatRequest{Action: "rebook.everything"})
	if err != nil {
		t.Fatalf("Handle unknown: %v", err)
	}
	if resp.Text != `unknown action "rebook.everything"` {
		t.Fatalf("unknown action: got=%q", resp.Text)
	}
}

func TestSessionRejectsEmptyAndCanceled(t *testing.T) {
	f := newSessionFixture(t, &fakeLLM{})

	_, err := f.svc.Handle(context.Background(), "u1", ChatRequest{Message: "   "})
	if !errors.Is(err, domainerrs.ErrValidation) {
		t.Fatalf("empty message: want=ErrValidation got=%v", err)
	}
	_, err = f.svc.Handle(context.Background(), "", ChatRequest{Message: "hi"})
	if !errors.Is(err, domainerrs.ErrValidation) {
		t.Fatalf("empty user: want=ErrValidation got=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: "hi"}); err == nil {
		t.Fatalf("canceled: want error")
	}
}

func TestSessionHistoryLimitAndPurge(t *testing.T) {
	f := newSessionFixture(t, &fakeLLM{jsonFn: classifyAs(IntentGeneralTravel, nil)})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Handle(ctx, "u1", ChatRequest{Message: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}
	msgs, err := f.svc.History(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Seq != 5 || msgs[1].Seq != 6 {
		t.Fatalf("windowed history: %d messages", len(msgs))
	}

	f.svc.now = fixedClock(f.now.Add(31 * 24 * time.Hour))
	n, err := f.svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 6 {
		t.Fatalf("purged: want=6 got=%d", n)
	}
	msgs, _ = f.svc.History(ctx, "u1", 0)
	if len(msgs) != 0 {
		t.Fatalf("after purge: want=0 got=%d", len(msgs))
	}
}

func TestClassifyByKeywords(t *testing.T) {
	cases := map[string]string{
		"translate hello into French":   IntentTranslation,
		"find me a flight to Rome":      IntentFlightBooking,
		"any hotel near the Colosseum?": IntentHotelBooking,
		"is there a weather advisory":   IntentWeatherAlerts,
		"where is my passport scan":     IntentDocumentManagement,
		"plan a 3 day trip":             IntentItineraryPlanning,
		"what's the local etiquette":    IntentGeneralTravel,
	}
	for msg, want := range cases {
		if got := classifyByKeywords(msg); got != want {
			t.Fatalf("%q: want=%s got=%s", msg, want, got)
		}
	}
}
