package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

// Free-text intents.
const (
	IntentFlightBooking      = "flight_booking"
	IntentHotelBooking       = "hotel_booking"
	IntentItineraryPlanning  = "itinerary_planning"
	IntentTranslation        = "translation"
	IntentWeatherAlerts      = "weather_alerts"
	IntentDocumentManagement = "document_management"
	IntentGeneralTravel      = "general_travel"
)

var chatIntents = []string{
	IntentFlightBooking,
	IntentHotelBooking,
	IntentItineraryPlanning,
	IntentTranslation,
	IntentWeatherAlerts,
	IntentDocumentManagement,
	IntentGeneralTravel,
}

const (
	flightClarification = "I understand you want to book a flight. Could you please provide more details like departure city, destination, and travel dates?"
	hotelClarification  = "I can help you find hotels. Please let me know the city, dates, and number of guests."
	translateClarify    = "What would you like me to translate, and into which language?"

	assistantSystemPrompt = "You are a friendly travel assistant. Answer concisely and practically. " +
		"Use the conversation so far for context."
)

// keywordIntents is the classifier used when the model is unavailable. Order matters.
var keywordIntents = []struct {
	intent   string
	keywords []string
}{
	{IntentTranslation, []string{"translate", "translation", "how do you say"}},
	{IntentFlightBooking, []string{"flight", "fly", "airline", "plane ticket"}},
	{IntentHotelBooking, []string{"hotel", "accommodation", "stay", "room"}},
	{IntentWeatherAlerts, []string{"weather", "alert", "forecast", "advisory"}},
	{IntentDocumentManagement, []string{"document", "passport", "visa", "boarding pass", "receipt"}},
	{IntentItineraryPlanning, []string{"itinerary", "plan", "trip", "schedule", "day by day"}},
}

func classifyByKeywords(message string) string {
	m := strings.ToLower(message)
	for _, rule := range keywordIntents {
		for _, kw := range rule.keywords {
			if strings.Contains(m, kw) {
				return rule.intent
			}
		}
	}
	return IntentGeneralTravel
}

var intentSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"intent":     map[string]any{"type": "string", "enum": chatIntents},
		"confidence": map[string]any{"type": "number"},
	},
	"required":             []string{"intent", "confidence"},
	"additionalProperties": false,
}

var flightCriteriaSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"origin":         map[string]any{"type": []string{"string", "null"}},
		"destination":    map[string]any{"type": []string{"string", "null"}},
		"departure_date": map[string]any{"type": []string{"string", "null"}},
		"return_date":    map[string]any{"type": []string{"string", "null"}},
		"passengers":     map[string]any{"type": []string{"integer", "null"}},
	},
	"required":             []string{"origin", "destination", "departure_date", "return_date", "passengers"},
	"additionalProperties": false,
}

var hotelCriteriaSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"location":  map[string]any{"type": []string{"string", "null"}},
		"check_in":  map[string]any{"type": []string{"string", "null"}},
		"check_out": map[string]any{"type": []string{"string", "null"}},
		"guests":    map[string]any{"type": []string{"integer", "null"}},
	},
	"required":             []string{"location", "check_in", "check_out", "guests"},
	"additionalProperties": false,
}

var translationRequestSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"text":            map[string]any{"type": []string{"string", "null"}},
		"target_language": map[string]any{"type": []string{"string", "null"}},
	},
	"required":             []string{"text", "target_language"},
	"additionalProperties": false,
}

func (s *sessionService) respond(ctx context.Context, userID, message string) (*ChatResponse, error) {
	history, err := s.deps.Messages.ListRecent(dbctx.Context{Ctx: ctx}, userID, s.cfg.HistoryWindow, s.now().UTC())
	if err != nil {
		return nil, err
	}
	transcript := formatTranscript(history)
	intent := s.classify(ctx, userID, transcript, message)

	var resp *ChatResponse
	switch intent {
	case IntentItineraryPlanning:
		resp, err = s.replyItinerary(ctx, userID, transcript)
	case IntentWeatherAlerts:
		resp, err = s.replyWeather(ctx, userID)
	case IntentDocumentManagement:
		resp, err = s.replyDocuments(ctx, userID)
	case IntentFlightBooking:
		resp, err = s.replyFlights(ctx, userID, transcript)
	case IntentHotelBooking:
		resp, err = s.replyHotels(ctx, userID, transcript)
	case IntentTranslation:
		resp, err = s.replyTranslation(ctx, message)
	default:
		intent = IntentGeneralTravel
		resp, err = s.replyGeneral(ctx, transcript)
	}
	if err != nil {
		return nil, err
	}
	resp.intent = intent
	return resp, nil
}

// classify asks the model for an intent, falling back to keywords.
func (s *sessionService) classify(ctx context.Context, userID, transcript, message string) string {
	if s.deps.LLM == nil {
		return classifyByKeywords(message)
	}
	system := "Classify the traveler's latest message into exactly one intent. " +
		"Intents: " + strings.Join(chatIntents, ", ") + "."
	user := transcript + "\n\nLatest message:\n" + message
	obj, err := s.deps.LLM.GenerateJSON(ctx, system, user, "chat_intent", intentSchema)
	if err != nil {
		s.log.Debug("intent classification fell back to keywords", "user_id", userID, "error", err)
		return classifyByKeywords(message)
	}
	intent, _ := obj["intent"].(string)
	for _, known := range chatIntents {
		if intent == known {
			return intent
		}
	}
	return classifyByKeywords(message)
}

func formatTranscript(history []*types.ConversationMessage) string {
	var b strings.Builder
	b.WriteString("Conversation:")
	for _, m := range history {
		b.WriteString("\n")
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Text)
	}
	return b.String()
}

func (s *sessionService) generateText(ctx context.Context, system, user string) (string, error) {
	if s.deps.LLM == nil {
		return "", fmt.Errorf("%w: language model not configured", domainerrs.ErrCollaboratorUnavailable)
	}
	text, err := s.deps.LLM.GenerateText(ctx, system, user)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty reply", domainerrs.ErrGeneration)
	}
	return text, nil
}

func (s *sessionService) replyGeneral(ctx context.Context, transcript string) (*ChatResponse, error) {
	text, err := s.generateText(ctx, assistantSystemPrompt, transcript)
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Text: text, Type: ReplyGeneral}, nil
}

func (s *sessionService) replyItinerary(ctx context.Context, userID, transcript string) (*ChatResponse, error) {
	text, err := s.generateText(ctx, assistantSystemPrompt+" Help the traveler plan a day-by-day itinerary.", transcript)
	if err != nil {
		return nil, err
	}
	resp := &ChatResponse{Text: text, Type: ReplyItinerary, ActionRequired: "save_itinerary"}
	active, err := s.deps.Itineraries.Get(ctx, userID)
	switch {
	case err == nil:
		resp.Data = active
	case errors.Is(err, domainerrs.ErrNotFound):
	default:
		return nil, err
	}
	return resp, nil
}

func (s *sessionService) replyWeather(ctx context.Context, userID string) (*ChatResponse, error) {
	alertsList, err := s.deps.Alerts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := map[string]any{"alerts": alertsList}
	active, err := s.deps.Itineraries.Get(ctx, userID)
	if err != nil && !errors.Is(err, domainerrs.ErrNotFound) {
		return nil, err
	}
	if active == nil || s.deps.Weather == nil {
		return &ChatResponse{
			Text: fmt.Sprintf("You have %d active alert(s). Create an itinerary to get weather updates for your destination.", len(alertsList)),
			Data: data,
			Type: ReplyAlerts,
		}, nil
	}
	forecast, err := s.deps.Weather.Forecast(ctx, active.Destination, forecastDays)
	if err != nil {
		return nil, err
	}
	data["forecast"] = forecast
	return &ChatResponse{Text: summarizeForecast(active.Destination, forecast, len(alertsList)), Data: data, Type: ReplyAlerts}, nil
}

func summarizeForecast(destination string, f *providers.Forecast, alertCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s:", destination)
	for _, d := range f.Days {
		fmt.Fprintf(&b, "\n%s: %s, %.0f to %.0f°C", d.Date, d.AllConditions(), d.TempMin, d.TempMax)
	}
	fmt.Fprintf(&b, "\nYou have %d active alert(s).", alertCount)
	return b.String()
}

func (s *sessionService) replyDocuments(ctx context.Context, userID string) (*ChatResponse, error) {
	stats, err := s.deps.Documents.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("You have %d document(s) stored (%s).", stats.TotalDocuments, stats.TotalSizeHuman)
	if len(stats.Recommendations) > 0 {
		text += " " + strings.Join(stats.Recommendations, " ")
	}
	return &ChatResponse{Text: text, Data: stats, Type: ReplyDocuments}, nil
}

type extractedFlight struct {
	Origin        *string `json:"origin"`
	Destination   *string `json:"destination"`
	DepartureDate *string `json:"departure_date"`
	ReturnDate    *string `json:"return_date"`
	Passengers    *int    `json:"passengers"`
}

type extractedHotel struct {
	Location *string `json:"location"`
	CheckIn  *string `json:"check_in"`
	CheckOut *string `json:"check_out"`
	Guests   *int    `json:"guests"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// extract runs a structured extraction. ok is false when the model could not
// produce one, which callers answer with a clarification.
func (s *sessionService) extract(ctx context.Context, transcript, what, schemaName string, schema map[string]any, out any) (bool, error) {
	if s.deps.LLM == nil {
		return false, nil
	}
	system := fmt.Sprintf("Extract %s from the conversation. Use null for anything not stated. Dates are YYYY-MM-DD.", what)
	obj, err := s.deps.LLM.GenerateJSON(ctx, system, transcript, schemaName, schema)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, nil
	}
	if err := remarshal(obj, out); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *sessionService) replyFlights(ctx context.Context, userID, transcript string) (*ChatResponse, error) {
	var ex extractedFlight
	ok, err := s.extract(ctx, transcript, "flight search criteria", "flight_criteria", flightCriteriaSchema, &ex)
	if err != nil {
		return nil, err
	}
	criteria := providers.FlightCriteria{
		Origin:        strings.TrimSpace(deref(ex.Origin)),
		Destination:   strings.TrimSpace(deref(ex.Destination)),
		DepartureDate: strings.TrimSpace(deref(ex.DepartureDate)),
		ReturnDate:    strings.TrimSpace(deref(ex.ReturnDate)),
		Passengers:    deref(ex.Passengers),
	}
	if !ok || criteria.Origin == "" || criteria.Destination == "" || criteria.DepartureDate == "" {
		return &ChatResponse{Text: flightClarification, Type: ReplyClarification}, nil
	}
	result, err := s.deps.Bookings.SearchFlights(ctx, userID, criteria)
	if err != nil {
		if errors.Is(err, domainerrs.ErrValidation) {
			return &ChatResponse{Text: flightClarification, Type: ReplyClarification}, nil
		}
		return nil, err
	}
	return &ChatResponse{
		Text:           fmt.Sprintf("I found %d flight option(s) from %s to %s on %s.", len(result.Flights), criteria.Origin, criteria.Destination, criteria.DepartureDate),
		Data:           result,
		ActionRequired: "search_flights",
		Type:           ReplyFlights,
	}, nil
}

func (s *sessionService) replyHotels(ctx context.Context, userID, transcript string) (*ChatResponse, error) {
	var ex extractedHotel
	ok, err := s.extract(ctx, transcript, "hotel search criteria", "hotel_criteria", hotelCriteriaSchema, &ex)
	if err != nil {
		return nil, err
	}
	criteria := providers.HotelCriteria{
		Location: strings.TrimSpace(deref(ex.Location)),
		CheckIn:  strings.TrimSpace(deref(ex.CheckIn)),
		CheckOut: strings.TrimSpace(deref(ex.CheckOut)),
		Guests:   deref(ex.Guests),
	}
	if !ok || criteria.Location == "" || criteria.CheckIn == "" || criteria.CheckOut == "" {
		return &ChatResponse{Text: hotelClarification, Type: ReplyClarification}, nil
	}
	result, err := s.deps.Bookings.SearchHotels(ctx, userID, criteria)
	if err != nil {
		if errors.Is(err, domainerrs.ErrValidation) {
			return &ChatResponse{Text: hotelClarification, Type: ReplyClarification}, nil
		}
		return nil, err
	}
	return &ChatResponse{
		Text:           fmt.Sprintf("I found %d hotel option(s) in %s from %s to %s.", len(result.Hotels), criteria.Location, criteria.CheckIn, criteria.CheckOut),
		Data:           result,
		ActionRequired: "search_hotels",
		Type:           ReplyHotels,
	}, nil
}

type extractedTranslation struct {
	Text           *string `json:"text"`
	TargetLanguage *string `json:"target_language"`
}

func (s *sessionService) replyTranslation(ctx context.Context, message string) (*ChatResponse, error) {
	var ex extractedTranslation
	ok, err := s.extract(ctx, "Latest message:\n"+message, "the text to translate and the target language", "translation_request", translationRequestSchema, &ex)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(deref(ex.Text))
	target := strings.TrimSpace(deref(ex.TargetLanguage))
	if !ok || text == "" || target == "" {
		return &ChatResponse{Text: translateClarify, Type: ReplyClarification}, nil
	}
	out, err := s.deps.Translation.Translate(ctx, TranslateInput{Text: text, TargetLanguage: target})
	if err != nil {
		return nil, err
	}
	return &ChatResponse{Text: out.TranslatedText, Data: out, Type: ReplyTranslation}, nil
}

// dispatchAction routes a structured request to its component, skipping
// classification.
func (s *sessionService) dispatchAction(ctx context.Context, userID, action string, payload json.RawMessage) (*ChatResponse, error) {
	decode := func(out any) error {
		if len(payload) == 0 || string(payload) == "null" {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return validationf("invalid payload for %s: %v", action, err)
		}
		return nil
	}
	resp := &ChatResponse{intent: action}
	switch action {
	case "itinerary.get":
		it, err := s.deps.Itineraries.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = "Here is your current itinerary.", it, ReplyItinerary
	case "itinerary.create", "itinerary.update":
		var in ItineraryInput
		if err := decode(&in); err != nil {
			return nil, err
		}
		var (
			it  *types.Itinerary
			err error
		)
		if action == "itinerary.create" {
			it, err = s.deps.Itineraries.Create(ctx, userID, in)
		} else {
			it, err = s.deps.Itineraries.Update(ctx, userID, in)
		}
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("Your itinerary for %s is saved.", it.Destination), it, ReplyItinerary
	case "itinerary.delete":
		archived, err := s.deps.Itineraries.Delete(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Type = "Itinerary deleted.", ReplyItinerary
		resp.Data = map[string]any{"archived": archived}
	case "itinerary.generate":
		var prefs GeneratePreferences
		if err := decode(&prefs); err != nil {
			return nil, err
		}
		it, err := s.deps.Itineraries.Generate(ctx, userID, prefs)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("I planned %d day(s) in %s.", it.DurationDays, it.Destination), it, ReplyItinerary
	case "itinerary.export":
		exp, err := s.deps.Itineraries.Export(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = "Your itinerary PDF is ready.", exp, ReplyItinerary
	case "alerts.list":
		list, err := s.deps.Alerts.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("You have %d active alert(s).", len(list)), list, ReplyAlerts
	case "alerts.check":
		res, err := s.deps.Alerts.Check(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text = fmt.Sprintf("%d new alert(s), %d active.", len(res.Created), len(res.Alerts))
		resp.Data, resp.Type = res, ReplyAlerts
	case "alerts.dismiss":
		var in struct {
			AlertID string `json:"alert_id"`
		}
		if err := decode(&in); err != nil {
			return nil, err
		}
		if err := s.deps.Alerts.Dismiss(ctx, userID, in.AlertID); err != nil {
			return nil, err
		}
		resp.Text, resp.Type = "Alert dismissed.", ReplyAlerts
	case "alerts.custom":
		var in CustomAlertInput
		if err := decode(&in); err != nil {
			return nil, err
		}
		a, err := s.deps.Alerts.CreateCustom(ctx, userID, in)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = "Custom alert created.", a, ReplyAlerts
	case "documents.list":
		list, err := s.deps.Documents.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("You have %d document(s).", list.Count), list, ReplyDocuments
	case "documents.upload":
		var in UploadDocumentInput
		if err := decode(&in); err != nil {
			return nil, err
		}
		doc, err := s.deps.Documents.Upload(ctx, userID, in)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("Saved %s (%s).", doc.Filename, doc.DocumentType), doc, ReplyDocuments
	case "documents.scan", "documents.delete", "documents.download":
		var in struct {
			DocumentKey string `json:"document_key"`
		}
		if err := decode(&in); err != nil {
			return nil, err
		}
		switch action {
		case "documents.scan":
			res, err := s.deps.Documents.Scan(ctx, userID, in.DocumentKey)
			if err != nil {
				return nil, err
			}
			resp.Text, resp.Data = fmt.Sprintf("Extracted %d word(s).", res.WordCount), res
		case "documents.delete":
			if err := s.deps.Documents.Delete(ctx, userID, in.DocumentKey); err != nil {
				return nil, err
			}
			resp.Text, resp.Data = "Document deleted.", map[string]any{"document_key": in.DocumentKey}
		default:
			dl, err := s.deps.Documents.Download(ctx, userID, in.DocumentKey)
			if err != nil {
				return nil, err
			}
			resp.Text, resp.Data = "Your download link is ready.", dl
		}
		resp.Type = ReplyDocuments
	case "documents.organize":
		res, err := s.deps.Documents.Organize(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = fmt.Sprintf("Organized %d document(s).", res.Stats.TotalDocuments), res, ReplyDocuments
	case "documents.backup":
		res, err := s.deps.Documents.Backup(ctx, userID)
		if err != nil {
			return nil, err
		}
		resp.Text, resp.Data, resp.Type = res.Message, res, ReplyDocuments
	default:
		return nil, validationf("unknown action %q", action)
	}
	return resp, nil
}

