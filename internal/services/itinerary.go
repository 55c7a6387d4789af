package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/gcp"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	"github.com/yungbote/travel-companion-backend/internal/platform/render"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

const (
	archivedKeep      = 10
	maxTripDays       = 60
	exportURLTTL      = time.Hour
	defaultCurrency   = "USD"
	defaultBudget     = "medium"
	defaultTripStyle  = "balanced"
	defaultGenDays    = 3
	defaultTravelers  = 1
	maxGenerateLength = 30
)

type ItineraryService interface {
	Get(ctx context.Context, userID string) (*types.Itinerary, error)
	Create(ctx context.Context, userID string, in ItineraryInput) (*types.Itinerary, error)
	Update(ctx context.Context, userID string, in ItineraryInput) (*types.Itinerary, error)
	Delete(ctx context.Context, userID string) (bool, error)
	Generate(ctx context.Context, userID string, prefs GeneratePreferences) (*types.Itinerary, error)
	Export(ctx context.Context, userID string) (*ItineraryExport, error)
	ListArchived(ctx context.Context, userID string) ([]*types.Itinerary, error)
}

// ItineraryInput carries create fields or a partial update. Nil fields are
// left untouched on update.
type ItineraryInput struct {
	Title           *string              `json:"title"`
	Destination     *string              `json:"destination"`
	StartDate       *string              `json:"start_date"`
	EndDate         *string              `json:"end_date"`
	Travelers       *int                 `json:"travelers"`
	Description     *string              `json:"description"`
	Status          *string              `json:"status"`
	Days            []types.ItineraryDay `json:"days"`
	Budget          *BudgetInput         `json:"budget"`
	Preferences     map[string]any       `json:"preferences"`
	ExpectedVersion *int64               `json:"expected_version"`
}

type BudgetInput struct {
	Currency       string             `json:"currency"`
	Level          string             `json:"level"`
	TotalEstimated *float64           `json:"total_estimated"`
	Breakdown      map[string]float64 `json:"breakdown"`
}

type GeneratePreferences struct {
	Destination string   `json:"destination"`
	Duration    int      `json:"duration"`
	StartDate   string   `json:"start_date"`
	Budget      string   `json:"budget"`
	Interests   []string `json:"interests"`
	TravelStyle string   `json:"travel_style"`
	Travelers   int      `json:"travelers"`
}

type ItineraryExport struct {
	DownloadURL      string `json:"download_url"`
	Key              string `json:"pdf_key"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

type itineraryService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     repos.ItineraryRepo
	llm      openai.Client
	renderer render.ItineraryRenderer
	bucket   gcp.BucketService
	locker   locker.Locker
	now      func() time.Time
}

// NewItineraryService accepts a nil llm; generation then always uses the
// default day structure.
func NewItineraryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.ItineraryRepo,
	llm openai.Client,
	renderer render.ItineraryRenderer,
	bucket gcp.BucketService,
	lk locker.Locker,
) ItineraryService {
	return &itineraryService{
		db:       db,
		log:      baseLog.With("service", "ItineraryService"),
		repo:     repo,
		llm:      llm,
		renderer: renderer,
		bucket:   bucket,
		locker:   lk,
		now:      time.Now,
	}
}

func (s *itineraryService) Get(ctx context.Context, userID string) (*types.Itinerary, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	row, err := s.repo.GetActive(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFoundf("no itinerary found")
	}
	return row, nil
}

func (s *itineraryService) ListArchived(ctx context.Context, userID string) ([]*types.Itinerary, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListArchived(dbctx.Context{Ctx: ctx}, userID, archivedKeep)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*types.Itinerary{}
	}
	return rows, nil
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// tripDates validates the date range and returns the parsed start and the
// inclusive day count.
func tripDates(start, end string) (time.Time, int, error) {
	if start == "" || end == "" {
		return time.Time{}, 0, validationf("start_date and end_date are required")
	}
	st, err := itinerary.ParseDate(start)
	if err != nil {
		return time.Time{}, 0, validationf("start_date must be YYYY-MM-DD")
	}
	en, err := itinerary.ParseDate(end)
	if err != nil {
		return time.Time{}, 0, validationf("end_date must be YYYY-MM-DD")
	}
	if en.Before(st) {
		return time.Time{}, 0, validationf("start_date must not be after end_date")
	}
	n := itinerary.DurationDays(st, en)
	if n > maxTripDays {
		return time.Time{}, 0, validationf("trips are limited to %d days", maxTripDays)
	}
	return st, n, nil
}

// DefaultDays builds the template day structure for a trip.
func DefaultDays(destination string, start time.Time, n int) []types.ItineraryDay {
	days := make([]types.ItineraryDay, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, types.ItineraryDay{
			DayNumber: i + 1,
			Date:      start.AddDate(0, 0, i).Format(itinerary.DateLayout),
			Title:     fmt.Sprintf("Day %d in %s", i+1, destination),
			Activities: []types.ItineraryActivity{
				{Time: "09:00", Title: "Morning Exploration", Description: "Explore the highlights of " + destination, Duration: "3 hours", EstimatedCost: 20, Type: "sightseeing"},
				{Time: "14:00", Title: "Afternoon Activities", Description: "Cultural activities and local experiences", Duration: "3 hours", EstimatedCost: 30, Type: "culture"},
				{Time: "19:00", Title: "Dinner and Evening", Description: "Local cuisine and evening entertainment", Duration: "2 hours", EstimatedCost: 40, Type: "dining"},
			},
			Transportation: &types.ItineraryTransportation{Type: "walking/public transport", EstimatedCost: 10},
		})
	}
	itinerary.RecomputeAll(days)
	return days
}

// normalizeDays validates supplied days and stamps missing numbers and dates.
func normalizeDays(days []types.ItineraryDay, start time.Time) error {
	for i := range days {
		if days[i].DayNumber == 0 {
			days[i].DayNumber = i + 1
		}
		if strings.TrimSpace(days[i].Date) == "" {
			days[i].Date = start.AddDate(0, 0, days[i].DayNumber-1).Format(itinerary.DateLayout)
		} else if _, err := itinerary.ParseDate(days[i].Date); err != nil {
			return validationf("day %d: date must be YYYY-MM-DD", days[i].DayNumber)
		}
		if days[i].Activities == nil {
			days[i].Activities = []types.ItineraryActivity{}
		}
		if err := days[i].Validate(); err != nil {
			return validationf("%v", err)
		}
	}
	return nil
}

// restampDays renumbers days 1..n and dates them from start.
func restampDays(days []types.ItineraryDay, start time.Time) []types.ItineraryDay {
	out := make([]types.ItineraryDay, len(days))
	copy(out, days)
	for i := range out {
		out[i].DayNumber = i + 1
		out[i].Date = start.AddDate(0, 0, i).Format(itinerary.DateLayout)
	}
	return out
}

func applyBudgetInput(b types.ItineraryBudget, in *BudgetInput, days []types.ItineraryDay) types.ItineraryBudget {
	var supplied *float64
	if in != nil {
		if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
			b.Currency = c
		}
		if l := strings.TrimSpace(in.Level); l != "" {
			b.Level = l
		}
		if in.Breakdown != nil {
			b.Breakdown = in.Breakdown
		}
		supplied = in.TotalEstimated
	}
	return itinerary.ApplyBudget(b, days, supplied)
}

func (s *itineraryService) Create(ctx context.Context, userID string, in ItineraryInput) (*types.Itinerary, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	destination := str(in.Destination)
	if destination == "" {
		return nil, validationf("destination is required")
	}
	start, n, err := tripDates(str(in.StartDate), str(in.EndDate))
	if err != nil {
		return nil, err
	}
	travelers := defaultTravelers
	if in.Travelers != nil {
		travelers = *in.Travelers
	}
	if travelers < 1 {
		return nil, validationf("travelers must be at least 1")
	}
	days := in.Days
	if len(days) == 0 {
		days = DefaultDays(destination, start, n)
	} else if err := normalizeDays(days, start); err != nil {
		return nil, err
	}
	title := str(in.Title)
	if title == "" {
		title = "Trip to " + destination
	}
	row := &types.Itinerary{
		UserID:       userID,
		Title:        title,
		Destination:  destination,
		StartDate:    start.Format(itinerary.DateLayout),
		EndDate:      start.AddDate(0, 0, n-1).Format(itinerary.DateLayout),
		DurationDays: n,
		Travelers:    travelers,
		Description:  str(in.Description),
		Status:       itinerary.StatusDraft,
		Source:       itinerary.SourceUser,
		Days:         datatypes.JSONSlice[types.ItineraryDay](days),
		Preferences:  datatypes.JSONMap(in.Preferences),
	}
	row.Budget = datatypes.NewJSONType(applyBudgetInput(types.ItineraryBudget{Currency: defaultCurrency}, in.Budget, days))
	if err := s.replaceActive(ctx, userID, row); err != nil {
		return nil, err
	}
	s.log.Info("Itinerary created", "user_id", userID, "days", n)
	return row, nil
}

// replaceActive archives the current itinerary, stores row as the active one
// and prunes archived history, in one transaction under the user's lock.
func (s *itineraryService) replaceActive(ctx context.Context, userID string, row *types.Itinerary) error {
	return s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(dbc dbctx.Context) error {
			current, err := s.repo.GetActive(dbc, userID)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			if current != nil {
				if err := s.repo.Archive(dbc, current.ID, now); err != nil {
					return err
				}
			}
			row.ID = uuid.New()
			if err := s.repo.Create(dbc, row); err != nil {
				return err
			}
			_, err = s.repo.PruneArchived(dbc, userID, archivedKeep)
			return err
		})
	})
}

func (s *itineraryService) Update(ctx context.Context, userID string, in ItineraryInput) (*types.Itinerary, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	var out *types.Itinerary
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		row, err := s.repo.GetActive(dbc, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return notFoundf("no itinerary found")
		}
		expected := row.Version
		if in.ExpectedVersion != nil {
			if *in.ExpectedVersion != row.Version {
				return fmt.Errorf("%w: itinerary version %d is stale (current %d)", domainerrs.ErrConflict, *in.ExpectedVersion, row.Version)
			}
		}
		if err := mergeItinerary(row, in); err != nil {
			return err
		}
		if err := s.repo.UpdateVersioned(dbc, row, expected); err != nil {
			return err
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func mergeItinerary(row *types.Itinerary, in ItineraryInput) error {
	if in.Title != nil {
		row.Title = str(in.Title)
	}
	if in.Destination != nil {
		if str(in.Destination) == "" {
			return validationf("destination must not be empty")
		}
		row.Destination = str(in.Destination)
	}
	if in.Description != nil {
		row.Description = str(in.Description)
	}
	prevStart, prevEnd := row.StartDate, row.EndDate
	if in.StartDate != nil {
		row.StartDate = str(in.StartDate)
	}
	if in.EndDate != nil {
		row.EndDate = str(in.EndDate)
	}
	start, n, err := tripDates(row.StartDate, row.EndDate)
	if err != nil {
		return err
	}
	row.DurationDays = n
	datesMoved := row.StartDate != prevStart || row.EndDate != prevEnd
	if in.Travelers != nil {
		row.Travelers = *in.Travelers
	}
	if row.Travelers < 1 {
		return validationf("travelers must be at least 1")
	}
	if in.Status != nil {
		switch st := str(in.Status); st {
		case itinerary.StatusDraft, itinerary.StatusConfirmed:
			row.Status = st
		default:
			return validationf("status must be draft or confirmed")
		}
	}
	if in.Preferences != nil {
		row.Preferences = datatypes.JSONMap(in.Preferences)
	}
	days := []types.ItineraryDay(row.Days)
	if in.Days != nil {
		days = in.Days
		if err := normalizeDays(days, start); err != nil {
			return err
		}
		row.Days = datatypes.JSONSlice[types.ItineraryDay](days)
	} else if datesMoved && len(days) > 0 {
		if len(days) != n {
			return validationf("itinerary has %d days but %s..%s spans %d; supply days with the new dates", len(days), row.StartDate, row.EndDate, n)
		}
		days = restampDays(days, start)
		row.Days = datatypes.JSONSlice[types.ItineraryDay](days)
	}
	budget := row.Budget.Data()
	if in.Budget == nil && budget.Basis == itinerary.BasisAIEstimate {
		// Keep an earlier estimate until the caller replaces it.
		total := budget.TotalEstimated
		in.Budget = &BudgetInput{TotalEstimated: &total}
	}
	row.Budget = datatypes.NewJSONType(applyBudgetInput(budget, in.Budget, days))
	return nil
}

func (s *itineraryService) Delete(ctx context.Context, userID string) (bool, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return false, err
	}
	archived := false
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(dbc dbctx.Context) error {
			row, err := s.repo.GetActive(dbc, userID)
			if err != nil || row == nil {
				return err
			}
			if err := s.repo.Archive(dbc, row.ID, s.now().UTC()); err != nil {
				return err
			}
			archived = true
			_, err = s.repo.PruneArchived(dbc, userID, archivedKeep)
			return err
		})
	})
	if err != nil {
		return false, err
	}
	return archived, nil
}

func (s *itineraryService) Export(ctx context.Context, userID string) (*ItineraryExport, error) {
	row, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, d := range row.Days {
		if err := d.Validate(); err != nil {
			return nil, validationf("itinerary cannot be exported: %v", err)
		}
	}
	pdf, err := s.renderer.RenderPDF(ctx, row)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("itineraries/%s/itinerary_%d.pdf", row.UserID, s.now().UTC().Unix())
	if err := s.bucket.UploadFile(dbctx.Context{Ctx: ctx}, gcp.BucketCategoryExport, key, bytes.NewReader(pdf), "application/pdf"); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: store export: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	url, err := s.bucket.SignedURL(ctx, gcp.BucketCategoryExport, key, exportURLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: sign url: %v", domainerrs.ErrCollaboratorUnavailable, err)
	}
	return &ItineraryExport{DownloadURL: url, Key: key, ExpiresInSeconds: int(exportURLTTL.Seconds())}, nil
}

func (p GeneratePreferences) withDefaults(today time.Time) GeneratePreferences {
	p.Destination = strings.TrimSpace(p.Destination)
	if p.Duration <= 0 {
		p.Duration = defaultGenDays
	}
	if strings.TrimSpace(p.StartDate) == "" {
		p.StartDate = today.Format(itinerary.DateLayout)
	}
	if strings.TrimSpace(p.Budget) == "" {
		p.Budget = defaultBudget
	}
	if strings.TrimSpace(p.TravelStyle) == "" {
		p.TravelStyle = defaultTripStyle
	}
	if p.Travelers <= 0 {
		p.Travelers = defaultTravelers
	}
	return p
}

func (p GeneratePreferences) asMap() map[string]any {
	interests := p.Interests
	if interests == nil {
		interests = []string{}
	}
	return map[string]any{
		"destination":  p.Destination,
		"duration":     p.Duration,
		"start_date":   p.StartDate,
		"budget":       p.Budget,
		"interests":    interests,
		"travel_style": p.TravelStyle,
		"travelers":    p.Travelers,
	}
}

func (s *itineraryService) Generate(ctx context.Context, userID string, prefs GeneratePreferences) (out *types.Itinerary, err error) {
	userID, err = NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	prefs = prefs.withDefaults(s.now().UTC())
	if prefs.Destination == "" {
		return nil, validationf("destination is required for itinerary generation")
	}
	if prefs.Duration > maxGenerateLength {
		return nil, validationf("duration is limited to %d days", maxGenerateLength)
	}
	start, err := itinerary.ParseDate(prefs.StartDate)
	if err != nil {
		return nil, validationf("start_date must be YYYY-MM-DD")
	}

	ctx, span := observability.StartSpan(ctx, "itinerary.generate", attribute.Int("itinerary.duration", prefs.Duration))
	defer func() { observability.EndSpan(span, err) }()

	plan, err := s.generatePlan(ctx, prefs, start)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := &types.Itinerary{
		UserID:       userID,
		Title:        "Trip to " + prefs.Destination,
		Destination:  prefs.Destination,
		StartDate:    start.Format(itinerary.DateLayout),
		EndDate:      start.AddDate(0, 0, prefs.Duration-1).Format(itinerary.DateLayout),
		DurationDays: prefs.Duration,
		Travelers:    prefs.Travelers,
		Description:  fmt.Sprintf("A %d-day itinerary tailored to your preferences", prefs.Duration),
		Status:       itinerary.StatusDraft,
		Source:       itinerary.SourceTemplate,
		Days:         datatypes.JSONSlice[types.ItineraryDay](plan.days),
		Preferences:  datatypes.JSONMap(prefs.asMap()),
	}
	if plan.ai {
		row.Title = "AI-Generated Trip to " + prefs.Destination
		row.GeneratedByAI = true
		row.Source = itinerary.SourceAI
	}
	budget := types.ItineraryBudget{Currency: defaultCurrency, Level: prefs.Budget, Breakdown: plan.breakdown}
	row.Budget = datatypes.NewJSONType(itinerary.ApplyBudget(budget, plan.days, plan.total))

	if err := s.replaceActive(ctx, userID, row); err != nil {
		return nil, err
	}
	s.log.Info("Itinerary generated", "user_id", userID, "ai", plan.ai, "days", prefs.Duration)
	return row, nil
}

type generatedPlan struct {
	days      []types.ItineraryDay
	breakdown map[string]float64
	total     *float64
	ai        bool
}

// generatePlan asks the model for days and falls back to the template when
// the model is unavailable. Unusable output is an ErrGeneration.
func (s *itineraryService) generatePlan(ctx context.Context, prefs GeneratePreferences, start time.Time) (*generatedPlan, error) {
	fallback := &generatedPlan{days: DefaultDays(prefs.Destination, start, prefs.Duration)}
	if s.llm == nil {
		return fallback, nil
	}
	obj, err := s.llm.GenerateJSON(ctx, itinerarySystemPrompt, itineraryUserPrompt(prefs), "itinerary_plan", itinerarySchema)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		if errors.Is(err, domainerrs.ErrCollaboratorUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			s.log.Warn("Itinerary model unavailable; using template", "error", err)
			return fallback, nil
		}
		if errors.Is(err, domainerrs.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domainerrs.ErrGeneration, err)
	}
	return parseGeneratedPlan(obj, prefs.Duration, start)
}

type modelPlan struct {
	Days []struct {
		Title          string                         `json:"title"`
		Activities     []types.ItineraryActivity      `json:"activities"`
		Transportation *types.ItineraryTransportation `json:"transportation"`
		Notes          string                         `json:"notes"`
	} `json:"days"`
	BudgetBreakdown []struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	} `json:"budget_breakdown"`
	TotalBudget *float64 `json:"total_budget"`
}

func parseGeneratedPlan(obj map[string]any, duration int, start time.Time) (*generatedPlan, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrs.ErrGeneration, err)
	}
	var mp modelPlan
	if err := json.Unmarshal(raw, &mp); err != nil {
		return nil, fmt.Errorf("%w: model plan has the wrong shape: %v", domainerrs.ErrGeneration, err)
	}
	if len(mp.Days) == 0 {
		return nil, fmt.Errorf("%w: model returned no days", domainerrs.ErrGeneration)
	}
	if len(mp.Days) < duration {
		return nil, fmt.Errorf("%w: model returned %d of %d days", domainerrs.ErrGeneration, len(mp.Days), duration)
	}
	if len(mp.Days) > duration {
		mp.Days = mp.Days[:duration]
	}
	days := make([]types.ItineraryDay, 0, len(mp.Days))
	for i, d := range mp.Days {
		day := types.ItineraryDay{
			DayNumber:      i + 1,
			Date:           start.AddDate(0, 0, i).Format(itinerary.DateLayout),
			Title:          strings.TrimSpace(d.Title),
			Activities:     d.Activities,
			Transportation: d.Transportation,
			Notes:          strings.TrimSpace(d.Notes),
		}
		if day.Title == "" {
			day.Title = fmt.Sprintf("Day %d", i+1)
		}
		if day.Activities == nil {
			day.Activities = []types.ItineraryActivity{}
		}
		if day.Transportation != nil && strings.TrimSpace(day.Transportation.Type) == "" {
			day.Transportation = nil
		}
		if err := day.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrs.ErrGeneration, err)
		}
		days = append(days, day)
	}
	plan := &generatedPlan{days: days, ai: true, total: mp.TotalBudget}
	if len(mp.BudgetBreakdown) > 0 {
		plan.breakdown = map[string]float64{}
		for _, b := range mp.BudgetBreakdown {
			if c := strings.TrimSpace(b.Category); c != "" && b.Amount >= 0 {
				plan.breakdown[c] += b.Amount
			}
		}
	}
	return plan, nil
}

const itinerarySystemPrompt = "You are a travel planner. You produce realistic day-by-day itineraries with a morning, afternoon and evening activity per day, transportation advice and per-activity cost estimates in USD for one traveler."

func itineraryUserPrompt(p GeneratePreferences) string {
	interests := "General sightseeing"
	if len(p.Interests) > 0 {
		interests = strings.Join(p.Interests, ", ")
	}
	return fmt.Sprintf(
		"Create a detailed %d-day travel itinerary for %s starting %s.\n\nPreferences:\n- Budget: %s\n- Interests: %s\n- Travel style: %s\n- Travelers: %d\n\nReturn exactly %d days.",
		p.Duration, p.Destination, p.StartDate, p.Budget, interests, p.TravelStyle, p.Travelers, p.Duration,
	)
}

var itinerarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"days": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{"type": "string"},
					"activities": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"time":           map[string]any{"type": "string"},
								"title":          map[string]any{"type": "string"},
								"description":    map[string]any{"type": "string"},
								"location":       map[string]any{"type": "string"},
								"duration":       map[string]any{"type": "string"},
								"estimated_cost": map[string]any{"type": "number"},
								"type":           map[string]any{"type": "string"},
							},
							"required":             []string{"time", "title", "description", "location", "duration", "estimated_cost", "type"},
							"additionalProperties": false,
						},
					},
					"transportation": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"type":           map[string]any{"type": "string"},
							"estimated_cost": map[string]any{"type": "number"},
						},
						"required":             []string{"type", "estimated_cost"},
						"additionalProperties": false,
					},
					"notes": map[string]any{"type": "string"},
				},
				"required":             []string{"title", "activities", "transportation", "notes"},
				"additionalProperties": false,
			},
		},
		"budget_breakdown": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category": map[string]any{"type": "string"},
					"amount":   map[string]any{"type": "number"},
				},
				"required":             []string{"category", "amount"},
				"additionalProperties": false,
			},
		},
		"total_budget": map[string]any{"type": []string{"number", "null"}},
	},
	"required":             []string{"days", "budget_breakdown", "total_budget"},
	"additionalProperties": false,
}
