package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/alerts"
	"github.com/yungbote/travel-companion-backend/internal/domain/itinerary"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

const defaultCustomAlertTitle = "Custom Alert"

type AlertService interface {
	List(ctx context.Context, userID string) ([]*types.Alert, error)
	Generate(ctx context.Context, userID string, c AlertCandidate) (*types.Alert, bool, error)
	Dismiss(ctx context.Context, userID, alertID string) error
	CreateCustom(ctx context.Context, userID string, in CustomAlertInput) (*types.Alert, error)
	Check(ctx context.Context, userID string) (*CheckResult, error)
}

// AlertCandidate is an alert before dedup and priority assignment.
type AlertCandidate struct {
	Type           string
	Title          string
	Message        string
	Priority       int
	ActionRequired bool
	Action         string
	Location       string
	BookingID      string
	Date           string
	URL            string
	Source         string
	TriggerDate    *time.Time
	UserCreated    bool
	// Correlation overrides the derived dedup key when set.
	Correlation string
}

type CustomAlertInput struct {
	Title          string `json:"title"`
	Message        string `json:"message"`
	Priority       *int   `json:"priority"`
	TriggerDate    string `json:"trigger_date"`
	ActionRequired bool   `json:"action_required"`
	Action         string `json:"action"`
	Location       string `json:"location"`
}

type CheckResult struct {
	Created []*types.Alert `json:"created"`
	Alerts  []*types.Alert `json:"alerts"`
}

type AlertConfig struct {
	ProviderTimeout time.Duration
}

type alertService struct {
	db        *gorm.DB
	log       *logger.Logger
	alerts    repos.AlertRepo
	itins     repos.ItineraryRepo
	bookings  repos.BookingRepo
	documents repos.DocumentRepo
	providers *providers.Set
	locker    locker.Locker
	policy    *Policy
	cfg       AlertConfig
	now       func() time.Time
}

func NewAlertService(
	db *gorm.DB,
	baseLog *logger.Logger,
	alertRepo repos.AlertRepo,
	itinRepo repos.ItineraryRepo,
	bookingRepo repos.BookingRepo,
	documentRepo repos.DocumentRepo,
	providerSet *providers.Set,
	lk locker.Locker,
	policy *Policy,
	cfg AlertConfig,
) AlertService {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 8 * time.Second
	}
	return &alertService{
		db:        db,
		log:       baseLog.With("service", "AlertService"),
		alerts:    alertRepo,
		itins:     itinRepo,
		bookings:  bookingRepo,
		documents: documentRepo,
		providers: providerSet,
		locker:    lk,
		policy:    policy,
		cfg:       cfg,
		now:       time.Now,
	}
}

// DedupKey correlates alerts of one type: booking id, else date, else a
// digest of the title.
func DedupKey(c AlertCandidate) string {
	if k := strings.TrimSpace(c.Correlation); k != "" {
		return k
	}
	if k := strings.TrimSpace(c.BookingID); k != "" {
		return "booking:" + k
	}
	if k := strings.TrimSpace(c.Date); k != "" {
		return "date:" + k
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(c.Title))))
	return "title:" + hex.EncodeToString(sum[:8])
}

func (s *alertService) List(ctx context.Context, userID string) ([]*types.Alert, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.alerts.ListLive(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*types.Alert{}
	}
	return rows, nil
}

func (s *alertService) Generate(ctx context.Context, userID string, c AlertCandidate) (*types.Alert, bool, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, false, err
	}
	var (
		out     *types.Alert
		created bool
	)
	err = s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		out, created, err = s.generateLocked(dbctx.Context{Ctx: ctx}, userID, c)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// generateLocked must run under the user's lock.
func (s *alertService) generateLocked(dbc dbctx.Context, userID string, c AlertCandidate) (*types.Alert, bool, error) {
	if !alerts.IsKnownType(c.Type) {
		return nil, false, validationf("unknown alert type %q", c.Type)
	}
	if strings.TrimSpace(c.Title) == "" {
		return nil, false, validationf("alert title is required")
	}
	priority, err := s.policy.Priority(c.Type, c.Priority)
	if err != nil {
		return nil, false, validationf("%v", err)
	}
	key := DedupKey(c)
	existing, err := s.alerts.FindLive(dbc, userID, c.Type, key)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		observability.Current().IncAlert(c.Type, "suppressed")
		return existing, false, nil
	}
	row := &types.Alert{
		ID:             uuid.New(),
		UserID:         userID,
		Type:           c.Type,
		Title:          strings.TrimSpace(c.Title),
		Message:        strings.TrimSpace(c.Message),
		Priority:       priority,
		ActionRequired: c.ActionRequired,
		Action:         strings.TrimSpace(c.Action),
		DedupKey:       key,
		Location:       c.Location,
		BookingID:      c.BookingID,
		Date:           c.Date,
		URL:            c.URL,
		Source:         c.Source,
		TriggerDate:    c.TriggerDate,
		UserCreated:    c.UserCreated,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.alerts.Create(dbc, row); err != nil {
		// The partial unique index reports a racing insert as ErrConflict.
		if errors.Is(err, domainerrs.ErrConflict) {
			if existing, ferr := s.alerts.FindLive(dbc, userID, c.Type, key); ferr == nil && existing != nil {
				observability.Current().IncAlert(c.Type, "suppressed")
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	observability.Current().IncAlert(c.Type, "created")
	s.log.Debug("Alert created", "user_id", userID, "type", c.Type, "priority", priority)
	return row, true, nil
}

func (s *alertService) Dismiss(ctx context.Context, userID, alertID string) error {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(alertID))
	if err != nil {
		return notFoundf("alert not found")
	}
	return s.locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		row, err := s.alerts.GetByID(dbc, userID, id)
		if err != nil {
			return err
		}
		if row == nil {
			return notFoundf("alert not found")
		}
		if row.Dismissed {
			return nil
		}
		_, err = s.alerts.Dismiss(dbc, userID, id, s.now().UTC())
		return err
	})
}

func (s *alertService) CreateCustom(ctx context.Context, userID string, in CustomAlertInput) (*types.Alert, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultCustomAlertTitle
	}
	priority := alerts.MinPriority
	if in.Priority != nil {
		priority = ClampPriority(*in.Priority)
	}
	c := AlertCandidate{
		Type:           alerts.TypeCustom,
		Title:          title,
		Message:        in.Message,
		Priority:       priority,
		ActionRequired: in.ActionRequired,
		Action:         in.Action,
		Location:       strings.TrimSpace(in.Location),
		UserCreated:    true,
	}
	if raw := strings.TrimSpace(in.TriggerDate); raw != "" {
		t, err := parseTriggerDate(raw)
		if err != nil {
			return nil, err
		}
		c.TriggerDate = &t
		c.Date = t.Format(itinerary.DateLayout)
	}
	row, _, err := s.Generate(ctx, userID, c)
	return row, err
}

func parseTriggerDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := itinerary.ParseDate(raw); err == nil {
		return t, nil
	}
	return time.Time{}, validationf("trigger_date must be YYYY-MM-DD or RFC3339")
}
