package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/observability"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/locker"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/platform/openai"
	"github.com/yungbote/travel-companion-backend/internal/platform/providers"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

const (
	maxChatMessageRunes = 4000
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	degradedReply = "I'm sorry, I encountered an error processing your request. Please try again."
)

// Response types carried in ChatResponse.Type.
const (
	ReplyGeneral       = "general"
	ReplyItinerary     = "itinerary"
	ReplyAlerts        = "weather_alerts"
	ReplyDocuments     = "document_management"
	ReplyFlights       = "flight_booking"
	ReplyHotels        = "hotel_booking"
	ReplyTranslation   = "translation"
	ReplyClarification = "clarification"
	ReplyError         = "error"
)

type SessionService interface {
	Handle(ctx context.Context, userID string, req ChatRequest) (*ChatResponse, error)
	History(ctx context.Context, userID string, limit int) ([]*types.ConversationMessage, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

type ChatRequest struct {
	Message string          `json:"message"`
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type ChatResponse struct {
	Text           string `json:"text"`
	Data           any    `json:"data,omitempty"`
	ActionRequired string `json:"action_required,omitempty"`
	Type           string `json:"type,omitempty"`

	intent string
}

type SessionConfig struct {
	HistoryWindow int
	Retention     time.Duration
}

// SessionDeps are the components a conversation can reach.
type SessionDeps struct {
	Users       repos.UserRepo
	Messages    repos.ConversationMessageRepo
	Itineraries ItineraryService
	Alerts      AlertService
	Documents   DocumentService
	Bookings    BookingService
	Translation TranslationService
	Weather     providers.WeatherProvider
	LLM         openai.Client
	Locker      locker.Locker
}

type sessionService struct {
	db   *gorm.DB
	log  *logger.Logger
	deps SessionDeps
	cfg  SessionConfig
	now  func() time.Time
}

func NewSessionService(db *gorm.DB, baseLog *logger.Logger, deps SessionDeps, cfg SessionConfig) SessionService {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 30 * 24 * time.Hour
	}
	return &sessionService{
		db:   db,
		log:  baseLog.With("service", "SessionService"),
		deps: deps,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *sessionService) Handle(ctx context.Context, userID string, req ChatRequest) (resp *ChatResponse, err error) {
	userID, err = NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Action = strings.TrimSpace(req.Action)
	if req.Message == "" && req.Action == "" {
		return nil, validationf("message or action is required")
	}
	if utf8.RuneCountInString(req.Message) > maxChatMessageRunes {
		return nil, validationf("message is limited to %d characters", maxChatMessageRunes)
	}

	ctx, span := observability.StartSpan(ctx, "session.handle", attribute.Bool("chat.structured", req.Action != ""))
	defer func() { observability.EndSpan(span, err) }()

	userText := req.Message
	if userText == "" {
		userText = "/" + req.Action
	}
	if err = s.append(ctx, userID, &types.ConversationMessage{Role: types.RoleUser, Text: userText}); err != nil {
		return nil, err
	}

	if req.Action != "" {
		resp, err = s.dispatchAction(ctx, userID, req.Action, req.Payload)
	} else {
		resp, err = s.respond(ctx, userID, req.Message)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		resp = s.degrade(userID, err)
	}

	reply := &types.ConversationMessage{
		Role:           types.RoleAssistant,
		Text:           resp.Text,
		Intent:         resp.intent,
		ResponseType:   resp.Type,
		ActionRequired: resp.ActionRequired,
	}
	if resp.Data != nil {
		if raw, merr := json.Marshal(resp.Data); merr == nil {
			reply.Data = datatypes.JSON(raw)
		}
	}
	if err = s.append(ctx, userID, reply); err != nil {
		return nil, err
	}
	return resp, nil
}

// degrade turns a failure into a reply. Domain errors keep their message;
// anything else gets the generic apology.
func (s *sessionService) degrade(userID string, err error) *ChatResponse {
	switch {
	case errors.Is(err, domainerrs.ErrValidation),
		errors.Is(err, domainerrs.ErrNotFound),
		errors.Is(err, domainerrs.ErrConflict),
		errors.Is(err, domainerrs.ErrExtraction):
		return &ChatResponse{Text: userFacing(err), Type: ReplyError}
	}
	s.log.Warn("chat request degraded", "user_id", userID, "error", err)
	return &ChatResponse{Text: degradedReply, Type: ReplyError}
}

// userFacing drops the sentinel prefix from a wrapped domain error.
func userFacing(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domainerrs.ErrValidation, domainerrs.ErrNotFound, domainerrs.ErrConflict, domainerrs.ErrExtraction} {
		msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	}
	return msg
}

// append stores one message with the next sequence number, under the user's lock.
func (s *sessionService) append(ctx context.Context, userID string, msg *types.ConversationMessage) error {
	return s.deps.Locker.WithUserLock(ctx, userID, func(ctx context.Context) error {
		return inTx(ctx, s.db, func(dbc dbctx.Context) error {
			if _, err := s.deps.Users.Ensure(dbc, userID); err != nil {
				return err
			}
			seq, err := s.deps.Users.AllocateMessageSeq(dbc, userID, 1)
			if err != nil {
				return err
			}
			now := s.now().UTC()
			msg.ID = uuid.New()
			msg.UserID = userID
			msg.Seq = seq
			msg.CreatedAt = now
			msg.ExpiresAt = now.Add(s.cfg.Retention)
			_, err = s.deps.Messages.Create(dbc, []*types.ConversationMessage{msg})
			return err
		})
	})
}

func (s *sessionService) History(ctx context.Context, userID string, limit int) ([]*types.ConversationMessage, error) {
	userID, err := NormalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	rows, err := s.deps.Messages.ListRecent(dbctx.Context{Ctx: ctx}, userID, limit, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*types.ConversationMessage{}
	}
	return rows, nil
}

func (s *sessionService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.deps.Messages.DeleteExpired(dbctx.Context{Ctx: ctx}, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge conversation history: %w", err)
	}
	if n > 0 {
		s.log.Info("Expired conversation messages purged", "count", n)
	}
	return n, nil
}
