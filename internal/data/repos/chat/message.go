package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type ConversationMessageRepo interface {
	Create(dbc dbctx.Context, rows []*types.ConversationMessage) ([]*types.ConversationMessage, error)
	ListRecent(dbc dbctx.Context, userID string, limit int, now time.Time) ([]*types.ConversationMessage, error)
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type conversationMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationMessageRepo(db *gorm.DB, baseLog *logger.Logger) ConversationMessageRepo {
	return &conversationMessageRepo{db: db, log: baseLog.With("repo", "ConversationMessageRepo")}
}

func (r *conversationMessageRepo) Create(dbc dbctx.Context, rows []*types.ConversationMessage) ([]*types.ConversationMessage, error) {
	if len(rows) == 0 {
		return []*types.ConversationMessage{}, nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
	}
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRecent returns the newest unexpired messages in ascending seq order.
func (r *conversationMessageRepo) ListRecent(dbc dbctx.Context, userID string, limit int, now time.Time) ([]*types.ConversationMessage, error) {
	if userID == "" {
		return []*types.ConversationMessage{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	var rows []*types.ConversationMessage
	if err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND expires_at > ?", userID, now).
		Order("seq DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (r *conversationMessageRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("expires_at <= ?", now).
		Delete(&types.ConversationMessage{})
	return res.RowsAffected, res.Error
}
