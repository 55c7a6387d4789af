package alerts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/dberr"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type AlertRepo interface {
	Create(dbc dbctx.Context, row *types.Alert) error
	GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.Alert, error)
	FindLive(dbc dbctx.Context, userID, alertType, dedupKey string) (*types.Alert, error)
	ListLive(dbc dbctx.Context, userID string) ([]*types.Alert, error)
	Dismiss(dbc dbctx.Context, userID string, id uuid.UUID, at time.Time) (bool, error)
}

type alertRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	return &alertRepo{db: db, log: baseLog.With("repo", "AlertRepo")}
}

func (r *alertRepo) Create(dbc dbctx.Context, row *types.Alert) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dberr.Translate(dbc.DB(r.db).WithContext(dbc.Ctx).Create(row).Error, "live alert")
}

func (r *alertRepo) GetByID(dbc dbctx.Context, userID string, id uuid.UUID) (*types.Alert, error) {
	var row types.Alert
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *alertRepo) FindLive(dbc dbctx.Context, userID, alertType, dedupKey string) (*types.Alert, error) {
	var row types.Alert
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND type = ? AND dedup_key = ? AND dismissed = ?", userID, alertType, dedupKey, false).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListLive returns non-dismissed alerts, newest first with id as the tiebreak.
func (r *alertRepo) ListLive(dbc dbctx.Context, userID string) ([]*types.Alert, error) {
	var rows []*types.Alert
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND dismissed = ?", userID, false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

// Dismiss reports whether a live alert was flipped.
func (r *alertRepo) Dismiss(dbc dbctx.Context, userID string, id uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Alert{}).
		Where("id = ? AND user_id = ? AND dismissed = ?", id, userID, false).
		Updates(map[string]any{
			"dismissed":    true,
			"dismissed_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}
