package booking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type SearchRecordRepo interface {
	Create(dbc dbctx.Context, row *types.SearchRecord) error
	ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.SearchRecord, error)
	PruneOld(dbc dbctx.Context, userID string, keep int) (int64, error)
}

type searchRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchRecordRepo(db *gorm.DB, baseLog *logger.Logger) SearchRecordRepo {
	return &searchRecordRepo{db: db, log: baseLog.With("repo", "SearchRecordRepo")}
}

func (r *searchRecordRepo) Create(dbc dbctx.Context, row *types.SearchRecord) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).WithContext(dbc.Ctx).Create(row).Error
}

func (r *searchRecordRepo) ListRecent(dbc dbctx.Context, userID string, limit int) ([]*types.SearchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.SearchRecord
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PruneOld keeps the newest keep searches of a user.
func (r *searchRecordRepo) PruneOld(dbc dbctx.Context, userID string, keep int) (int64, error) {
	t := dbc.DB(r.db).WithContext(dbc.Ctx)
	var keepIDs []uuid.UUID
	if err := t.Model(&types.SearchRecord{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(keep).
		Pluck("id", &keepIDs).Error; err != nil {
		return 0, err
	}
	q := t.Where("user_id = ?", userID)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	res := q.Delete(&types.SearchRecord{})
	return res.RowsAffected, res.Error
}
