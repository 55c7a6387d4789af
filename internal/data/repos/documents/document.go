package documents

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/dberr"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type DocumentRepo interface {
	Create(dbc dbctx.Context, row *types.Document) error
	GetByKey(dbc dbctx.Context, userID, key string) (*types.Document, error)
	ListByUser(dbc dbctx.Context, userID string) ([]*types.Document, error)
	UpdateFields(dbc dbctx.Context, userID, key string, updates map[string]any) error
	MarkBackedUp(dbc dbctx.Context, userID string, keys []string, at time.Time) (int64, error)
	Delete(dbc dbctx.Context, userID, key string) (bool, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, row *types.Document) error {
	if row == nil {
		return nil
	}
	if row.Key == "" || row.UserID == "" {
		return fmt.Errorf("document key and user id required")
	}
	return dberr.Translate(dbc.DB(r.db).WithContext(dbc.Ctx).Create(row).Error, "document")
}

func (r *documentRepo) GetByKey(dbc dbctx.Context, userID, key string) (*types.Document, error) {
	var row types.Document
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where(`"key" = ? AND user_id = ?`, key, userID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListByUser returns documents newest first.
func (r *documentRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.Document, error) {
	var rows []*types.Document
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Order(`"key" DESC`).
		Find(&rows).Error
	return rows, err
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, userID, key string, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where(`"key" = ? AND user_id = ?`, key, userID).
		Updates(updates).Error
}

func (r *documentRepo) MarkBackedUp(dbc dbctx.Context, userID string, keys []string, at time.Time) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where(`user_id = ? AND "key" IN ?`, userID, keys).
		Updates(map[string]any{
			"backed_up":    true,
			"backed_up_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

func (r *documentRepo) Delete(dbc dbctx.Context, userID, key string) (bool, error) {
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where(`"key" = ? AND user_id = ?`, key, userID).
		Delete(&types.Document{})
	return res.RowsAffected > 0, res.Error
}
