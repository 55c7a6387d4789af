package itinerary

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/travel-companion-backend/internal/data/repos/dberr"
	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	domainerrs "github.com/yungbote/travel-companion-backend/internal/pkg/errors"
)

type ItineraryRepo interface {
	GetActive(dbc dbctx.Context, userID string) (*types.Itinerary, error)
	Create(dbc dbctx.Context, row *types.Itinerary) error
	UpdateVersioned(dbc dbctx.Context, row *types.Itinerary, expectedVersion int64) error
	Archive(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	ListArchived(dbc dbctx.Context, userID string, limit int) ([]*types.Itinerary, error)
	PruneArchived(dbc dbctx.Context, userID string, keep int) (int64, error)
	ListActiveUserIDs(dbc dbctx.Context, limit int) ([]string, error)
}

type itineraryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItineraryRepo(db *gorm.DB, baseLog *logger.Logger) ItineraryRepo {
	return &itineraryRepo{db: db, log: baseLog.With("repo", "ItineraryRepo")}
}

func (r *itineraryRepo) GetActive(dbc dbctx.Context, userID string) (*types.Itinerary, error) {
	var row types.Itinerary
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND status <> ?", userID, types.ItineraryStatusArchived).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *itineraryRepo) Create(dbc dbctx.Context, row *types.Itinerary) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.Version == 0 {
		row.Version = 1
	}
	return dberr.Translate(dbc.DB(r.db).WithContext(dbc.Ctx).Create(row).Error, "active itinerary")
}

// UpdateVersioned writes every mutable column when the stored version still
// equals expectedVersion, and bumps the version.
func (r *itineraryRepo) UpdateVersioned(dbc dbctx.Context, row *types.Itinerary, expectedVersion int64) error {
	if row == nil || row.ID == uuid.Nil {
		return fmt.Errorf("itinerary id required")
	}
	now := time.Now().UTC()
	res := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Itinerary{}).
		Where("id = ? AND version = ?", row.ID, expectedVersion).
		Updates(map[string]any{
			"title":         row.Title,
			"destination":   row.Destination,
			"start_date":    row.StartDate,
			"end_date":      row.EndDate,
			"duration_days": row.DurationDays,
			"travelers":     row.Travelers,
			"description":   row.Description,
			"status":        row.Status,
			"budget":        row.Budget,
			"days":          row.Days,
			"preferences":   row.Preferences,
			"version":       expectedVersion + 1,
			"updated_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: itinerary was modified concurrently", domainerrs.ErrConflict)
	}
	row.Version = expectedVersion + 1
	row.UpdatedAt = now
	return nil
}

func (r *itineraryRepo) Archive(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Itinerary{}).
		Where("id = ? AND status <> ?", id, types.ItineraryStatusArchived).
		Updates(map[string]any{
			"status":      types.ItineraryStatusArchived,
			"archived_at": at,
			"updated_at":  at,
		}).Error
}

func (r *itineraryRepo) ListArchived(dbc dbctx.Context, userID string, limit int) ([]*types.Itinerary, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []*types.Itinerary
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND status = ?", userID, types.ItineraryStatusArchived).
		Order("archived_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PruneArchived hard-deletes archived itineraries beyond the newest keep.
func (r *itineraryRepo) PruneArchived(dbc dbctx.Context, userID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	t := dbc.DB(r.db).WithContext(dbc.Ctx)
	var keepIDs []uuid.UUID
	if err := t.Model(&types.Itinerary{}).
		Where("user_id = ? AND status = ?", userID, types.ItineraryStatusArchived).
		Order("archived_at DESC").
		Order("id DESC").
		Limit(keep).
		Pluck("id", &keepIDs).Error; err != nil {
		return 0, err
	}
	q := t.Where("user_id = ? AND status = ?", userID, types.ItineraryStatusArchived)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}
	res := q.Delete(&types.Itinerary{})
	return res.RowsAffected, res.Error
}

func (r *itineraryRepo) ListActiveUserIDs(dbc dbctx.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}
	var ids []string
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Itinerary{}).
		Where("status <> ?", types.ItineraryStatusArchived).
		Order("updated_at DESC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}
