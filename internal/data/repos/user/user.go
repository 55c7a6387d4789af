package user

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type UserRepo interface {
	Ensure(dbc dbctx.Context, userID string) (*types.User, error)
	GetByID(dbc dbctx.Context, userID string) (*types.User, error)
	LockByID(dbc dbctx.Context, userID string) (*types.User, error)
	AllocateMessageSeq(dbc dbctx.Context, userID string, n int) (int64, error)
	ListSeenSince(dbc dbctx.Context, since time.Time, limit int) ([]string, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

// Ensure creates the user on first contact and refreshes last_seen_at.
func (r *userRepo) Ensure(dbc dbctx.Context, userID string) (*types.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	t := dbc.DB(r.db)
	now := time.Now().UTC()
	row := &types.User{ID: userID, NextMessageSeq: 1, LastSeenAt: &now}
	if err := t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{"last_seen_at": now}),
		}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByID(dbc, userID)
}

func (r *userRepo) GetByID(dbc dbctx.Context, userID string) (*types.User, error) {
	var row types.User
	err := dbc.DB(r.db).WithContext(dbc.Ctx).Where("id = ?", userID).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *userRepo) LockByID(dbc dbctx.Context, userID string) (*types.User, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires a transaction")
	}
	var row types.User
	err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", userID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// AllocateMessageSeq reserves n consecutive sequence numbers and returns the first.
func (r *userRepo) AllocateMessageSeq(dbc dbctx.Context, userID string, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("n must be positive")
	}
	u, err := r.LockByID(dbc, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, fmt.Errorf("user %q not found", userID)
	}
	first := u.NextMessageSeq
	if first < 1 {
		first = 1
	}
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"next_message_seq": first + int64(n),
			"updated_at":       time.Now().UTC(),
		}).Error; err != nil {
		return 0, err
	}
	return first, nil
}

func (r *userRepo) ListSeenSince(dbc dbctx.Context, since time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 1000
	}
	var ids []string
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.User{}).
		Where("last_seen_at >= ?", since).
		Order("last_seen_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
