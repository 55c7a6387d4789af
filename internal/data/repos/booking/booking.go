package booking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/travel-companion-backend/internal/domain"
	"github.com/yungbote/travel-companion-backend/internal/domain/booking"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

type BookingRepo interface {
	Create(dbc dbctx.Context, row *types.Booking) error
	ListByUser(dbc dbctx.Context, userID string) ([]*types.Booking, error)
	ListFlightsDepartingBetween(dbc dbctx.Context, userID string, from, to time.Time) ([]*types.Booking, error)
	UpdateGate(dbc dbctx.Context, id uuid.UUID, gate string) error
}

type bookingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBookingRepo(db *gorm.DB, baseLog *logger.Logger) BookingRepo {
	return &bookingRepo{db: db, log: baseLog.With("repo", "BookingRepo")}
}

func (r *bookingRepo) Create(dbc dbctx.Context, row *types.Booking) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return dbc.DB(r.db).WithContext(dbc.Ctx).Create(row).Error
}

func (r *bookingRepo) ListByUser(dbc dbctx.Context, userID string) ([]*types.Booking, error) {
	var rows []*types.Booking
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *bookingRepo) ListFlightsDepartingBetween(dbc dbctx.Context, userID string, from, to time.Time) ([]*types.Booking, error) {
	var rows []*types.Booking
	err := dbc.DB(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND type = ? AND status = ?", userID, booking.TypeFlight, booking.StatusConfirmed).
		Where("departure_at IS NOT NULL AND departure_at >= ? AND departure_at <= ?", from, to).
		Order("departure_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *bookingRepo) UpdateGate(dbc dbctx.Context, id uuid.UUID, gate string) error {
	return dbc.DB(r.db).WithContext(dbc.Ctx).
		Model(&types.Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"gate": gate, "updated_at": time.Now().UTC()}).Error
}
