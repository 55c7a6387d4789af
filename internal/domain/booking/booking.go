package booking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TypeFlight    = "flight"
	TypeHotel     = "hotel"
	TypeCarRental = "car_rental"

	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Booking is a reservation made elsewhere that the user recorded here.
// Flight bookings feed the check-in, departure and gate alerts.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:text;not null;index" json:"user_id"`
	BookingRef string    `gorm:"column:booking_ref;not null;default:''" json:"booking_ref"`
	Type       string    `gorm:"column:type;not null" json:"type"`
	Status     string    `gorm:"column:status;not null;default:'confirmed';index" json:"status"`

	FlightNumber string     `gorm:"column:flight_number;not null;default:''" json:"flight_number,omitempty"`
	Gate         string     `gorm:"column:gate;not null;default:''" json:"gate,omitempty"`
	DepartureAt  *time.Time `gorm:"column:departure_at;index" json:"departure_at,omitempty"`

	Details   datatypes.JSONMap `gorm:"column:details" json:"details,omitempty"`
	CreatedAt time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Booking) TableName() string { return "booking" }

// SearchRecord is a provider search kept for the user's recent history.
type SearchRecord struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string            `gorm:"type:text;not null;index" json:"user_id"`
	SearchType  string            `gorm:"column:search_type;not null" json:"booking_type"`
	Criteria    datatypes.JSONMap `gorm:"column:criteria" json:"criteria"`
	ResultCount int               `gorm:"column:result_count;not null;default:0" json:"result_count"`
	Mock        bool              `gorm:"column:mock;not null;default:false" json:"mock"`
	CreatedAt   time.Time         `gorm:"not null;autoCreateTime;index" json:"timestamp"`
}

func (SearchRecord) TableName() string { return "search_record" }
