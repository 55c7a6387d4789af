package alerts

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeFlightCheckinReminder = "flight_checkin_reminder"
	TypeDepartureReminder     = "departure_reminder"
	TypeGateChange            = "gate_change"
	TypeSevereWeather         = "severe_weather"
	TypeWeatherAdvisory       = "weather_advisory"
	TypeTravelAdvisory        = "travel_advisory"
	TypeDocumentExpiry        = "document_expiry"
	TypeSecurity              = "security"
	TypeCustom                = "custom"
)

// Types is the closed set of alert types.
var Types = []string{
	TypeFlightCheckinReminder,
	TypeDepartureReminder,
	TypeGateChange,
	TypeSevereWeather,
	TypeWeatherAdvisory,
	TypeTravelAdvisory,
	TypeDocumentExpiry,
	TypeSecurity,
	TypeCustom,
}

func IsKnownType(t string) bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

const (
	MinPriority = 1
	MaxPriority = 5
)

// Alert is a prioritized notification. No two live (non-dismissed) alerts of a
// user share (type, dedup_key).
type Alert struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;index" json:"user_id"`

	Type           string `gorm:"column:type;not null" json:"type"`
	Title          string `gorm:"column:title;not null" json:"title"`
	Message        string `gorm:"column:message;type:text;not null;default:''" json:"message"`
	Priority       int    `gorm:"column:priority;not null" json:"priority"`
	ActionRequired bool   `gorm:"column:action_required;not null;default:false" json:"action_required"`
	Action         string `gorm:"column:action;not null;default:''" json:"action,omitempty"`
	DedupKey       string `gorm:"column:dedup_key;not null" json:"-"`

	Location  string `gorm:"column:location;not null;default:''" json:"location,omitempty"`
	BookingID string `gorm:"column:booking_id;not null;default:''" json:"booking_id,omitempty"`
	Date      string `gorm:"column:date;not null;default:''" json:"date,omitempty"`
	URL       string `gorm:"column:url;not null;default:''" json:"url,omitempty"`
	Source    string `gorm:"column:source;not null;default:''" json:"source,omitempty"`

	TriggerDate *time.Time `gorm:"column:trigger_date" json:"trigger_date,omitempty"`
	UserCreated bool       `gorm:"column:user_created;not null;default:false" json:"user_created"`

	Dismissed   bool       `gorm:"column:dismissed;not null;default:false;index" json:"dismissed"`
	DismissedAt *time.Time `gorm:"column:dismissed_at" json:"dismissed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"timestamp"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Alert) TableName() string { return "alert" }
