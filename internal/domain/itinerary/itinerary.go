package itinerary

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusConfirmed = "confirmed"
	StatusArchived  = "archived"

	SourceUser     = "user"
	SourceAI       = "ai"
	SourceTemplate = "template"

	BasisComputed   = "computed"
	BasisAIEstimate = "ai_estimate"

	DateLayout = "2006-01-02"
)

// Itinerary is a user's trip plan. At most one non-archived row exists per user.
type Itinerary struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;index" json:"user_id"`

	Title        string `gorm:"column:title;not null;default:''" json:"title"`
	Destination  string `gorm:"column:destination;not null" json:"destination"`
	StartDate    string `gorm:"column:start_date;not null" json:"start_date"`
	EndDate      string `gorm:"column:end_date;not null" json:"end_date"`
	DurationDays int    `gorm:"column:duration_days;not null" json:"duration_days"`
	Travelers    int    `gorm:"column:travelers;not null;default:1" json:"travelers"`
	Description  string `gorm:"column:description;type:text;not null;default:''" json:"description"`

	Status        string `gorm:"column:status;not null;default:'draft';index" json:"status"`
	GeneratedByAI bool   `gorm:"column:generated_by_ai;not null;default:false" json:"generated_by_ai"`
	Source        string `gorm:"column:source;not null;default:'user'" json:"source"`

	Budget      datatypes.JSONType[Budget] `gorm:"column:budget" json:"budget"`
	Days        datatypes.JSONSlice[Day]   `gorm:"column:days" json:"days"`
	Preferences datatypes.JSONMap          `gorm:"column:preferences" json:"preferences,omitempty"`

	// Version is bumped on every update and checked with WHERE version = ?.
	Version int64 `gorm:"column:version;not null;default:1" json:"version"`

	ArchivedAt *time.Time `gorm:"column:archived_at;index" json:"archived_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Itinerary) TableName() string { return "itinerary" }

type Day struct {
	DayNumber          int             `json:"day_number"`
	Date               string          `json:"date"`
	Title              string          `json:"title"`
	Activities         []Activity      `json:"activities"`
	Transportation     *Transportation `json:"transportation,omitempty"`
	TotalEstimatedCost float64         `json:"total_estimated_cost"`
	Notes              string          `json:"notes,omitempty"`
}

type Activity struct {
	Time          string  `json:"time"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Location      string  `json:"location,omitempty"`
	Duration      string  `json:"duration"`
	EstimatedCost float64 `json:"estimated_cost"`
	Type          string  `json:"type"`
}

type Transportation struct {
	Type          string  `json:"type"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Budget.TotalEstimated equals ComputedTotal unless Basis is ai_estimate.
type Budget struct {
	Currency       string             `json:"currency"`
	Level          string             `json:"level,omitempty"`
	TotalEstimated float64            `json:"total_estimated"`
	ComputedTotal  float64            `json:"computed_total"`
	Basis          string             `json:"basis"`
	Breakdown      map[string]float64 `json:"breakdown,omitempty"`
}
