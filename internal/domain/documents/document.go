package documents

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TypeIdentification = "identification"
	TypeFlight         = "flight_document"
	TypeAccommodation  = "accommodation"
	TypeInsurance      = "insurance"
	TypeItinerary      = "itinerary"
	TypeOther          = "other"
)

var Types = []string{TypeIdentification, TypeFlight, TypeAccommodation, TypeInsurance, TypeItinerary, TypeOther}

func IsKnownType(t string) bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Document is the metadata of an uploaded travel document. The blob lives in
// object storage under Key. Stage flags only move from false to true.
type Document struct {
	Key    string `gorm:"type:text;primaryKey" json:"key"`
	UserID string `gorm:"type:text;not null;index" json:"user_id"`

	Filename      string `gorm:"column:filename;not null" json:"filename"`
	ContentType   string `gorm:"column:content_type;not null;default:'application/octet-stream'" json:"content_type"`
	Size          int64  `gorm:"column:size;not null;default:0" json:"size"`
	DocumentType  string `gorm:"column:document_type;not null;index" json:"document_type"`
	TypeConfirmed bool   `gorm:"column:type_confirmed;not null;default:false" json:"type_confirmed"`

	Scanned   bool `gorm:"column:scanned;not null;default:false" json:"scanned"`
	Organized bool `gorm:"column:organized;not null;default:false" json:"organized"`
	BackedUp  bool `gorm:"column:backed_up;not null;default:false" json:"backed_up"`

	Tags          datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	ExtractedText string                      `gorm:"column:extracted_text;type:text;not null;default:''" json:"extracted_text,omitempty"`
	WordCount     int                         `gorm:"column:word_count;not null;default:0" json:"word_count"`

	ScannedAt   *time.Time `gorm:"column:scanned_at" json:"scanned_at,omitempty"`
	OrganizedAt *time.Time `gorm:"column:organized_at" json:"organized_at,omitempty"`
	BackedUpAt  *time.Time `gorm:"column:backed_up_at" json:"backed_up_at,omitempty"`

	UploadedAt time.Time `gorm:"column:uploaded_at;not null;index" json:"upload_date"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Document) TableName() string { return "document" }
