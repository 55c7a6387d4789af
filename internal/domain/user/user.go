package user

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is created on first contact. The id is the opaque identifier the
// client presents; this service never deletes users.
type User struct {
	ID          string            `gorm:"type:text;primaryKey" json:"id"`
	DisplayName string            `gorm:"column:display_name;not null;default:''" json:"display_name,omitempty"`
	Preferences datatypes.JSONMap `gorm:"column:preferences" json:"preferences,omitempty"`

	// NextMessageSeq is the next conversation sequence number, allocated under a row lock.
	NextMessageSeq int64 `gorm:"column:next_message_seq;not null;default:1" json:"-"`

	LastSeenAt *time.Time     `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }
