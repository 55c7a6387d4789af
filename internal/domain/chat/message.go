package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationMessage is one entry of a user's append-only conversation.
// Seq is strictly increasing per user.
type ConversationMessage struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"type:text;not null;index:idx_conversation_message_user_seq,unique,priority:1" json:"user_id"`
	Seq    int64     `gorm:"column:seq;not null;index:idx_conversation_message_user_seq,unique,priority:2" json:"seq"`

	Role           string         `gorm:"column:role;not null" json:"role"`
	Text           string         `gorm:"column:text;type:text;not null;default:''" json:"text"`
	Intent         string         `gorm:"column:intent;not null;default:''" json:"intent,omitempty"`
	ResponseType   string         `gorm:"column:response_type;not null;default:''" json:"type,omitempty"`
	ActionRequired string         `gorm:"column:action_required;not null;default:''" json:"action_required,omitempty"`
	Data           datatypes.JSON `gorm:"column:data" json:"data,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (ConversationMessage) TableName() string { return "conversation_message" }
