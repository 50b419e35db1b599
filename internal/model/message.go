package model

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is a single stored turn. Rows are append-only; ordering within a
// session is created_at ascending with ties broken by id.
type ChatMessage struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	SessionID uint         `gorm:"not null;index" json:"session_id"`
	Role      string       `gorm:"size:20;not null;index" json:"role"`
	Content   string       `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time    `gorm:"index" json:"created_at"`
	Session   *ChatSession `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

// ValidRole reports whether role is one of the two permitted turn roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
