package model

import "time"

// ChatSession is one anonymous conversation thread. SessionToken is the
// browser-visible correlation key; the surrogate ID is internal.
type ChatSession struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionToken string    `gorm:"size:64;not null;uniqueIndex" json:"session_token"`
	Title        string    `gorm:"size:255" json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }
