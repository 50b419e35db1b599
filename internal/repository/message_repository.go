package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"admissions-advisor/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a turn and refreshes the parent session's updated_at.
// Appending to a session that does not exist fails with
// gorm.ErrForeignKeyViolated and writes nothing.
func (r *MessageRepository) Create(message *model.ChatMessage) error {
	if !model.ValidRole(message.Role) {
		return fmt.Errorf("create message failed: role %q not permitted", message.Role)
	}

	var count int64
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", message.SessionID).Count(&count).Error; err != nil {
		return fmt.Errorf("check session exists failed: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("create message failed: %w", gorm.ErrForeignKeyViolated)
	}

	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}

	if err := r.db.Model(&model.ChatSession{}).
		Where("id = ?", message.SessionID).
		Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("touch session failed: %w", err)
	}
	return nil
}

// ListBySessionID returns every turn of a session in creation order, ties
// broken by ascending id.
func (r *MessageRepository) ListBySessionID(sessionID uint) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// ListRecentBySessionID returns the newest limit turns in chronological order.
func (r *MessageRepository) ListRecentBySessionID(sessionID uint, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}

	var recent []model.ChatMessage
	if err := r.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&recent).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}

	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (r *MessageRepository) DeleteBySessionID(sessionID uint) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
		return fmt.Errorf("delete messages failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) CountBySessionID(sessionID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.ChatMessage{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return count, nil
}
