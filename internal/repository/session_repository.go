package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"admissions-advisor/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) GetByToken(token string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("session_token = ?", token).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by token failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) GetByID(sessionID uint) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id failed: %w", err)
	}
	return &session, nil
}

// GetOrCreateByToken returns the session for token, inserting one if absent.
// The unique index on session_token is the backstop for concurrent first
// requests: a duplicate-key insert means another request won the race, so the
// row is re-read instead of failing.
func (r *SessionRepository) GetOrCreateByToken(token string) (*model.ChatSession, error) {
	session, err := r.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	created := &model.ChatSession{SessionToken: token}
	if err := r.db.Create(created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.GetByToken(token)
		}
		return nil, fmt.Errorf("create session failed: %w", err)
	}
	return created, nil
}

func (r *SessionRepository) UpdateTitle(sessionID uint, title string) error {
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", sessionID).Update("title", title).Error; err != nil {
		return fmt.Errorf("update session title failed: %w", err)
	}
	return nil
}

// ListRecent returns sessions ordered by last activity, newest first.
func (r *SessionRepository) ListRecent(limit int) ([]model.ChatSession, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var sessions []model.ChatSession
	if err := r.db.Order("updated_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return sessions, nil
}

// DeleteByID removes a session and all its messages. Deleting a session that
// does not exist is a no-op. Messages are deleted explicitly inside the same
// transaction so clears behave identically on stores without enforced foreign
// keys; ON DELETE CASCADE remains the schema-level backstop.
func (r *SessionRepository) DeleteByID(sessionID uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.ChatSession{}, sessionID).Error
	})
	if err != nil {
		return fmt.Errorf("delete session failed: %w", err)
	}
	return nil
}
