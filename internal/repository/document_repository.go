package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"admissions-advisor/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) List() ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Order("created_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// MarkReady records a successful ingest together with the chunk count.
func (r *DocumentRepository) MarkReady(id uint, chunkCount int) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"status":      model.DocumentStatusReady,
		"chunk_count": chunkCount,
		"error":       "",
	}).Error; err != nil {
		return fmt.Errorf("mark document ready failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MarkFailed(id uint, reason string) error {
	if len(reason) > 512 {
		reason = reason[:512]
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
		"status": model.DocumentStatusFailed,
		"error":  reason,
	}).Error; err != nil {
		return fmt.Errorf("mark document failed failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ReplaceChunks(documentID uint, contents []string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		for i, content := range contents {
			chunk := model.DocumentChunk{
				DocumentID: documentID,
				Seq:        i,
				Content:    content,
			}
			if err := tx.Create(&chunk).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace document chunks failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&model.DocumentChunk{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Document{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
