package model

import "time"

const (
	DocumentStatusPending = "pending"
	DocumentStatusReady   = "ready"
	DocumentStatusFailed  = "failed"
)

// Document is an uploaded admissions PDF. Text extraction and chunking happen
// asynchronously; Status tracks the ingest lifecycle.
type Document struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	StoredPath string    `gorm:"size:512;not null" json:"-"`
	Status     string    `gorm:"size:16;not null;index" json:"status"`
	Error      string    `gorm:"size:512" json:"error,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Document) TableName() string { return "documents" }

type DocumentChunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index" json:"document_id"`
	Seq        int       `gorm:"not null" json:"seq"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

func (DocumentChunk) TableName() string { return "document_chunks" }
