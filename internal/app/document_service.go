package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"admissions-advisor/internal/model"
	"admissions-advisor/internal/platform/rabbitmq"
	"admissions-advisor/internal/repository"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrIngestEnqueue    = errors.New("ingest enqueue failed")
)

// IngestPublisher hands an uploaded document to the background worker.
type IngestPublisher interface {
	Publish(ctx context.Context, job rabbitmq.IngestJob) error
}

// DocumentService manages the admissions knowledge library: uploaded PDFs and
// their extracted chunks. Extraction happens asynchronously; an upload only
// stores the file and queues an ingest job.
type DocumentService struct {
	docRepo   *repository.DocumentRepository
	publisher IngestPublisher
	uploadDir string
}

type UploadInput struct {
	Name     string
	Filename string
	Reader   io.Reader
}

func NewDocumentService(docRepo *repository.DocumentRepository, publisher IngestPublisher, uploadDir string) *DocumentService {
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &DocumentService{
		docRepo:   docRepo,
		publisher: publisher,
		uploadDir: uploadDir,
	}
}

// Upload stores the PDF under a uuid-prefixed name, records the document as
// pending and queues it for ingest.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*model.Document, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = strings.TrimSuffix(input.Filename, filepath.Ext(input.Filename))
		if name == "" {
			name = "Untitled"
		}
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}

	storedName := uuid.NewString() + "_" + filepath.Base(input.Filename)
	storedPath := filepath.Join(s.uploadDir, storedName)
	out, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("store upload failed: %w", err)
	}
	if _, err := io.Copy(out, input.Reader); err != nil {
		out.Close()
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("write upload failed: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("close upload failed: %w", err)
	}

	doc := &model.Document{
		Name:       name,
		StoredPath: storedPath,
		Status:     model.DocumentStatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		_ = os.Remove(storedPath)
		return nil, err
	}

	if s.publisher == nil {
		return nil, ErrIngestEnqueue
	}
	if err := s.publisher.Publish(ctx, rabbitmq.IngestJob{DocumentID: doc.ID}); err != nil {
		_ = s.docRepo.MarkFailed(doc.ID, "enqueue failed")
		return nil, ErrIngestEnqueue
	}
	return doc, nil
}

func (s *DocumentService) List() ([]model.Document, error) {
	return s.docRepo.List()
}

// Delete removes the document row, its chunks and the stored file.
func (s *DocumentService) Delete(id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.docRepo.Delete(id); err != nil {
		return err
	}
	if doc.StoredPath != "" {
		_ = os.Remove(doc.StoredPath)
	}
	return nil
}
