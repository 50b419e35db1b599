package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"admissions-advisor/internal/model"
	"admissions-advisor/internal/platform/rabbitmq"
	"admissions-advisor/internal/repository"
)

type recordingPublisher struct {
	jobs []rabbitmq.IngestJob
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, job rabbitmq.IngestJob) error {
	_ = ctx
	p.jobs = append(p.jobs, job)
	return p.err
}

func TestUpload_StoresFileAndQueuesIngest(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewDocumentRepository(db)
	pub := &recordingPublisher{}
	svc := NewDocumentService(repo, pub, t.TempDir())

	doc, err := svc.Upload(context.Background(), UploadInput{
		Name:     "Admission Guide 2026",
		Filename: "guide.pdf",
		Reader:   strings.NewReader("%PDF-1.4 fake body"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if doc.Status != model.DocumentStatusPending {
		t.Fatalf("expected pending status, got %q", doc.Status)
	}
	if doc.Name != "Admission Guide 2026" {
		t.Fatalf("unexpected name: %q", doc.Name)
	}
	// stored under a generated prefix, original filename kept as suffix
	if !strings.HasSuffix(doc.StoredPath, "_guide.pdf") {
		t.Fatalf("unexpected stored path: %q", doc.StoredPath)
	}
	if filepath.Base(doc.StoredPath) == "guide.pdf" {
		t.Fatal("stored name must not collide with the original filename")
	}
	if _, err := os.Stat(doc.StoredPath); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	if len(pub.jobs) != 1 || pub.jobs[0].DocumentID != doc.ID {
		t.Fatalf("expected one ingest job for document %d, got %+v", doc.ID, pub.jobs)
	}
}

func TestUpload_NameFallsBackToFilename(t *testing.T) {
	db := openTestDB(t)
	svc := NewDocumentService(repository.NewDocumentRepository(db), &recordingPublisher{}, t.TempDir())

	doc, err := svc.Upload(context.Background(), UploadInput{
		Filename: "tuition-2026.pdf",
		Reader:   strings.NewReader("body"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Name != "tuition-2026" {
		t.Fatalf("expected name from filename, got %q", doc.Name)
	}
}

func TestUpload_EnqueueFailureMarksDocumentFailed(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewDocumentRepository(db)
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewDocumentService(repo, pub, t.TempDir())

	_, err := svc.Upload(context.Background(), UploadInput{
		Filename: "guide.pdf",
		Reader:   strings.NewReader("body"),
	})
	if !errors.Is(err, ErrIngestEnqueue) {
		t.Fatalf("expected ErrIngestEnqueue, got %v", err)
	}

	docs, err := repo.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 1 || docs[0].Status != model.DocumentStatusFailed {
		t.Fatalf("expected one failed document, got %+v", docs)
	}
}

func TestDeleteDocument_RemovesRowChunksAndFile(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewDocumentRepository(db)
	svc := NewDocumentService(repo, &recordingPublisher{}, t.TempDir())

	doc, err := svc.Upload(context.Background(), UploadInput{
		Filename: "guide.pdf",
		Reader:   strings.NewReader("body"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := repo.ReplaceChunks(doc.ID, []string{"chunk a", "chunk b"}); err != nil {
		t.Fatalf("seed chunks: %v", err)
	}

	if err := svc.Delete(doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	got, err := repo.GetByID(doc.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Fatalf("expected document gone, got %+v", got)
	}
	var chunkCount int64
	if err := db.Model(&model.DocumentChunk{}).Where("document_id = ?", doc.ID).Count(&chunkCount).Error; err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if chunkCount != 0 {
		t.Fatalf("expected no orphaned chunks, got %d", chunkCount)
	}
	if _, err := os.Stat(doc.StoredPath); !os.IsNotExist(err) {
		t.Fatalf("expected stored file removed, stat err=%v", err)
	}
}

func TestDeleteDocument_Unknown(t *testing.T) {
	db := openTestDB(t)
	svc := NewDocumentService(repository.NewDocumentRepository(db), &recordingPublisher{}, t.TempDir())

	if err := svc.Delete(424242); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
