package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"admissions-advisor/internal/pkg/pdfextract"
	"admissions-advisor/internal/pkg/textchunk"
	"admissions-advisor/internal/platform/rabbitmq"
	"admissions-advisor/internal/repository"
)

// DocumentIngestWorker consumes ingest jobs, extracts text from the stored
// PDF, splits it into chunks and marks the document ready.
type DocumentIngestWorker struct {
	conn      *amqp.Connection
	docRepo   *repository.DocumentRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDocumentIngestWorker(conn *amqp.Connection, docRepo *repository.DocumentRepository, queueName string) *DocumentIngestWorker {
	return &DocumentIngestWorker{
		conn:      conn,
		docRepo:   docRepo,
		queueName: queueName,
	}
}

func (w *DocumentIngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	// Durable queue, no dead-letter exchange: deliveries Nacked below
	// (undecodable payloads, repository errors) are dropped after the log
	// line rather than redelivered. The document row keeps its pending or
	// failed status, so a dropped job is visible in the library listing.
	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var job rabbitmq.IngestJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("worker decode ingest job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.ingest(job.DocumentID); err != nil {
					log.Printf("worker ingest document %d failed: %v", job.DocumentID, err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// ingest runs one extraction. Extraction failures mark the document failed and
// are not returned, so the delivery is acked and not retried forever.
func (w *DocumentIngestWorker) ingest(documentID uint) error {
	doc, err := w.docRepo.GetByID(documentID)
	if err != nil {
		return err
	}
	if doc == nil {
		log.Printf("worker ingest: document %d no longer exists, skipping", documentID)
		return nil
	}

	f, err := os.Open(doc.StoredPath)
	if err != nil {
		return w.docRepo.MarkFailed(doc.ID, fmt.Sprintf("open stored file: %v", err))
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		return w.docRepo.MarkFailed(doc.ID, fmt.Sprintf("extract text: %v", err))
	}
	chunks := textchunk.Split(text, textchunk.DefaultChunkSize, textchunk.DefaultOverlap)
	if len(chunks) == 0 {
		return w.docRepo.MarkFailed(doc.ID, "no extractable text")
	}

	if err := w.docRepo.ReplaceChunks(doc.ID, chunks); err != nil {
		return err
	}
	return w.docRepo.MarkReady(doc.ID, len(chunks))
}

func (w *DocumentIngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
