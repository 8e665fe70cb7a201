package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"intelidoc/internal/model"
	"intelidoc/internal/platform/rabbitmq"
	"intelidoc/internal/repository"
	"intelidoc/internal/search"
)

// IndexWorker consumes index jobs, computes the embedding, persists it and
// installs the entry into the in-process search index. Keeping the HTTP
// path free of embedding latency is the whole point of this worker.
type IndexWorker struct {
	conn        *amqp.Connection
	embedder    search.Embedder
	index       *search.Index
	obligations *repository.ObligationRepository
	entries     *repository.IndexEntryRepository
	queueName   string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIndexWorker(
	conn *amqp.Connection,
	embedder search.Embedder,
	index *search.Index,
	obligations *repository.ObligationRepository,
	entries *repository.IndexEntryRepository,
	queueName string,
) *IndexWorker {
	return &IndexWorker{
		conn:        conn,
		embedder:    embedder,
		index:       index,
		obligations: obligations,
		entries:     entries,
		queueName:   queueName,
	}
}

func (w *IndexWorker) Start(ctx context.Context) error {
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

				var job rabbitmq.IndexJob
				if err := json.Unmarshal(d.Body, &job); err != nil {
					log.Printf("index worker decode job failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.handle(workerCtx, job); err != nil {
					log.Printf("index worker obligation %d failed: %v", job.ObligationID, err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *IndexWorker) handle(ctx context.Context, job rabbitmq.IndexJob) error {
	obligation, err := w.obligations.GetByID(job.ObligationID)
	if err != nil {
		return err
	}
	if obligation == nil {
		// Deleted between publish and consume; nothing to index.
		return nil
	}

	text := job.Text
	if text == "" {
		text = obligation.Text
	}

	vec, err := w.index.Upsert(ctx, obligation.ID, text, obligation.Category, derefOr(obligation.Priority), obligation.CreatedAt)
	if err != nil {
		return err
	}

	entry := &model.IndexEntry{ObligationID: obligation.ID}
	entry.SetEmbedding(vec)
	return w.entries.Upsert(entry)
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (w *IndexWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
