package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"lecture-qa/internal/model"
	"lecture-qa/internal/platform/rabbitmq"
)

type ChatEntryStore interface {
	Create(entry *model.ChatEntry) error
}

// HistoryInvalidator drops a session's cached history once new entries land.
type HistoryInvalidator interface {
	DeleteHistory(ctx context.Context, sessionID string) error
}

type ChatEntryPersistWorker struct {
	conn      *amqp.Connection
	store     ChatEntryStore
	history   HistoryInvalidator
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewChatEntryPersistWorker(conn *amqp.Connection, store ChatEntryStore, history HistoryInvalidator, queueName string) *ChatEntryPersistWorker {
	return &ChatEntryPersistWorker{
		conn:      conn,
		store:     store,
		history:   history,
		queueName: queueName,
	}
}

func (w *ChatEntryPersistWorker) Start(ctx context.Context) error {
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
	if _, err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	if err := ch.Qos(16, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
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
				if err := w.Handle(workerCtx, d.Body); err != nil {
					log.Printf("worker chat entry %s: %v", d.MessageId, err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle decodes and stores one published chat entry.
func (w *ChatEntryPersistWorker) Handle(ctx context.Context, body []byte) error {
	var entry model.ChatEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return fmt.Errorf("decode chat entry failed: %w", err)
	}
	if entry.ID == "" || entry.SessionID == "" {
		return fmt.Errorf("chat entry missing id or session id")
	}
	if err := w.store.Create(&entry); err != nil {
		return err
	}
	if w.history != nil {
		if err := w.history.DeleteHistory(ctx, entry.SessionID); err != nil {
			log.Printf("worker invalidate history for %s failed: %v", entry.SessionID, err)
		}
	}
	return nil
}

func (w *ChatEntryPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
