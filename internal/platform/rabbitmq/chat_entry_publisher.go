package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"lecture-qa/internal/model"
)

// ChatEntryPublisher hands answered questions to the persistence worker.
type ChatEntryPublisher struct {
	conn      *amqp.Connection
	queueName string
}

func NewChatEntryPublisher(conn *amqp.Connection, queueName string) *ChatEntryPublisher {
	return &ChatEntryPublisher{
		conn:      conn,
		queueName: queueName,
	}
}

func (p *ChatEntryPublisher) Publish(ctx context.Context, entry model.ChatEntry) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := DeclareQueue(ch, p.queueName); err != nil {
		return err
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal chat entry failed: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    entry.ID,
		Timestamp:    entry.CreatedAt,
		Body:         payload,
		DeliveryMode: amqp.Persistent,
	}); err != nil {
		return fmt.Errorf("publish chat entry failed: %w", err)
	}
	return nil
}
