// Package events publishes complaint lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"complaint-service/internal/model"
)

const (
	TypeComplaintSubmitted = "complaint.submitted"
	TypeComplaintAssigned  = "complaint.assigned"
	TypeStatusChanged      = "complaint.status_changed"
	TypeComplaintResolved  = "complaint.resolved"
	TypeFeedbackRecorded   = "complaint.feedback_recorded"
)

type ComplaintEvent struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	ComplaintID  int64                 `json:"complaint_id"`
	Status       model.ComplaintStatus `json:"status"`
	DepartmentID *int64                `json:"department_id,omitempty"`
	OccurredAt   time.Time             `json:"occurred_at"`
}

func NewComplaintEvent(eventType string, c *model.Complaint) ComplaintEvent {
	return ComplaintEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		ComplaintID:  c.ID,
		Status:       c.Status,
		DepartmentID: c.DepartmentID,
		OccurredAt:   time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event ComplaintEvent) error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ComplaintEvent) error { return nil }

const DefaultDialTimeout = 3 * time.Second

// AMQPPublisher opens a short-lived connection per event and writes it as a
// persistent JSON message to a durable queue. Connecting and the AMQP
// handshake are bounded by dialTimeout.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
}

func NewAMQPPublisher(url, queue string, dialTimeout time.Duration) *AMQPPublisher {
	if queue == "" {
		queue = "complaint.events"
	}
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	return &AMQPPublisher{url: url, queue: queue, dialTimeout: dialTimeout}
}

func (p *AMQPPublisher) Publish(ctx context.Context, event ComplaintEvent) error {
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return fmt.Errorf("rabbitmq dial: %w", context.DeadlineExceeded)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}
