package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"taskflow/pkg/logger"
)

// StreamPublisher is the part of jetstream.JetStream the publisher uses.
type StreamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes notifications to JetStream
type Publisher struct {
	js StreamPublisher
}

// NewPublisher สร้าง Publisher ใหม่
func NewPublisher(js StreamPublisher) *Publisher {
	return &Publisher{js: js}
}

// PublishOverdue ส่ง overdue notice ไปยัง JetStream
func (p *Publisher) PublishOverdue(ctx context.Context, msg *OverdueMessage) (*jetstream.PubAck, error) {
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().Unix()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal overdue message: %w", err)
	}

	ack, err := p.js.Publish(ctx, SubjectOverdue, data, jetstream.WithMsgID(msg.MsgID()))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish overdue notice",
			"task_id", msg.TaskID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to publish overdue notice: %w", err)
	}

	logger.InfoContext(ctx, "Overdue notice published to JetStream",
		"task_id", msg.TaskID,
		"stream", ack.Stream,
		"sequence", ack.Sequence,
		"duplicate", ack.Duplicate,
	)
	return ack, nil
}
