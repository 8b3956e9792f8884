package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"taskflow/domain/ports"
	natspkg "taskflow/infrastructure/nats"
)

// OverduePublisher is satisfied by *natspkg.Publisher.
type OverduePublisher interface {
	PublishOverdue(ctx context.Context, msg *natspkg.OverdueMessage) (*jetstream.PubAck, error)
}

// NATSOverdueNotifier implements OverdueNotifier by handing notices to the
// mailer through JetStream.
type NATSOverdueNotifier struct {
	publisher OverduePublisher
}

// NewNATSOverdueNotifier สร้าง OverdueNotifier adapter สำหรับ NATS
func NewNATSOverdueNotifier(publisher OverduePublisher) ports.OverdueNotifier {
	return &NATSOverdueNotifier{publisher: publisher}
}

func (n *NATSOverdueNotifier) NotifyOverdue(ctx context.Context, notice ports.OverdueNotice) (string, error) {
	if notice.TaskID == "" {
		return "", fmt.Errorf("task id is required")
	}
	if notice.ManagerEmail == "" && notice.CEOEmail == "" {
		return "", fmt.Errorf("no recipient for task %s", notice.TaskID)
	}

	ack, err := n.publisher.PublishOverdue(ctx, &natspkg.OverdueMessage{
		TaskID:       notice.TaskID,
		Title:        notice.Title,
		Deadline:     notice.Deadline,
		ManagerEmail: notice.ManagerEmail,
		CEOEmail:     notice.CEOEmail,
		CreatedAt:    time.Now().Unix(),
	})
	if err != nil {
		return "", err
	}
	if ack.Duplicate {
		return fmt.Sprintf("overdue notice for task %s already queued", notice.TaskID), nil
	}
	return fmt.Sprintf("overdue notice for task %s queued (%s #%d)", notice.TaskID, ack.Stream, ack.Sequence), nil
}
