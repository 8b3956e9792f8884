package messaging

import (
	"context"
	"fmt"

	"taskflow/domain/ports"
	"taskflow/pkg/logger"
)

// NoopOverdueNotifier only logs. It is wired in when NATS is disabled or
// unreachable at startup.
type NoopOverdueNotifier struct{}

func NewNoopOverdueNotifier() ports.OverdueNotifier {
	return NoopOverdueNotifier{}
}

func (NoopOverdueNotifier) NotifyOverdue(ctx context.Context, notice ports.OverdueNotice) (string, error) {
	logger.WarnContext(ctx, "Overdue notice not delivered, notifier disabled",
		"task_id", notice.TaskID,
		"manager_email", notice.ManagerEmail,
	)
	return fmt.Sprintf("overdue notice for task %s logged only", notice.TaskID), nil
}
