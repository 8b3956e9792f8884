package ports

import (
	"context"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════════
// Overdue Notifier Port - notification collaborator (mailer, chat, etc.)
// ═══════════════════════════════════════════════════════════════════════════════

// OverdueNotice is what the mailer needs to tell a manager and the CEO that a
// task missed its deadline.
type OverdueNotice struct {
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	Deadline     time.Time `json:"deadline"`
	ManagerEmail string    `json:"managerEmail"`
	CEOEmail     string    `json:"ceoEmail"`
}

// OverdueNotifier delivers notices best-effort. The returned string is the
// collaborator's acknowledgement message.
type OverdueNotifier interface {
	NotifyOverdue(ctx context.Context, notice OverdueNotice) (string, error)
}
