package nats

import "time"

// Stream and subject names
const (
	StreamName     = "NOTIFICATIONS"
	SubjectOverdue = "notifications.overdue"
)

// ═══════════════════════════════════════════════════════════════════════════════
// OverdueMessage - API → Mailer (via JetStream)
// ⚠️ โครงสร้างนี้ต้องตรงกับ mailer
// ═══════════════════════════════════════════════════════════════════════════════
type OverdueMessage struct {
	TaskID       string    `json:"task_id"`
	Title        string    `json:"title"`
	Deadline     time.Time `json:"deadline"`
	ManagerEmail string    `json:"manager_email"`
	CEOEmail     string    `json:"ceo_email"`
	CreatedAt    int64     `json:"created_at"`
}

// MsgID is used for JetStream de-duplication: a task that misses one deadline
// is announced once per deadline even if the sweep runs twice.
func (m *OverdueMessage) MsgID() string {
	return "overdue-" + m.TaskID + "-" + m.Deadline.UTC().Format(time.RFC3339)
}

// ═══════════════════════════════════════════════════════════════════════════════
// Stream Status (สำหรับ health endpoint)
// ═══════════════════════════════════════════════════════════════════════════════

type StreamInfo struct {
	Name     string `json:"name"`
	Messages uint64 `json:"messages"`
	Bytes    uint64 `json:"bytes"`
	LastSeq  uint64 `json:"last_seq"`
}
