package workflow

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a task. Only the constants below are valid.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusNeedsChanges    Status = "needs_changes"
	StatusToDo            Status = "todo"
	StatusInProgress      Status = "in_progress"
	StatusOverdue         Status = "overdue"
	StatusRejected        Status = "rejected"
	StatusCompleted       Status = "completed"
)

var allStatuses = []Status{
	StatusPendingApproval,
	StatusNeedsChanges,
	StatusToDo,
	StatusInProgress,
	StatusOverdue,
	StatusRejected,
	StatusCompleted,
}

var statusLabels = map[Status]string{
	StatusPendingApproval: "Pending Approval",
	StatusNeedsChanges:    "Needs Changes",
	StatusToDo:            "To Do",
	StatusInProgress:      "In Progress",
	StatusOverdue:         "Overdue",
	StatusRejected:        "Rejected",
	StatusCompleted:       "Completed",
}

// Statuses returns every valid status in board column order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label is the human readable column name.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus accepts the stored value ("in_progress") or the label ("In Progress").
func ParseStatus(raw string) (Status, error) {
	candidate := Status(strings.TrimSpace(raw))
	if candidate.Valid() {
		return candidate, nil
	}
	for status, label := range statusLabels {
		if strings.EqualFold(label, strings.TrimSpace(raw)) {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown task status %q", raw)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value refuses to write an out-of-set status to the database.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("refusing to persist unknown task status %q", string(s))
	}
	return string(s), nil
}

func (s *Status) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", value)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Priority of a task. Urgent is only set by administrators.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var priorityRank = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// Rank orders priorities from low (1) to urgent (4).
func (p Priority) Rank() int {
	return priorityRank[p]
}

func ParsePriority(raw string) (Priority, error) {
	candidate := Priority(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", fmt.Errorf("unknown task priority %q", raw)
}

func (p Priority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("refusing to persist unknown task priority %q", string(p))
	}
	return string(p), nil
}

func (p *Priority) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Priority", value)
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
