package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskAudit records one workflow decision. Rows are only ever inserted.
type TaskAudit struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID `gorm:"type:uuid;not null"`
	Action     string    `gorm:"size:64;not null"`
	FromStatus string    `gorm:"size:32"`
	ToStatus   string    `gorm:"size:32"`
	Comments   string    `gorm:"type:text"`
	CreatedAt  time.Time
}

func (TaskAudit) TableName() string {
	return "task_audits"
}

func (a *TaskAudit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
