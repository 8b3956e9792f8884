package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskflow/domain/workflow"
)

type Task struct {
	ID                 uuid.UUID          `gorm:"primaryKey;type:uuid"`
	Title              string             `gorm:"size:255;not null"`
	Description        *string            `gorm:"type:text"`
	Status             workflow.Status    `gorm:"type:varchar(32);not null;index"`
	Priority           workflow.Priority  `gorm:"type:varchar(16);not null;default:'medium'"`
	Deadline           *time.Time         `gorm:"index"`
	SuggestedPriority  *workflow.Priority `gorm:"type:varchar(16)"`
	SuggestedDeadline  *time.Time
	AssignerID         uuid.UUID    `gorm:"type:uuid;not null;index"`
	Assigner           *User        `gorm:"foreignKey:AssignerID"`
	AssignedUserID     *uuid.UUID   `gorm:"type:uuid;index"`
	Assignee           *User        `gorm:"foreignKey:AssignedUserID"`
	ProgressPercentage int          `gorm:"not null;default:0"`
	TimerDuration      int          `gorm:"not null;default:0"` // estimate in minutes
	Attachments        []Attachment `gorm:"foreignKey:TaskID"`
	Comments           []Comment    `gorm:"foreignKey:TaskID"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CompletedAt        *time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Ownership returns the fields workflow.Authorize needs.
func (t *Task) Ownership() workflow.Ownership {
	return workflow.Ownership{
		AssignerID:     t.AssignerID,
		AssignedUserID: t.AssignedUserID,
	}
}

// IsAssigned ตรวจสอบว่ามีผู้รับผิดชอบแล้ว
func (t *Task) IsAssigned() bool {
	return t.AssignedUserID != nil && *t.AssignedUserID != uuid.Nil
}
