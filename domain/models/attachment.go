package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment belongs to exactly one task and shares its soft-delete tombstone.
type Attachment struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid"`
	TaskID     uuid.UUID `gorm:"type:uuid;not null;index"`
	UploaderID uuid.UUID `gorm:"type:uuid;not null"`
	FileName   string    `gorm:"size:255;not null"`
	FileURL    string    `gorm:"size:1024;not null"`
	FileType   string    `gorm:"size:100"`
	FileSize   int64
	CreatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Attachment) TableName() string {
	return "task_attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
