package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is append-only; there is no update path.
type Comment struct {
	ID        uuid.UUID      `gorm:"primaryKey;type:uuid"`
	TaskID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID      `gorm:"type:uuid;not null"`
	Content   string         `gorm:"type:text;not null"`
	CreatedAt time.Time      `gorm:"index"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Comment) TableName() string {
	return "task_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
