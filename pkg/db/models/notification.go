package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/krishikarobar/marketplace-backend/pkg/enums"
)

// Notification stores an in-app message for one user.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null" json:"recipient_id"`
	Type        enums.NotificationType `gorm:"column:type;not null" json:"type"`
	Text        string                 `gorm:"column:text;not null" json:"text"`
	Link        *string                `gorm:"column:link" json:"link,omitempty"`
	ReadAt      *time.Time             `gorm:"column:read_at" json:"read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
