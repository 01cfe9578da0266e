package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification categories.
const (
	NotificationSystem      = "system"
	NotificationAchievement = "achievement"
)

// Notification is the persistence target of the best-effort notifier.
// Delivery mechanics live outside this core.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Message     string     `gorm:"column:message" json:"message"`
	Category    string     `gorm:"column:category;not null;default:system" json:"category"`
	RelatedType string     `gorm:"column:related_type" json:"related_type,omitempty"`
	RelatedID   *uuid.UUID `gorm:"type:uuid;column:related_id" json:"related_id,omitempty"`
	IsRead      bool       `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
