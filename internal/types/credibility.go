package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger operations.
const (
	PointsOperationAdd      = "add"
	PointsOperationSubtract = "subtract"
)

// Ledger sources.
const (
	PointsSourceModuleCompletion  = "module_completion"
	PointsSourceJourneyCompletion = "journey_completion"
	PointsSourceAdminAdjustment   = "admin_adjustment"
	PointsSourceOther             = "other"
)

// CredibilityPoints is the per-user points/level aggregate. The level is
// always recomputed from the cumulative total: reaching level k+1 from k
// requires 100*k additional points over the previous threshold.
type CredibilityPoints struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Points    int       `gorm:"column:points;not null;default:0" json:"points"`
	Level     int       `gorm:"column:level;not null;default:1" json:"level"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CredibilityPoints) TableName() string { return "credibility_points" }

func (c *CredibilityPoints) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PointsHistory is the append-only ledger behind CredibilityPoints.
type PointsHistory struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Operation   string    `gorm:"column:operation;not null" json:"operation"`
	Points      int       `gorm:"column:points;not null" json:"points"`
	Source      string    `gorm:"column:source;not null" json:"source"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (PointsHistory) TableName() string { return "points_history" }

func (h *PointsHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
