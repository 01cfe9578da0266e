package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ModuleProgress statuses. needs_review is set by an external review process
// after completion.
const (
	ProgressNotStarted  = "not_started"
	ProgressInProgress  = "in_progress"
	ProgressCompleted   = "completed"
	ProgressNeedsReview = "needs_review"
)

// ModuleProgress tracks one user's progress on one module, independent of
// any journey. Unique per (user, module).
type ModuleProgress struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_module;index:idx_progress_user_status" json:"user_id"`
	User               *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ModuleID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_module;index" json:"module_id"`
	Module             *LearningModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Status             string          `gorm:"column:status;not null;default:not_started;index:idx_progress_user_status" json:"status"`
	ProgressPercentage int             `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	Attempts           int             `gorm:"column:attempts;not null;default:0" json:"attempts"`
	BestScore          *float64        `gorm:"column:best_score" json:"best_score,omitempty"`
	LastScore          *float64        `gorm:"column:last_score" json:"last_score,omitempty"`
	TimeSpentMinutes   int             `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`
	AIFeedback         string          `gorm:"column:ai_feedback" json:"ai_feedback,omitempty"`
	StartedAt          *time.Time      `gorm:"column:started_at" json:"started_at,omitempty"`
	LastAccessed       *time.Time      `gorm:"column:last_accessed" json:"last_accessed,omitempty"`
	CompletedAt        *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

func (ModuleProgress) TableName() string { return "module_progress" }

func (p *ModuleProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
