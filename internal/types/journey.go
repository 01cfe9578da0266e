package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Journey statuses. Forward-only except paused <-> in_progress; completed is
// terminal.
const (
	JourneyNotStarted = "not_started"
	JourneyInProgress = "in_progress"
	JourneyCompleted  = "completed"
	JourneyPaused     = "paused"
	JourneyAbandoned  = "abandoned"
)

// Journey is a learner's personalized plan toward one target opportunity.
// One row per (user, opportunity) pair.
type Journey struct {
	ID                      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_journey_user_opportunity;index" json:"user_id"`
	User                    *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	OpportunityID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_journey_user_opportunity" json:"opportunity_id"`
	Opportunity             *Opportunity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:OpportunityID;references:ID" json:"opportunity,omitempty"`
	Status                  string         `gorm:"column:status;not null;default:not_started;index" json:"status"`
	UserCurrentLevel        datatypes.JSON `gorm:"column:user_current_level;type:jsonb" json:"user_current_level"`
	SkillGaps               datatypes.JSON `gorm:"column:skill_gaps;type:jsonb" json:"skill_gaps"`
	TotalEstimatedHours     float64        `gorm:"column:total_estimated_hours;not null;default:0" json:"total_estimated_hours"`
	HoursCompleted          float64        `gorm:"column:hours_completed;not null;default:0" json:"hours_completed"`
	ProgressPercentage      int            `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	ModulesCompleted        int            `gorm:"column:modules_completed;not null;default:0" json:"modules_completed"`
	SuccessProbability      float64        `gorm:"column:success_probability;not null;default:0.5" json:"success_probability"`
	EstimatedCompletionDate *time.Time     `gorm:"column:estimated_completion_date" json:"estimated_completion_date,omitempty"`
	StartedAt               *time.Time     `gorm:"column:started_at" json:"started_at,omitempty"`
	LastActivity            *time.Time     `gorm:"column:last_activity" json:"last_activity,omitempty"`
	CompletedAt             *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt               time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time      `gorm:"not null" json:"updated_at"`
}

func (Journey) TableName() string { return "journey" }

func (j *Journey) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// JourneyModule binds one module into one journey. Its progress state is
// distinct from the user's global ModuleProgress on the same module.
type JourneyModule struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	JourneyID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_journey_module;uniqueIndex:idx_journey_order;index" json:"journey_id"`
	Journey          *Journey        `gorm:"constraint:OnDelete:CASCADE;foreignKey:JourneyID;references:ID" json:"journey,omitempty"`
	ModuleID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_journey_module;index" json:"module_id"`
	Module           *LearningModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Order            int             `gorm:"column:module_order;not null;uniqueIndex:idx_journey_order" json:"order"`
	Priority         string          `gorm:"column:priority;not null;default:medium" json:"priority"`
	IsMandatory      bool            `gorm:"column:is_mandatory;not null;default:false" json:"is_mandatory"`
	Started          bool            `gorm:"column:started;not null;default:false" json:"started"`
	Completed        bool            `gorm:"column:completed;not null;default:false" json:"completed"`
	TimeSpentMinutes int             `gorm:"column:time_spent_minutes;not null;default:0" json:"time_spent_minutes"`
	Attempts         int             `gorm:"column:attempts;not null;default:0" json:"attempts"`
	BestScore        *float64        `gorm:"column:best_score" json:"best_score,omitempty"`
	StartedAt        *time.Time      `gorm:"column:started_at" json:"started_at,omitempty"`
	CompletedAt      *time.Time      `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"not null" json:"updated_at"`
}

func (JourneyModule) TableName() string { return "journey_module" }

func (jm *JourneyModule) BeforeCreate(tx *gorm.DB) error {
	if jm.ID == uuid.Nil {
		jm.ID = uuid.New()
	}
	return nil
}
