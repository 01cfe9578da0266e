package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Module content types.
const (
	ContentTypeVideo       = "video"
	ContentTypeInteractive = "interactive"
	ContentTypeQuiz        = "quiz"
	ContentTypeReading     = "reading"
	ContentTypeProject     = "project"
)

// Module difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// LearningModule is a short, single-skill learning unit (5-30 minutes).
// Identity (skill_taught, title) is immutable once created; the usage stats
// mutate on every completion. Modules synthesized from AI suggestions start
// inactive until curated.
type LearningModule struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title              string         `gorm:"column:title;not null;uniqueIndex:idx_module_skill_title" json:"title"`
	SkillTaught        string         `gorm:"column:skill_taught;not null;index;uniqueIndex:idx_module_skill_title" json:"skill_taught"`
	Description        string         `gorm:"column:description" json:"description"`
	ContentType        string         `gorm:"column:content_type;not null;default:video" json:"content_type"`
	DurationMinutes    int            `gorm:"column:duration_minutes;not null;default:15" json:"duration_minutes"`
	Difficulty         string         `gorm:"column:difficulty;not null;default:intermediate" json:"difficulty"`
	LearningObjectives datatypes.JSON `gorm:"column:learning_objectives;type:jsonb" json:"learning_objectives"`
	PointsReward       int            `gorm:"column:points_reward;not null;default:10" json:"points_reward"`
	TotalCompletions   int            `gorm:"column:total_completions;not null;default:0" json:"total_completions"`
	AverageScore       float64        `gorm:"column:average_score;not null;default:0" json:"average_score"`
	AverageTimeMinutes int            `gorm:"column:average_time_minutes;not null;default:0" json:"average_time_minutes"`
	SuccessRate        float64        `gorm:"column:success_rate;not null;default:0" json:"success_rate"`
	IsActive           bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (LearningModule) TableName() string { return "learning_module" }

func (m *LearningModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
