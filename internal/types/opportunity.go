package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Opportunity struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"column:title;not null" json:"title"`
	Organization   string         `gorm:"column:organization" json:"organization"`
	Description    string         `gorm:"column:description" json:"description"`
	EducationLevel string         `gorm:"column:education_level" json:"education_level"`
	Deadline       *time.Time     `gorm:"column:deadline" json:"deadline,omitempty"`
	IsActive       bool           `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Opportunity) TableName() string { return "opportunity" }

func (o *Opportunity) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OpportunityIntelligence holds the extracted skill requirements for one
// opportunity. ExtractedSkills is a JSON object keyed by category
// (technical, soft, tools, languages), each value a list of skill names.
type OpportunityIntelligence struct {
	ID                        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OpportunityID             uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"opportunity_id"`
	Opportunity               *Opportunity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:OpportunityID;references:ID" json:"opportunity,omitempty"`
	ExtractedSkills           datatypes.JSON `gorm:"column:extracted_skills;type:jsonb" json:"extracted_skills"`
	EstimatedPreparationHours int            `gorm:"column:estimated_preparation_hours;not null;default:10" json:"estimated_preparation_hours"`
	LastAnalyzedAt            *time.Time     `gorm:"column:last_analyzed_at" json:"last_analyzed_at,omitempty"`
	CreatedAt                 time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt                 time.Time      `gorm:"not null" json:"updated_at"`
}

func (OpportunityIntelligence) TableName() string { return "opportunity_intelligence" }

func (oi *OpportunityIntelligence) BeforeCreate(tx *gorm.DB) error {
	if oi.ID == uuid.Nil {
		oi.ID = uuid.New()
	}
	return nil
}
