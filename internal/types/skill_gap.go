package types

// Skill gap priorities, ordered from most to least severe.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Skill categories used by the required-skill profile.
const (
	SkillCategoryTechnical = "technical"
	SkillCategorySoft      = "soft"
	SkillCategoryTools     = "tools"
	SkillCategoryLanguages = "languages"
)

// SkillGap is the deficit between a learner's current level on one skill and
// the level the target opportunity requires. Serialized as-is into the
// journey's skill_gaps snapshot.
type SkillGap struct {
	Skill    string  `json:"skill"`
	Category string  `json:"category"`
	Current  float64 `json:"current"`
	Required float64 `json:"required"`
	Gap      float64 `json:"gap"`
	Priority string  `json:"priority"`
}

// PrioritySeverityRank maps a priority to its sort rank, most severe first.
func PrioritySeverityRank(priority string) int {
	switch priority {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// IsMandatoryPriority reports whether a gap priority makes the resulting
// journey assignment mandatory.
func IsMandatoryPriority(priority string) bool {
	return priority == PriorityCritical || priority == PriorityHigh
}
