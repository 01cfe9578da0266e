package services

import (
  "math"
  "sort"

  "github.com/opportuci/opportuci-backend/internal/normalization"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// RequiredProficiency is the fixed target level every required skill is
// measured against.
const RequiredProficiency = 0.7

// DeclaredSkillLevel is the proficiency assumed for a skill the user merely
// declared on their profile.
const DeclaredSkillLevel = 0.5

// SkillRequirements is a required-skill profile grouped by category.
type SkillRequirements map[string][]string

// requirementCategories fixes the iteration order over a SkillRequirements
// map so gap computation is deterministic.
var requirementCategories = []string{
  types.SkillCategoryTechnical,
  types.SkillCategorySoft,
  types.SkillCategoryTools,
  types.SkillCategoryLanguages,
}

// CompletedSkill is one completed-module signal feeding the skill profile.
type CompletedSkill struct {
  Skill     string
  BestScore float64
}

// BuildSkillProfile derives a skill -> proficiency map from the user's
// declared free-text skills and their completed-module history. Declared
// skills count as 0.5; a completion raises its skill to best_score/100,
// capped at 1.0. Keys are normalized tokens.
func BuildSkillProfile(declaredSkills string, completions []CompletedSkill) map[string]float64 {
  profile := make(map[string]float64)
  for _, skill := range normalization.ParseSkillList(declaredSkills) {
    profile[skill] = DeclaredSkillLevel
  }
  for _, completion := range completions {
    skill := normalization.ParseInputString(completion.Skill)
    if skill == "" {
      continue
    }
    level := math.Min(completion.BestScore/100, 1.0)
    if level > profile[skill] {
      profile[skill] = level
    }
  }
  return profile
}

// CalculateSkillGaps compares a required-skill profile against the learner's
// current profile and returns the prioritized gap list. A gap exists for
// every required skill below the 0.7 target (unknown skills count as 0).
// Technical gaps: >0.5 critical, >0.3 high, else medium. Non-technical:
// >0.4 medium, else low. The result is sorted most severe first, larger gap
// first within a priority. Pure and deterministic.
func CalculateSkillGaps(required SkillRequirements, current map[string]float64) []types.SkillGap {
  gaps := []types.SkillGap{}

  for _, category := range requirementCategories {
    for _, skill := range required[category] {
      normalized := normalization.ParseInputString(skill)
      if normalized == "" {
        continue
      }
      currentLevel := current[normalized]
      if currentLevel >= RequiredProficiency {
        continue
      }
      gapSize := RequiredProficiency - currentLevel

      var priority string
      if category == types.SkillCategoryTechnical {
        switch {
        case gapSize > 0.5:
          priority = types.PriorityCritical
        case gapSize > 0.3:
          priority = types.PriorityHigh
        default:
          priority = types.PriorityMedium
        }
      } else {
        if gapSize > 0.4 {
          priority = types.PriorityMedium
        } else {
          priority = types.PriorityLow
        }
      }

      gaps = append(gaps, types.SkillGap{
        Skill:    skill,
        Category: category,
        Current:  currentLevel,
        Required: RequiredProficiency,
        Gap:      gapSize,
        Priority: priority,
      })
    }
  }

  sort.SliceStable(gaps, func(i, j int) bool {
    ri := types.PrioritySeverityRank(gaps[i].Priority)
    rj := types.PrioritySeverityRank(gaps[j].Priority)
    if ri != rj {
      return ri < rj
    }
    return gaps[i].Gap > gaps[j].Gap
  })

  return gaps
}

// PredictSuccessProbability estimates the learner's chance of succeeding at
// the target from the gap profile and their credibility level. No gaps means
// already qualified (0.95, deliberately short of certainty). Otherwise:
//
//   clamp(0.6 - criticalGaps*0.15 - avgGap*0.2 + min(level*0.05, 0.25), 0.15, 0.95)
//
// rounded to two decimals. This exact formula is load-bearing: downstream
// consumers compare stored probabilities across recomputations.
func PredictSuccessProbability(gaps []types.SkillGap, credibilityLevel int) float64 {
  if len(gaps) == 0 {
    return 0.95
  }

  criticalGaps := 0
  totalGap := 0.0
  for _, gap := range gaps {
    if gap.Priority == types.PriorityCritical {
      criticalGaps++
    }
    totalGap += gap.Gap
  }
  avgGap := totalGap / float64(len(gaps))

  probability := 0.6 - float64(criticalGaps)*0.15 - avgGap*0.2
  probability += math.Min(float64(credibilityLevel)*0.05, 0.25)

  probability = math.Max(0.15, math.Min(0.95, probability))
  return math.Round(probability*100) / 100
}
