package services

import (
  "math"
  "testing"

  "github.com/opportuci/opportuci-backend/internal/types"
)

func TestBuildSkillProfile(t *testing.T) {
  profile := BuildSkillProfile("Python, SQL", []CompletedSkill{
    {Skill: "Python", BestScore: 85},
    {Skill: "Docker", BestScore: 60},
    {Skill: "SQL", BestScore: 30},
  })

  if got := profile["python"]; got != 0.85 {
    t.Fatalf("python = %v, want 0.85 (completion beats declared)", got)
  }
  if got := profile["sql"]; got != 0.5 {
    t.Fatalf("sql = %v, want 0.5 (low completion never lowers declared)", got)
  }
  if got := profile["docker"]; got != 0.6 {
    t.Fatalf("docker = %v, want 0.6", got)
  }
}

func TestBuildSkillProfileCapsAtOne(t *testing.T) {
  profile := BuildSkillProfile("", []CompletedSkill{{Skill: "go", BestScore: 120}})
  if got := profile["go"]; got != 1.0 {
    t.Fatalf("go = %v, want capped 1.0", got)
  }
}

func TestCalculateSkillGapsPriorities(t *testing.T) {
  required := SkillRequirements{
    types.SkillCategoryTechnical: {"django", "react", "python"},
    types.SkillCategorySoft:      {"leadership", "communication"},
  }
  current := map[string]float64{
    "react":         0.35, // gap 0.35 -> high
    "python":        0.55, // gap 0.15 -> medium
    "communication": 0.5,  // gap 0.2 -> low
  }

  gaps := CalculateSkillGaps(required, current)
  if len(gaps) != 5 {
    t.Fatalf("got %d gaps, want 5", len(gaps))
  }

  wantPriorities := map[string]string{
    "django":        types.PriorityCritical, // unknown technical, gap 0.7
    "react":         types.PriorityHigh,
    "python":        types.PriorityMedium,
    "leadership":    types.PriorityMedium, // unknown soft, gap 0.7
    "communication": types.PriorityLow,
  }
  for _, gap := range gaps {
    if want := wantPriorities[gap.Skill]; gap.Priority != want {
      t.Errorf("%s priority = %s, want %s (gap %v)", gap.Skill, gap.Priority, want, gap.Gap)
    }
  }
}

func TestCalculateSkillGapsOrdering(t *testing.T) {
  required := SkillRequirements{
    types.SkillCategoryTechnical: {"a", "b", "c"},
    types.SkillCategorySoft:      {"d"},
  }
  current := map[string]float64{
    "a": 0.5, // medium, gap 0.2
    "b": 0.0, // critical, gap 0.7
    "c": 0.3, // high, gap 0.4
  }

  gaps := CalculateSkillGaps(required, current)
  order := make([]string, 0, len(gaps))
  for _, gap := range gaps {
    order = append(order, gap.Skill)
  }
  // critical, high, then mediums; d (soft, gap 0.7 -> medium) outranks a on
  // gap size within the same priority.
  want := []string{"b", "c", "d", "a"}
  for i := range want {
    if order[i] != want[i] {
      t.Fatalf("order = %v, want %v", order, want)
    }
  }
}

func TestCalculateSkillGapsSatisfiedSkillsExcluded(t *testing.T) {
  required := SkillRequirements{types.SkillCategoryTechnical: {"python"}}
  gaps := CalculateSkillGaps(required, map[string]float64{"python": 0.7})
  if len(gaps) != 0 {
    t.Fatalf("got %d gaps at exactly the target level, want 0", len(gaps))
  }
}

func TestPredictSuccessProbability(t *testing.T) {
  tests := []struct {
    name  string
    gaps  []types.SkillGap
    level int
    want  float64
  }{
    {"no gaps means qualified", nil, 0, 0.95},
    {
      // 0.6 - 1*0.15 - 0.4*0.2 = 0.37
      "one critical one medium",
      []types.SkillGap{
        {Gap: 0.7, Priority: types.PriorityCritical},
        {Gap: 0.1, Priority: types.PriorityMedium},
      },
      0, 0.37,
    },
    {
      "floor at 0.15",
      []types.SkillGap{
        {Gap: 0.7, Priority: types.PriorityCritical},
        {Gap: 0.7, Priority: types.PriorityCritical},
        {Gap: 0.7, Priority: types.PriorityCritical},
        {Gap: 0.7, Priority: types.PriorityCritical},
      },
      0, 0.15,
    },
    {
      // level bonus caps at 0.25 from level 5 on
      "level bonus capped",
      []types.SkillGap{{Gap: 0.2, Priority: types.PriorityMedium}},
      20, 0.81,
    },
  }
  for _, tc := range tests {
    t.Run(tc.name, func(t *testing.T) {
      got := PredictSuccessProbability(tc.gaps, tc.level)
      if got != tc.want {
        t.Fatalf("got %v, want %v", got, tc.want)
      }
    })
  }
}

func TestPredictSuccessProbabilityBounds(t *testing.T) {
  gaps := []types.SkillGap{{Gap: 0.7, Priority: types.PriorityCritical}}
  for level := 0; level <= 30; level++ {
    got := PredictSuccessProbability(gaps, level)
    if got < 0.15 || got > 0.95 {
      t.Fatalf("level %d: probability %v out of [0.15, 0.95]", level, got)
    }
  }
}

func TestPredictSuccessProbabilityLevelBonusSaturates(t *testing.T) {
  gaps := []types.SkillGap{{Gap: 0.3, Priority: types.PriorityMedium}}
  atFive := PredictSuccessProbability(gaps, 5)
  atTen := PredictSuccessProbability(gaps, 10)
  if math.Abs(atFive-atTen) > 1e-9 {
    t.Fatalf("bonus should saturate at level 5: level5=%v level10=%v", atFive, atTen)
  }
}
