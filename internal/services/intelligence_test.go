package services

import (
  "context"
  "encoding/json"
  "fmt"
  "math"
  "testing"

  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

func TestEducationMatch(t *testing.T) {
  tests := []struct {
    user     string
    required string
    want     float64
  }{
    {"master", "", 0.5},
    {"master", "License in computer science", 1.0},
    {"license", "License required", 1.0},
    {"license", "Master degree", 0.7},
    {"bts", "Master degree", 0.4},
    {"", "Master degree", 0.4},
    // unparseable requirement defaults to the bts/license middle ground
    {"phd", "Any diploma", 1.0},
  }
  for _, tc := range tests {
    if got := educationMatch(tc.user, tc.required); got != tc.want {
      t.Errorf("educationMatch(%q, %q) = %v, want %v", tc.user, tc.required, got, tc.want)
    }
  }
}

func newIntelligence(t *testing.T, stub *stubSuggestionClient) (OpportunityIntelligenceService, *types.User, *types.Opportunity) {
  t.Helper()
  db := newTestDB(t)
  log := testLog(t)

  userRepo := repos.NewUserRepo(db, log)
  opportunityRepo := repos.NewOpportunityRepo(db, log)
  intelligenceRepo := repos.NewOpportunityIntelligenceRepo(db, log)

  svc := NewOpportunityIntelligenceService(db, log, nil, opportunityRepo, intelligenceRepo, userRepo, stub)

  user := &types.User{Email: "learner@example.com", Skills: "Python, Django", EducationLevel: "master"}
  mustCreate(t, db, user)
  opportunity := &types.Opportunity{
    Title:          "Backend Intern",
    Organization:   "Acme",
    Description:    "Build APIs",
    EducationLevel: "License in computer science",
    IsActive:       true,
  }
  mustCreate(t, db, opportunity)

  return svc, user, opportunity
}

func TestAnalyzeOpportunityNormalizesExtraction(t *testing.T) {
  ctx := context.Background()
  stub := &stubSuggestionClient{extraction: &SkillExtraction{
    Technical:                 []string{" Python ", "python", "Django"},
    Soft:                      []string{"Teamwork"},
    EstimatedPreparationHours: 12,
  }}
  svc, _, opportunity := newIntelligence(t, stub)

  row, err := svc.AnalyzeOpportunity(ctx, opportunity.ID, false)
  if err != nil {
    t.Fatalf("AnalyzeOpportunity: %v", err)
  }

  var profile SkillRequirements
  if err := json.Unmarshal(row.ExtractedSkills, &profile); err != nil {
    t.Fatalf("decode profile: %v", err)
  }
  technical := profile[types.SkillCategoryTechnical]
  if len(technical) != 2 || technical[0] != "python" || technical[1] != "django" {
    t.Fatalf("technical = %v, want deduplicated lowercase [python django]", technical)
  }
  if row.EstimatedPreparationHours != 12 {
    t.Fatalf("prep hours = %d, want 12", row.EstimatedPreparationHours)
  }
  if row.LastAnalyzedAt == nil {
    t.Fatal("analysis timestamp not set")
  }
}

func TestAnalyzeOpportunityDegradesOnExtractionFailure(t *testing.T) {
  ctx := context.Background()
  stub := &stubSuggestionClient{extractErr: fmt.Errorf("rate limited")}
  svc, _, opportunity := newIntelligence(t, stub)

  row, err := svc.AnalyzeOpportunity(ctx, opportunity.ID, false)
  if err != nil {
    t.Fatalf("extraction failure must degrade, not fail: %v", err)
  }

  var profile SkillRequirements
  if err := json.Unmarshal(row.ExtractedSkills, &profile); err != nil {
    t.Fatalf("decode profile: %v", err)
  }
  if languages := profile[types.SkillCategoryLanguages]; len(languages) != 1 || languages[0] != "french" {
    t.Fatalf("default profile = %v, want the language-only default", profile)
  }
}

func TestCalculateMatchScore(t *testing.T) {
  ctx := context.Background()
  stub := &stubSuggestionClient{extraction: &SkillExtraction{
    Technical: []string{"python", "django"},
  }}
  svc, user, opportunity := newIntelligence(t, stub)

  score, err := svc.CalculateMatchScore(ctx, user.ID, opportunity.ID)
  if err != nil {
    t.Fatalf("CalculateMatchScore: %v", err)
  }
  // full skill overlap, education above requirement: 1*0.7 + 1*0.3
  if math.Abs(score-1.0) > 1e-9 {
    t.Fatalf("score = %v, want 1.0", score)
  }
}

func TestCalculateMatchScorePartialOverlap(t *testing.T) {
  ctx := context.Background()
  stub := &stubSuggestionClient{extraction: &SkillExtraction{
    Technical: []string{"python", "kubernetes"},
  }}
  svc, user, opportunity := newIntelligence(t, stub)

  score, err := svc.CalculateMatchScore(ctx, user.ID, opportunity.ID)
  if err != nil {
    t.Fatalf("CalculateMatchScore: %v", err)
  }
  // half the skills, education met: 0.5*0.7 + 1*0.3
  if math.Abs(score-0.65) > 1e-9 {
    t.Fatalf("score = %v, want 0.65", score)
  }
}
