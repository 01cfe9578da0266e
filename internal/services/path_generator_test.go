package services

import (
  "context"
  "fmt"
  "testing"

  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

func TestFallbackPlanCapsModules(t *testing.T) {
  gaps := make([]types.SkillGap, 0, 8)
  for i := 0; i < 8; i++ {
    gaps = append(gaps, types.SkillGap{
      Skill:    fmt.Sprintf("skill-%d", i),
      Priority: types.PriorityMedium,
      Gap:      0.5,
    })
  }

  plan := FallbackPlan(gaps)
  if len(plan.Modules) != 6 {
    t.Fatalf("got %d modules, want top-6 gaps", len(plan.Modules))
  }
  if plan.EstimatedTotalHours != 1.5 {
    t.Fatalf("hours = %v, want 6 * 0.25", plan.EstimatedTotalHours)
  }
  first := plan.Modules[0]
  if first.Title != "Introduction to skill-0" {
    t.Fatalf("title = %q", first.Title)
  }
  if first.DurationMinutes != 15 || first.Type != types.ContentTypeVideo {
    t.Fatalf("module shape = %d min %s, want 15 min video", first.DurationMinutes, first.Type)
  }
  if first.Priority != types.PriorityMedium {
    t.Fatalf("priority = %q, want gap priority preserved", first.Priority)
  }
}

func TestFallbackPlanThreeGaps(t *testing.T) {
  gaps := []types.SkillGap{
    {Skill: "django", Priority: types.PriorityCritical, Gap: 0.7},
    {Skill: "docker", Priority: types.PriorityHigh, Gap: 0.4},
    {Skill: "sql", Priority: types.PriorityMedium, Gap: 0.2},
  }
  plan := FallbackPlan(gaps)
  if len(plan.Modules) != 3 {
    t.Fatalf("got %d modules, want one per gap", len(plan.Modules))
  }
  for _, module := range plan.Modules {
    if module.DurationMinutes != 15 {
      t.Fatalf("duration = %d, want 15", module.DurationMinutes)
    }
  }
  if plan.EstimatedTotalHours != 0.75 {
    t.Fatalf("hours = %v, want 0.75", plan.EstimatedTotalHours)
  }
}

func TestFallbackPlanNoGaps(t *testing.T) {
  plan := FallbackPlan(nil)
  if plan == nil {
    t.Fatal("plan must never be nil")
  }
  if len(plan.Modules) != 0 || plan.EstimatedTotalHours != 0 {
    t.Fatalf("empty gaps should yield empty plan, got %+v", plan)
  }
}

func TestValidatePlan(t *testing.T) {
  valid := &PlanSuggestion{
    Modules:             []PlanModule{{Skill: "go", Title: "Intro"}},
    EstimatedTotalHours: 10,
  }
  if err := ValidatePlan(valid); err != nil {
    t.Fatalf("valid plan rejected: %v", err)
  }
  if err := ValidatePlan(nil); err == nil {
    t.Fatal("nil plan accepted")
  }
  if err := ValidatePlan(&PlanSuggestion{EstimatedTotalHours: 5}); err == nil {
    t.Fatal("empty module list accepted")
  }
  over := &PlanSuggestion{
    Modules:             []PlanModule{{Skill: "go", Title: "Intro"}},
    EstimatedTotalHours: 41,
  }
  if err := ValidatePlan(over); err == nil {
    t.Fatal("plan over the hour cap accepted")
  }
}

func newPathGenerator(t *testing.T, suggestions SuggestionClient, extraction *SkillExtraction, notifier Notifier) (PathGeneratorService, *testFixtures) {
  t.Helper()
  db := newTestDB(t)
  log := testLog(t)

  userRepo := repos.NewUserRepo(db, log)
  opportunityRepo := repos.NewOpportunityRepo(db, log)
  intelligenceRepo := repos.NewOpportunityIntelligenceRepo(db, log)
  moduleRepo := repos.NewLearningModuleRepo(db, log)
  journeyRepo := repos.NewJourneyRepo(db, log)
  journeyModuleRepo := repos.NewJourneyModuleRepo(db, log)
  progressRepo := repos.NewModuleProgressRepo(db, log)
  credibilityRepo := repos.NewCredibilityRepo(db, log)

  intelligence := NewOpportunityIntelligenceService(db, log, nil, opportunityRepo, intelligenceRepo, userRepo,
    &stubSuggestionClient{extraction: extraction})

  svc := NewPathGeneratorService(db, log,
    userRepo, opportunityRepo, journeyRepo, journeyModuleRepo, moduleRepo, progressRepo, credibilityRepo,
    intelligence, suggestions, notifier)

  user := &types.User{Email: "learner@example.com", Skills: "python"}
  mustCreate(t, db, user)
  opportunity := &types.Opportunity{Title: "Backend Intern", Organization: "Acme", IsActive: true}
  mustCreate(t, db, opportunity)

  return svc, &testFixtures{
    user:              user,
    opportunity:       opportunity,
    journeyRepo:       journeyRepo,
    journeyModuleRepo: journeyModuleRepo,
    moduleRepo:        moduleRepo,
  }
}

type testFixtures struct {
  user              *types.User
  opportunity       *types.Opportunity
  journeyRepo       repos.JourneyRepo
  journeyModuleRepo repos.JourneyModuleRepo
  moduleRepo        repos.LearningModuleRepo
}

func TestGenerateJourneyFallsBackWhenSuggestionsFail(t *testing.T) {
  ctx := context.Background()
  extraction := &SkillExtraction{Technical: []string{"python", "django"}}
  notifier := &recordingNotifier{}
  svc, fx := newPathGenerator(t, &stubSuggestionClient{planErr: fmt.Errorf("boom")}, extraction, notifier)

  journey, err := svc.GenerateJourney(ctx, fx.user.ID, fx.opportunity.ID)
  if err != nil {
    t.Fatalf("GenerateJourney: %v", err)
  }

  assignments, err := fx.journeyModuleRepo.GetByJourneyID(ctx, nil, journey.ID)
  if err != nil {
    t.Fatalf("load assignments: %v", err)
  }
  // python declared -> gap 0.2 medium, django unknown -> gap 0.7 critical
  if len(assignments) != 2 {
    t.Fatalf("got %d assignments, want 2 fallback modules", len(assignments))
  }
  if assignments[0].Priority != types.PriorityCritical || !assignments[0].IsMandatory {
    t.Fatalf("first assignment = %s mandatory=%v, want critical mandatory", assignments[0].Priority, assignments[0].IsMandatory)
  }
  if assignments[1].Priority != types.PriorityMedium || assignments[1].IsMandatory {
    t.Fatalf("second assignment = %s mandatory=%v, want optional medium", assignments[1].Priority, assignments[1].IsMandatory)
  }

  module, err := fx.moduleRepo.GetByID(ctx, nil, assignments[0].ModuleID)
  if err != nil {
    t.Fatalf("load module: %v", err)
  }
  if module.Title != "Introduction to django" {
    t.Fatalf("module title = %q", module.Title)
  }
  if module.IsActive {
    t.Fatal("synthesized module must start inactive")
  }

  if journey.TotalEstimatedHours != 0.5 {
    t.Fatalf("hours = %v, want 2 * 0.25", journey.TotalEstimatedHours)
  }
  // 0.6 - 1*0.15 - ((0.7+0.2)/2)*0.2 = 0.36
  if journey.SuccessProbability != 0.36 {
    t.Fatalf("probability = %v, want 0.36", journey.SuccessProbability)
  }
  if journey.EstimatedCompletionDate == nil {
    t.Fatal("missing estimated completion date")
  }
  if len(notifier.titles) != 1 {
    t.Fatalf("notifications = %v, want one journey-ready notification", notifier.titles)
  }
}

func TestGenerateJourneyIsIdempotent(t *testing.T) {
  ctx := context.Background()
  extraction := &SkillExtraction{Technical: []string{"django"}}
  svc, fx := newPathGenerator(t, nil, extraction, nil)

  first, err := svc.GenerateJourney(ctx, fx.user.ID, fx.opportunity.ID)
  if err != nil {
    t.Fatalf("first generation: %v", err)
  }
  second, err := svc.GenerateJourney(ctx, fx.user.ID, fx.opportunity.ID)
  if err != nil {
    t.Fatalf("second generation: %v", err)
  }
  if first.ID != second.ID {
    t.Fatalf("journey recreated: %s != %s", first.ID, second.ID)
  }

  count, err := fx.journeyModuleRepo.CountByJourneyID(ctx, nil, first.ID)
  if err != nil {
    t.Fatalf("count assignments: %v", err)
  }
  if count != 1 {
    t.Fatalf("assignments = %d, want 1 (no duplicates on re-request)", count)
  }
}

func TestGenerateJourneyUsesSuggestedPlan(t *testing.T) {
  ctx := context.Background()
  extraction := &SkillExtraction{Technical: []string{"django", "react"}}
  suggested := &PlanSuggestion{
    Modules: []PlanModule{
      {Skill: "django", Type: types.ContentTypeQuiz, DurationMinutes: 20, Priority: types.PriorityCritical, Title: "Django models deep dive"},
      {Skill: "react", Type: types.ContentTypeVideo, DurationMinutes: 90, Priority: types.PriorityHigh, Title: "React basics"},
    },
    EstimatedTotalHours: 4,
  }
  svc, fx := newPathGenerator(t, &stubSuggestionClient{plan: suggested}, extraction, nil)

  journey, err := svc.GenerateJourney(ctx, fx.user.ID, fx.opportunity.ID)
  if err != nil {
    t.Fatalf("GenerateJourney: %v", err)
  }
  if journey.TotalEstimatedHours != 4 {
    t.Fatalf("hours = %v, want suggested 4", journey.TotalEstimatedHours)
  }

  assignments, err := fx.journeyModuleRepo.GetByJourneyID(ctx, nil, journey.ID)
  if err != nil {
    t.Fatalf("load assignments: %v", err)
  }
  if len(assignments) != 2 {
    t.Fatalf("got %d assignments, want 2", len(assignments))
  }
  module, err := fx.moduleRepo.GetByID(ctx, nil, assignments[1].ModuleID)
  if err != nil {
    t.Fatalf("load module: %v", err)
  }
  if module.DurationMinutes != 15 {
    t.Fatalf("duration = %d, want out-of-range value clamped to 15", module.DurationMinutes)
  }
  if module.ContentType != types.ContentTypeVideo {
    t.Fatalf("content type = %q", module.ContentType)
  }
}
