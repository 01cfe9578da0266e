package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "math"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

const (
  // MaxJourneyHours caps the total estimated duration of a generated plan.
  MaxJourneyHours = 40.0
  // MaxPlanModules caps how many modules the suggestion source may propose.
  MaxPlanModules = 8
  // promptGapLimit bounds how many gaps go into the suggestion prompt.
  promptGapLimit = 5
  // fallbackGapLimit bounds how many gaps become fallback modules.
  fallbackGapLimit = 6
  // dailyLearningHours is the pace assumption behind completion estimates.
  dailyLearningHours = 2.0
)

// PathGeneratorService turns a user's skill gaps for a target opportunity
// into a persisted journey with ordered module assignments.
type PathGeneratorService interface {
  GenerateJourney(ctx context.Context, userID, opportunityID uuid.UUID) (*types.Journey, error)
}

type pathGeneratorService struct {
  db                *gorm.DB
  log               *logger.Logger
  userRepo          repos.UserRepo
  opportunityRepo   repos.OpportunityRepo
  journeyRepo       repos.JourneyRepo
  journeyModuleRepo repos.JourneyModuleRepo
  moduleRepo        repos.LearningModuleRepo
  progressRepo      repos.ModuleProgressRepo
  credibilityRepo   repos.CredibilityRepo
  intelligence      OpportunityIntelligenceService
  suggestions       SuggestionClient
  notifier          Notifier
}

func NewPathGeneratorService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  opportunityRepo repos.OpportunityRepo,
  journeyRepo repos.JourneyRepo,
  journeyModuleRepo repos.JourneyModuleRepo,
  moduleRepo repos.LearningModuleRepo,
  progressRepo repos.ModuleProgressRepo,
  credibilityRepo repos.CredibilityRepo,
  intelligence OpportunityIntelligenceService,
  suggestions SuggestionClient,
  notifier Notifier,
) PathGeneratorService {
  return &pathGeneratorService{
    db:                db,
    log:               baseLog.With("service", "PathGeneratorService"),
    userRepo:          userRepo,
    opportunityRepo:   opportunityRepo,
    journeyRepo:       journeyRepo,
    journeyModuleRepo: journeyModuleRepo,
    moduleRepo:        moduleRepo,
    progressRepo:      progressRepo,
    credibilityRepo:   credibilityRepo,
    intelligence:      intelligence,
    suggestions:       suggestions,
    notifier:          notifier,
  }
}

// GenerateJourney builds the learning journey for (user, opportunity).
// Re-requesting an already-generated journey returns it unchanged. The
// suggestion source is optional: any failure or invalid payload falls back
// to a deterministic plan derived from the gap list, so generation succeeds
// with zero external dependencies available. Only persistence failure is
// fatal, and it leaves no partial journey behind.
func (s *pathGeneratorService) GenerateJourney(ctx context.Context, userID, opportunityID uuid.UUID) (*types.Journey, error) {
  user, err := s.userRepo.GetByID(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("generate journey: load user: %w", err)
  }
  opportunity, err := s.opportunityRepo.GetByID(ctx, nil, opportunityID)
  if err != nil {
    return nil, fmt.Errorf("generate journey: load opportunity: %w", err)
  }

  // Idempotent re-request: a journey that was already generated (and in
  // particular a completed one) is returned as-is.
  if existing, err := s.journeyRepo.GetByUserAndOpportunity(ctx, nil, userID, opportunityID); err == nil {
    if existing.Status == types.JourneyCompleted {
      s.log.Info("journey already completed", "user_id", userID, "opportunity_id", opportunityID)
      return existing, nil
    }
    count, countErr := s.journeyModuleRepo.CountByJourneyID(ctx, nil, existing.ID)
    if countErr != nil {
      return nil, fmt.Errorf("generate journey: %w", countErr)
    }
    if count > 0 {
      return existing, nil
    }
  } else if !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, fmt.Errorf("generate journey: %w", err)
  }

  requirements, err := s.intelligence.GetSkillRequirements(ctx, opportunityID)
  if err != nil {
    return nil, fmt.Errorf("generate journey: %w", err)
  }

  profile, err := s.assessUserSkills(ctx, user)
  if err != nil {
    return nil, fmt.Errorf("generate journey: %w", err)
  }
  gaps := CalculateSkillGaps(requirements, profile)

  plan := s.requestPlan(ctx, opportunity, gaps)

  level := 0
  if aggregate, credErr := s.credibilityRepo.GetByUserID(ctx, nil, userID); credErr == nil {
    level = aggregate.Level
  }
  probability := PredictSuccessProbability(gaps, level)

  var journey *types.Journey
  txErr := s.db.Transaction(func(tx *gorm.DB) error {
    row, _, err := s.journeyRepo.GetOrCreate(ctx, tx, userID, opportunityID)
    if err != nil {
      return err
    }
    if row.Status == types.JourneyCompleted {
      journey = row
      return nil
    }
    count, err := s.journeyModuleRepo.CountByJourneyID(ctx, tx, row.ID)
    if err != nil {
      return err
    }
    if count > 0 {
      journey = row
      return nil
    }

    if err := s.createAssignments(ctx, tx, row, plan); err != nil {
      return err
    }

    profileJSON, err := json.Marshal(profile)
    if err != nil {
      return err
    }
    gapsJSON, err := json.Marshal(gaps)
    if err != nil {
      return err
    }
    completionDate := estimateCompletionDate(plan.EstimatedTotalHours)

    row.UserCurrentLevel = datatypes.JSON(profileJSON)
    row.SkillGaps = datatypes.JSON(gapsJSON)
    row.TotalEstimatedHours = plan.EstimatedTotalHours
    row.SuccessProbability = probability
    row.EstimatedCompletionDate = &completionDate
    if err := s.journeyRepo.Save(ctx, tx, row); err != nil {
      return err
    }
    journey = row
    return nil
  })
  if txErr != nil {
    s.log.Error("journey generation failed",
      "error", txErr, "user_id", userID, "opportunity_id", opportunityID, "gap_count", len(gaps))
    return nil, fmt.Errorf("generate journey: %w", txErr)
  }

  if journey.Status == types.JourneyNotStarted && s.notifier != nil {
    firstModule := ""
    if len(plan.Modules) > 0 {
      firstModule = plan.Modules[0].Title
    }
    journeyID := journey.ID
    s.notifier.Notify(ctx, userID,
      "Your learning path is ready!",
      fmt.Sprintf("Target: %s. Estimated duration: %.1fh over %d modules. First module: %s.",
        opportunity.Title, journey.TotalEstimatedHours, len(plan.Modules), firstModule),
      types.NotificationSystem, "journey", &journeyID)
  }

  s.log.Info("journey generated",
    "journey_id", journey.ID, "user_id", userID, "opportunity_id", opportunityID,
    "modules", len(plan.Modules), "gap_count", len(gaps), "probability", probability)
  return journey, nil
}

// assessUserSkills builds the learner's skill profile from declared skills
// and completed-module history.
func (s *pathGeneratorService) assessUserSkills(ctx context.Context, user *types.User) (map[string]float64, error) {
  completed, err := s.progressRepo.GetCompletedByUser(ctx, nil, user.ID)
  if err != nil {
    return nil, err
  }

  moduleIDs := make([]uuid.UUID, 0, len(completed))
  for _, progress := range completed {
    moduleIDs = append(moduleIDs, progress.ModuleID)
  }
  modules, err := s.moduleRepo.GetByIDs(ctx, nil, moduleIDs)
  if err != nil {
    return nil, err
  }
  skillByModule := make(map[uuid.UUID]string, len(modules))
  for _, module := range modules {
    skillByModule[module.ID] = module.SkillTaught
  }

  completions := make([]CompletedSkill, 0, len(completed))
  for _, progress := range completed {
    if progress.BestScore == nil {
      continue
    }
    skill, ok := skillByModule[progress.ModuleID]
    if !ok {
      continue
    }
    completions = append(completions, CompletedSkill{Skill: skill, BestScore: *progress.BestScore})
  }

  return BuildSkillProfile(user.Skills, completions), nil
}

// requestPlan asks the suggestion source for a module plan and falls back to
// the deterministic gap-derived plan on any failure or invalid payload.
func (s *pathGeneratorService) requestPlan(ctx context.Context, opportunity *types.Opportunity, gaps []types.SkillGap) *PlanSuggestion {
  if s.suggestions == nil {
    return FallbackPlan(gaps)
  }

  promptGaps := gaps
  if len(promptGaps) > promptGapLimit {
    promptGaps = promptGaps[:promptGapLimit]
  }
  plan, err := s.suggestions.GeneratePlan(ctx, PlanRequest{
    OpportunityTitle: opportunity.Title,
    Organization:     opportunity.Organization,
    SkillGaps:        promptGaps,
    MaxModules:       MaxPlanModules,
    MaxHours:         MaxJourneyHours,
  })
  if err != nil {
    s.log.Warn("suggestion source failed, using fallback plan", "error", err, "opportunity_id", opportunity.ID)
    return FallbackPlan(gaps)
  }
  if err := ValidatePlan(plan); err != nil {
    s.log.Warn("suggestion plan invalid, using fallback plan", "error", err, "opportunity_id", opportunity.ID)
    return FallbackPlan(gaps)
  }
  return plan
}

// ValidatePlan rejects suggestion payloads this core cannot safely consume.
func ValidatePlan(plan *PlanSuggestion) error {
  if plan == nil {
    return fmt.Errorf("plan is nil")
  }
  if len(plan.Modules) == 0 {
    return fmt.Errorf("plan has no modules")
  }
  if plan.EstimatedTotalHours > MaxJourneyHours {
    return fmt.Errorf("plan exceeds %0.f hour cap: %v", MaxJourneyHours, plan.EstimatedTotalHours)
  }
  return nil
}

// FallbackPlan synthesizes a deterministic plan from the gap list: one
// 15-minute video module per top-6 gaps. Pure function of its input,
// independent of why the suggestion source failed.
func FallbackPlan(gaps []types.SkillGap) *PlanSuggestion {
  limited := gaps
  if len(limited) > fallbackGapLimit {
    limited = limited[:fallbackGapLimit]
  }

  modules := make([]PlanModule, 0, len(limited))
  for _, gap := range limited {
    modules = append(modules, PlanModule{
      Skill:           gap.Skill,
      Type:            types.ContentTypeVideo,
      DurationMinutes: 15,
      Priority:        gap.Priority,
      Title:           fmt.Sprintf("Introduction to %s", gap.Skill),
      Description:     fmt.Sprintf("Learning module for %s", gap.Skill),
      LearningObjectives: []string{
        fmt.Sprintf("Understand %s", gap.Skill),
        fmt.Sprintf("Practice %s", gap.Skill),
      },
    })
  }

  return &PlanSuggestion{
    Modules:             modules,
    EstimatedTotalHours: float64(len(modules)) * 0.25,
    RecommendedPace:     "2h per day",
    SuccessTips:         []string{"Practice regularly", "Take notes"},
  }
}

// createAssignments materializes plan entries as learning modules and
// ordered journey assignments. Modules are reused by (skill_taught, title);
// auto-created ones start inactive until curated.
func (s *pathGeneratorService) createAssignments(ctx context.Context, tx *gorm.DB, journey *types.Journey, plan *PlanSuggestion) error {
  assignments := make([]*types.JourneyModule, 0, len(plan.Modules))

  for idx, entry := range plan.Modules {
    module, err := s.findOrCreateModule(ctx, tx, entry)
    if err != nil {
      return err
    }

    priority := entry.Priority
    if priority == "" {
      priority = types.PriorityMedium
    }
    assignments = append(assignments, &types.JourneyModule{
      JourneyID:   journey.ID,
      ModuleID:    module.ID,
      Order:       idx + 1,
      Priority:    priority,
      IsMandatory: types.IsMandatoryPriority(priority),
    })
  }

  return s.journeyModuleRepo.Create(ctx, tx, assignments)
}

func (s *pathGeneratorService) findOrCreateModule(ctx context.Context, tx *gorm.DB, entry PlanModule) (*types.LearningModule, error) {
  existing, err := s.moduleRepo.GetBySkillAndTitle(ctx, tx, entry.Skill, entry.Title)
  if err == nil {
    return existing, nil
  }
  if !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, err
  }

  contentType := entry.Type
  if contentType == "" {
    contentType = types.ContentTypeVideo
  }
  duration := entry.DurationMinutes
  if duration < 5 || duration > 30 {
    duration = 15
  }
  objectives, marshalErr := json.Marshal(entry.LearningObjectives)
  if marshalErr != nil {
    return nil, marshalErr
  }

  module := &types.LearningModule{
    Title:              entry.Title,
    SkillTaught:        entry.Skill,
    Description:        entry.Description,
    ContentType:        contentType,
    DurationMinutes:    duration,
    Difficulty:         types.DifficultyIntermediate,
    LearningObjectives: datatypes.JSON(objectives),
    PointsReward:       10,
    // Content does not exist yet for synthesized modules; curation
    // activates them.
    IsActive: false,
  }
  if createErr := s.moduleRepo.Create(ctx, tx, module); createErr != nil {
    existing, fetchErr := s.moduleRepo.GetBySkillAndTitle(ctx, tx, entry.Skill, entry.Title)
    if fetchErr != nil {
      return nil, createErr
    }
    return existing, nil
  }
  return module, nil
}

// estimateCompletionDate projects the finish date at 2 study hours per day
// with a 20% buffer.
func estimateCompletionDate(totalHours float64) time.Time {
  days := int(math.Ceil(totalHours / dailyLearningHours * 1.2))
  return time.Now().UTC().AddDate(0, 0, days)
}
