package services

import (
  "context"
  "errors"
  "fmt"
  "math"
  "sort"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// completionThreshold is the progress percentage at which an update
// auto-completes the module.
const completionThreshold = 90

// journeyCompletionBonus is credited once when a journey completes.
const journeyCompletionBonus = 200

// PriorityProgress counts done/total assignments for one priority.
type PriorityProgress struct {
  Done  int `json:"done"`
  Total int `json:"total"`
}

// JourneyProgressDetail is the read model for one journey's progress.
type JourneyProgressDetail struct {
  JourneyID           uuid.UUID        `json:"journey_id"`
  Status              string           `json:"status"`
  ProgressPercentage  int              `json:"progress_percentage"`
  ModulesCompleted    int              `json:"modules_completed"`
  ModulesTotal        int              `json:"modules_total"`
  HoursSpent          float64          `json:"hours_spent"`
  HoursEstimated      float64          `json:"hours_estimated"`
  Critical            PriorityProgress `json:"critical"`
  High                PriorityProgress `json:"high"`
  AverageScore        float64          `json:"average_score"`
  SuccessProbability  float64          `json:"success_probability"`
  StartedAt           *time.Time       `json:"started_at,omitempty"`
  EstimatedCompletion *time.Time       `json:"estimated_completion,omitempty"`
  LastActivity        *time.Time       `json:"last_activity,omitempty"`
}

// ModulePeriodStats aggregates module activity over a stats period.
type ModulePeriodStats struct {
  Total          int     `json:"total"`
  Completed      int     `json:"completed"`
  CompletionRate float64 `json:"completion_rate"`
  AverageScore   float64 `json:"average_score"`
  TotalHours     float64 `json:"total_hours"`
}

// JourneyPeriodStats aggregates journey activity over a stats period.
type JourneyPeriodStats struct {
  Active    int `json:"active"`
  Completed int `json:"completed"`
  Total     int `json:"total"`
}

// UserStats is the learner's activity summary for a period.
type UserStats struct {
  PeriodDays     int                `json:"period_days"`
  Modules        ModulePeriodStats  `json:"modules"`
  Journeys       JourneyPeriodStats `json:"journeys"`
  StreakDays     int                `json:"streak_days"`
  SkillsAcquired []string           `json:"skills_acquired"`
  Rank           *RankInfo          `json:"rank_info"`
}

// ProgressTrackerService records per-module attempts, scores and time,
// propagates them into journey assignments, aggregates journey completion,
// and triggers reward issuance. Each mutating operation is one atomic
// transaction.
type ProgressTrackerService interface {
  StartModule(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleProgress, error)
  UpdateProgress(ctx context.Context, userID, moduleID uuid.UUID, percentage, timeSpentSeconds int) (*types.ModuleProgress, error)
  CompleteModule(ctx context.Context, userID, moduleID uuid.UUID, score float64, feedback string) (*types.ModuleProgress, error)

  StartJourney(ctx context.Context, userID, journeyID uuid.UUID) error
  PauseJourney(ctx context.Context, userID, journeyID uuid.UUID) error
  ResumeJourney(ctx context.Context, userID, journeyID uuid.UUID) error
  AbandonJourney(ctx context.Context, userID, journeyID uuid.UUID) error

  GetJourneyProgressDetail(ctx context.Context, journeyID uuid.UUID) (*JourneyProgressDetail, error)
  GetUserStats(ctx context.Context, userID uuid.UUID, periodDays int) (*UserStats, error)
}

type progressTrackerService struct {
  db                *gorm.DB
  log               *logger.Logger
  moduleRepo        repos.LearningModuleRepo
  progressRepo      repos.ModuleProgressRepo
  journeyRepo       repos.JourneyRepo
  journeyModuleRepo repos.JourneyModuleRepo
  credibility       CredibilityService
  notifier          Notifier
}

func NewProgressTrackerService(
  db *gorm.DB,
  baseLog *logger.Logger,
  moduleRepo repos.LearningModuleRepo,
  progressRepo repos.ModuleProgressRepo,
  journeyRepo repos.JourneyRepo,
  journeyModuleRepo repos.JourneyModuleRepo,
  credibility CredibilityService,
  notifier Notifier,
) ProgressTrackerService {
  return &progressTrackerService{
    db:                db,
    log:               baseLog.With("service", "ProgressTrackerService"),
    moduleRepo:        moduleRepo,
    progressRepo:      progressRepo,
    journeyRepo:       journeyRepo,
    journeyModuleRepo: journeyModuleRepo,
    credibility:       credibility,
    notifier:          notifier,
  }
}

// pendingNotification defers best-effort notifications until after the
// transaction commits, so a notifier failure can never roll back progress.
type pendingNotification struct {
  userID      uuid.UUID
  title       string
  message     string
  category    string
  relatedType string
  relatedID   *uuid.UUID
}

func (s *progressTrackerService) flushNotifications(ctx context.Context, pending []pendingNotification) {
  if s.notifier == nil {
    return
  }
  for _, n := range pending {
    s.notifier.Notify(ctx, n.userID, n.title, n.message, n.category, n.relatedType, n.relatedID)
  }
}

func (s *progressTrackerService) StartModule(ctx context.Context, userID, moduleID uuid.UUID) (*types.ModuleProgress, error) {
  if _, err := s.moduleRepo.GetByID(ctx, nil, moduleID); err != nil {
    return nil, fmt.Errorf("start module: %w", err)
  }

  var progress *types.ModuleProgress
  txErr := s.db.Transaction(func(tx *gorm.DB) error {
    row, created, err := s.progressRepo.GetOrCreate(ctx, tx, userID, moduleID)
    if err != nil {
      return err
    }

    now := time.Now().UTC()
    if created {
      row.Status = types.ProgressInProgress
      row.Attempts = 1
      row.StartedAt = &now
    } else {
      if row.Status == types.ProgressNotStarted {
        row.Status = types.ProgressInProgress
        row.StartedAt = &now
      }
      row.Attempts++
    }
    row.LastAccessed = &now
    if err := s.progressRepo.Save(ctx, tx, row); err != nil {
      return err
    }

    assignment, err := s.journeyModuleRepo.GetActiveByUserAndModule(ctx, tx, userID, moduleID)
    if err != nil {
      if errors.Is(err, pkgerrors.ErrNotFound) {
        progress = row
        return nil
      }
      return err
    }
    if !assignment.Started {
      assignment.Started = true
      assignment.StartedAt = &now
    }
    assignment.Attempts++
    if err := s.journeyModuleRepo.Save(ctx, tx, assignment); err != nil {
      return err
    }

    progress = row
    return nil
  })
  if txErr != nil {
    return nil, fmt.Errorf("start module: %w", txErr)
  }

  s.log.Info("module started", "user_id", userID, "module_id", moduleID, "attempts", progress.Attempts)
  return progress, nil
}

func (s *progressTrackerService) UpdateProgress(ctx context.Context, userID, moduleID uuid.UUID, percentage, timeSpentSeconds int) (*types.ModuleProgress, error) {
  if timeSpentSeconds < 0 {
    return nil, fmt.Errorf("update progress: %w: negative time spent", pkgerrors.ErrInvalidArgument)
  }
  // Percentage is clamped rather than rejected: trackers report noisy
  // values around module boundaries.
  if percentage < 0 {
    percentage = 0
  }
  if percentage > 100 {
    percentage = 100
  }

  var progress *types.ModuleProgress
  var pending []pendingNotification
  txErr := s.db.Transaction(func(tx *gorm.DB) error {
    row, err := s.progressRepo.GetByUserAndModule(ctx, tx, userID, moduleID)
    if err != nil {
      return err
    }

    now := time.Now().UTC()
    row.ProgressPercentage = percentage
    row.TimeSpentMinutes += timeSpentSeconds / 60
    row.LastAccessed = &now

    if percentage >= completionThreshold && row.CompletedAt == nil {
      // Propagate the reported time before completion so the journey
      // aggregate sees it.
      assignment, err := s.journeyModuleRepo.GetActiveByUserAndModule(ctx, tx, userID, moduleID)
      if err == nil {
        assignment.TimeSpentMinutes += timeSpentSeconds / 60
        if err := s.journeyModuleRepo.Save(ctx, tx, assignment); err != nil {
          return err
        }
      } else if !errors.Is(err, pkgerrors.ErrNotFound) {
        return err
      }

      outcome, err := s.completeInTx(ctx, tx, row, float64(percentage), "")
      if err != nil {
        return err
      }
      progress = outcome.progress
      pending = outcome.pending
      return nil
    }

    if err := s.progressRepo.Save(ctx, tx, row); err != nil {
      return err
    }

    assignment, err := s.journeyModuleRepo.GetActiveByUserAndModule(ctx, tx, userID, moduleID)
    if err != nil {
      if errors.Is(err, pkgerrors.ErrNotFound) {
        progress = row
        return nil
      }
      return err
    }
    assignment.TimeSpentMinutes += timeSpentSeconds / 60
    if err := s.journeyModuleRepo.Save(ctx, tx, assignment); err != nil {
      return err
    }
    if _, err := s.recomputeJourneyProgress(ctx, tx, assignment.JourneyID); err != nil {
      return err
    }

    progress = row
    return nil
  })
  if txErr != nil {
    return nil, fmt.Errorf("update progress: %w", txErr)
  }

  s.flushNotifications(ctx, pending)
  return progress, nil
}

func (s *progressTrackerService) CompleteModule(ctx context.Context, userID, moduleID uuid.UUID, score float64, feedback string) (*types.ModuleProgress, error) {
  var progress *types.ModuleProgress
  var pending []pendingNotification
  txErr := s.db.Transaction(func(tx *gorm.DB) error {
    row, err := s.progressRepo.GetByUserAndModule(ctx, tx, userID, moduleID)
    if err != nil {
      return err
    }
    outcome, err := s.completeInTx(ctx, tx, row, score, feedback)
    if err != nil {
      return err
    }
    progress = outcome.progress
    pending = outcome.pending
    return nil
  })
  if txErr != nil {
    return nil, fmt.Errorf("complete module: %w", txErr)
  }

  s.flushNotifications(ctx, pending)
  return progress, nil
}

type completionOutcome struct {
  progress *types.ModuleProgress
  pending  []pendingNotification
}

// completeInTx applies one logical completion event: progress row, module
// usage stats, journey assignment, journey aggregate, and reward credits,
// all inside the caller's transaction. Completing an already-completed
// module only raises best_score; it never double-counts completions or
// duplicates ledger entries.
func (s *progressTrackerService) completeInTx(ctx context.Context, tx *gorm.DB, row *types.ModuleProgress, score float64, feedback string) (*completionOutcome, error) {
  now := time.Now().UTC()

  if row.Status == types.ProgressCompleted {
    if row.BestScore == nil || score > *row.BestScore {
      row.BestScore = &score
    }
    if err := s.progressRepo.Save(ctx, tx, row); err != nil {
      return nil, err
    }
    return &completionOutcome{progress: row}, nil
  }

  row.Status = types.ProgressCompleted
  row.CompletedAt = &now
  row.ProgressPercentage = 100
  row.LastScore = &score
  if row.BestScore == nil || score > *row.BestScore {
    row.BestScore = &score
  }
  if feedback != "" {
    row.AIFeedback = feedback
  }
  row.LastAccessed = &now
  if err := s.progressRepo.Save(ctx, tx, row); err != nil {
    return nil, err
  }

  module, err := s.moduleRepo.GetByID(ctx, tx, row.ModuleID)
  if err != nil {
    return nil, err
  }
  updateModuleStats(module, score, row.TimeSpentMinutes)
  if err := s.moduleRepo.Save(ctx, tx, module); err != nil {
    return nil, err
  }

  pending := []pendingNotification{}
  criticalAssignment := false

  assignment, err := s.journeyModuleRepo.GetActiveByUserAndModule(ctx, tx, row.UserID, row.ModuleID)
  if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, err
  }
  if err == nil {
    criticalAssignment = assignment.Priority == types.PriorityCritical
    assignment.Completed = true
    assignment.CompletedAt = &now
    if assignment.BestScore == nil || score > *assignment.BestScore {
      assignment.BestScore = &score
    }
    if saveErr := s.journeyModuleRepo.Save(ctx, tx, assignment); saveErr != nil {
      return nil, saveErr
    }

    journey, recomputeErr := s.recomputeJourneyProgress(ctx, tx, assignment.JourneyID)
    if recomputeErr != nil {
      return nil, recomputeErr
    }
    completed, completeErr := s.checkJourneyCompletion(ctx, tx, journey)
    if completeErr != nil {
      return nil, completeErr
    }
    if completed {
      journeyID := journey.ID
      pending = append(pending, pendingNotification{
        userID:   row.UserID,
        title:    "Journey completed!",
        message:  fmt.Sprintf("You finished your learning path. You are ready to apply! +%d points", journeyCompletionBonus),
        category: types.NotificationAchievement,
        relatedType: "journey",
        relatedID:   &journeyID,
      })
    }
  }

  awarded, err := s.awardCompletionPoints(ctx, tx, row.UserID, module, score)
  if err != nil {
    return nil, err
  }

  if criticalAssignment {
    moduleID := module.ID
    pending = append(pending, pendingNotification{
      userID:      row.UserID,
      title:       "Critical module completed!",
      message:     fmt.Sprintf("You finished '%s' with a score of %.0f%%. +%d points", module.Title, score, awarded),
      category:    types.NotificationAchievement,
      relatedType: "learning_module",
      relatedID:   &moduleID,
    })
  }

  s.log.Info("module completed",
    "user_id", row.UserID, "module_id", module.ID, "score", score, "points", awarded)
  return &completionOutcome{progress: row, pending: pending}, nil
}

// updateModuleStats folds one completion into the module's aggregate usage
// stats with incremental running means; success rate counts completions
// scoring at least 70.
func updateModuleStats(module *types.LearningModule, score float64, timeMinutes int) {
  previous := module.TotalCompletions
  module.TotalCompletions = previous + 1
  n := float64(module.TotalCompletions)

  module.AverageScore = (module.AverageScore*float64(previous) + score) / n
  module.AverageTimeMinutes = int((float64(module.AverageTimeMinutes)*float64(previous) + float64(timeMinutes)) / n)

  successCount := int(math.Round(module.SuccessRate / 100 * float64(previous)))
  if score >= 70 {
    successCount++
  }
  module.SuccessRate = float64(successCount) / n * 100
}

// awardCompletionPoints credits base points plus a score-tier bonus.
func (s *progressTrackerService) awardCompletionPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, module *types.LearningModule, score float64) (int, error) {
  basePoints := module.PointsReward

  var bonus int
  switch {
  case score >= 90:
    bonus = int(float64(basePoints) * 0.5)
  case score >= 80:
    bonus = int(float64(basePoints) * 0.3)
  case score >= 70:
    bonus = int(float64(basePoints) * 0.1)
  }
  total := basePoints + bonus

  _, err := s.credibility.AddPoints(ctx, tx, userID, total, types.PointsSourceModuleCompletion,
    fmt.Sprintf("Module completed: %s (%.0f%%)", module.Title, score))
  if err != nil {
    return 0, err
  }
  return total, nil
}

// recomputeJourneyProgress recalculates the journey aggregate from the full
// current assignment set. Recomputing instead of incrementing keeps
// concurrent completions and retries from double-counting.
func (s *progressTrackerService) recomputeJourneyProgress(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) (*types.Journey, error) {
  journey, err := s.journeyRepo.GetByID(ctx, tx, journeyID)
  if err != nil {
    return nil, err
  }

  assignments, err := s.journeyModuleRepo.GetByJourneyID(ctx, tx, journeyID)
  if err != nil {
    return nil, err
  }
  if len(assignments) == 0 {
    return journey, nil
  }

  completed := 0
  totalMinutes := 0
  for _, assignment := range assignments {
    if assignment.Completed {
      completed++
    }
    totalMinutes += assignment.TimeSpentMinutes
  }

  now := time.Now().UTC()
  journey.ProgressPercentage = int(math.Round(float64(completed) / float64(len(assignments)) * 100))
  journey.ModulesCompleted = completed
  journey.HoursCompleted = float64(totalMinutes) / 60
  journey.LastActivity = &now
  if err := s.journeyRepo.Save(ctx, tx, journey); err != nil {
    return nil, err
  }
  return journey, nil
}

// checkJourneyCompletion flips the journey to completed when every
// mandatory assignment is done, crediting the completion bonus once.
// Completion depends on mandatory assignments only; the percentage tracks
// all assignments.
func (s *progressTrackerService) checkJourneyCompletion(ctx context.Context, tx *gorm.DB, journey *types.Journey) (bool, error) {
  if journey.Status == types.JourneyCompleted {
    return false, nil
  }

  assignments, err := s.journeyModuleRepo.GetByJourneyID(ctx, tx, journey.ID)
  if err != nil {
    return false, err
  }
  if len(assignments) == 0 {
    return false, nil
  }
  for _, assignment := range assignments {
    if assignment.IsMandatory && !assignment.Completed {
      return false, nil
    }
  }

  now := time.Now().UTC()
  journey.Status = types.JourneyCompleted
  journey.CompletedAt = &now
  if err := s.journeyRepo.Save(ctx, tx, journey); err != nil {
    return false, err
  }

  if _, err := s.credibility.AddPoints(ctx, tx, journey.UserID, journeyCompletionBonus,
    types.PointsSourceJourneyCompletion, "Learning journey completed"); err != nil {
    return false, err
  }

  s.log.Info("journey completed", "journey_id", journey.ID, "user_id", journey.UserID)
  return true, nil
}

// --- journey lifecycle ---

func (s *progressTrackerService) transitionJourney(ctx context.Context, userID, journeyID uuid.UUID, apply func(*types.Journey) error) error {
  return s.db.Transaction(func(tx *gorm.DB) error {
    journey, err := s.journeyRepo.GetByID(ctx, tx, journeyID)
    if err != nil {
      return err
    }
    if journey.UserID != userID {
      return pkgerrors.ErrNotFound
    }
    if err := apply(journey); err != nil {
      return err
    }
    return s.journeyRepo.Save(ctx, tx, journey)
  })
}

func (s *progressTrackerService) StartJourney(ctx context.Context, userID, journeyID uuid.UUID) error {
  return s.transitionJourney(ctx, userID, journeyID, func(journey *types.Journey) error {
    if journey.Status != types.JourneyNotStarted {
      return fmt.Errorf("%w: journey is %s", pkgerrors.ErrInvalidArgument, journey.Status)
    }
    now := time.Now().UTC()
    journey.Status = types.JourneyInProgress
    journey.StartedAt = &now
    journey.LastActivity = &now
    return nil
  })
}

func (s *progressTrackerService) PauseJourney(ctx context.Context, userID, journeyID uuid.UUID) error {
  return s.transitionJourney(ctx, userID, journeyID, func(journey *types.Journey) error {
    if journey.Status != types.JourneyInProgress {
      return fmt.Errorf("%w: journey is %s", pkgerrors.ErrInvalidArgument, journey.Status)
    }
    journey.Status = types.JourneyPaused
    return nil
  })
}

func (s *progressTrackerService) ResumeJourney(ctx context.Context, userID, journeyID uuid.UUID) error {
  return s.transitionJourney(ctx, userID, journeyID, func(journey *types.Journey) error {
    if journey.Status != types.JourneyPaused {
      return fmt.Errorf("%w: journey is %s", pkgerrors.ErrInvalidArgument, journey.Status)
    }
    journey.Status = types.JourneyInProgress
    return nil
  })
}

func (s *progressTrackerService) AbandonJourney(ctx context.Context, userID, journeyID uuid.UUID) error {
  return s.transitionJourney(ctx, userID, journeyID, func(journey *types.Journey) error {
    if journey.Status == types.JourneyCompleted {
      return fmt.Errorf("%w: journey already completed", pkgerrors.ErrInvalidArgument)
    }
    journey.Status = types.JourneyAbandoned
    return nil
  })
}

// --- read models ---

func (s *progressTrackerService) GetJourneyProgressDetail(ctx context.Context, journeyID uuid.UUID) (*JourneyProgressDetail, error) {
  journey, err := s.journeyRepo.GetByID(ctx, nil, journeyID)
  if err != nil {
    return nil, fmt.Errorf("journey progress detail: %w", err)
  }
  assignments, err := s.journeyModuleRepo.GetByJourneyID(ctx, nil, journeyID)
  if err != nil {
    return nil, fmt.Errorf("journey progress detail: %w", err)
  }

  detail := &JourneyProgressDetail{
    JourneyID:           journey.ID,
    Status:              journey.Status,
    ProgressPercentage:  journey.ProgressPercentage,
    ModulesTotal:        len(assignments),
    HoursEstimated:      journey.TotalEstimatedHours,
    SuccessProbability:  journey.SuccessProbability,
    StartedAt:           journey.StartedAt,
    EstimatedCompletion: journey.EstimatedCompletionDate,
    LastActivity:        journey.LastActivity,
  }

  totalMinutes := 0
  scoreSum := 0.0
  scored := 0
  for _, assignment := range assignments {
    if assignment.Completed {
      detail.ModulesCompleted++
    }
    totalMinutes += assignment.TimeSpentMinutes
    if assignment.BestScore != nil {
      scoreSum += *assignment.BestScore
      scored++
    }
    switch assignment.Priority {
    case types.PriorityCritical:
      detail.Critical.Total++
      if assignment.Completed {
        detail.Critical.Done++
      }
    case types.PriorityHigh:
      detail.High.Total++
      if assignment.Completed {
        detail.High.Done++
      }
    }
  }
  detail.HoursSpent = math.Round(float64(totalMinutes)/60*10) / 10
  if scored > 0 {
    detail.AverageScore = math.Round(scoreSum/float64(scored)*10) / 10
  }

  return detail, nil
}

func (s *progressTrackerService) GetUserStats(ctx context.Context, userID uuid.UUID, periodDays int) (*UserStats, error) {
  if periodDays <= 0 {
    periodDays = 30
  }
  since := time.Now().UTC().AddDate(0, 0, -periodDays)

  rows, err := s.progressRepo.GetByUserStartedSince(ctx, nil, userID, since)
  if err != nil {
    return nil, fmt.Errorf("user stats: %w", err)
  }

  stats := &UserStats{PeriodDays: periodDays, SkillsAcquired: []string{}}
  totalMinutes := 0
  scoreSum := 0.0
  acquiredModuleIDs := []uuid.UUID{}
  for _, row := range rows {
    stats.Modules.Total++
    totalMinutes += row.TimeSpentMinutes
    if row.Status == types.ProgressCompleted {
      stats.Modules.Completed++
      if row.BestScore != nil {
        scoreSum += *row.BestScore
        if *row.BestScore >= 70 {
          acquiredModuleIDs = append(acquiredModuleIDs, row.ModuleID)
        }
      }
    }
  }
  if stats.Modules.Total > 0 {
    stats.Modules.CompletionRate = math.Round(float64(stats.Modules.Completed)/float64(stats.Modules.Total)*1000) / 10
  }
  if stats.Modules.Completed > 0 {
    stats.Modules.AverageScore = math.Round(scoreSum/float64(stats.Modules.Completed)*10) / 10
  }
  stats.Modules.TotalHours = math.Round(float64(totalMinutes)/60*10) / 10

  journeys, err := s.journeyRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("user stats: %w", err)
  }
  for _, journey := range journeys {
    if journey.CreatedAt.Before(since) {
      continue
    }
    stats.Journeys.Total++
    switch journey.Status {
    case types.JourneyInProgress:
      stats.Journeys.Active++
    case types.JourneyCompleted:
      stats.Journeys.Completed++
    }
  }

  activity, err := s.progressRepo.GetActivityTimes(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("user stats: %w", err)
  }
  stats.StreakDays = learningStreak(activity, time.Now().UTC())

  if len(acquiredModuleIDs) > 0 {
    modules, err := s.moduleRepo.GetByIDs(ctx, nil, acquiredModuleIDs)
    if err != nil {
      return nil, fmt.Errorf("user stats: %w", err)
    }
    seen := map[string]struct{}{}
    for _, module := range modules {
      if _, ok := seen[module.SkillTaught]; !ok {
        seen[module.SkillTaught] = struct{}{}
        stats.SkillsAcquired = append(stats.SkillsAcquired, module.SkillTaught)
      }
    }
    sort.Strings(stats.SkillsAcquired)
  }

  if s.credibility != nil {
    rank, err := s.credibility.GetRank(ctx, userID)
    if err != nil {
      return nil, fmt.Errorf("user stats: %w", err)
    }
    stats.Rank = rank
  }

  return stats, nil
}

// learningStreak counts consecutive days with activity, walking back from
// today. Timestamps arrive newest first.
func learningStreak(activity []time.Time, now time.Time) int {
  seen := map[string]struct{}{}
  days := []string{}
  for _, ts := range activity {
    day := ts.UTC().Format("2006-01-02")
    if _, ok := seen[day]; !ok {
      seen[day] = struct{}{}
      days = append(days, day)
    }
  }

  streak := 0
  for _, day := range days {
    expected := now.AddDate(0, 0, -streak).Format("2006-01-02")
    if day != expected {
      break
    }
    streak++
  }
  return streak
}
