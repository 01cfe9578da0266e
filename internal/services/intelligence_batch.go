package services

import (
  "context"
  "fmt"

  "github.com/robfig/cron/v3"
  "golang.org/x/sync/errgroup"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/repos"
)

// BatchAnalyzer periodically re-analyzes active opportunities so their skill
// profiles stay fresh. Each opportunity is analyzed independently: failures
// are logged and skipped, and no ordering is guaranteed between them.
type BatchAnalyzer struct {
  cron            *cron.Cron
  log             *logger.Logger
  opportunityRepo repos.OpportunityRepo
  intelligence    OpportunityIntelligenceService
  schedule        string
  concurrency     int
}

func NewBatchAnalyzer(
  baseLog *logger.Logger,
  opportunityRepo repos.OpportunityRepo,
  intelligence OpportunityIntelligenceService,
  intervalHours int,
  concurrency int,
) *BatchAnalyzer {
  if concurrency <= 0 {
    concurrency = 4
  }
  return &BatchAnalyzer{
    cron:            cron.New(),
    log:             baseLog.With("service", "BatchAnalyzer"),
    opportunityRepo: opportunityRepo,
    intelligence:    intelligence,
    schedule:        fmt.Sprintf("@every %dh", intervalHours),
    concurrency:     concurrency,
  }
}

// Start registers the cron job and runs one cycle immediately so fresh
// deployments do not wait for the first tick.
func (b *BatchAnalyzer) Start(ctx context.Context) error {
  _, err := b.cron.AddFunc(b.schedule, func() {
    b.RunCycle(ctx)
  })
  if err != nil {
    return fmt.Errorf("cron.AddFunc: %w", err)
  }

  b.cron.Start()
  b.log.Info("batch analyzer started", "schedule", b.schedule)

  go b.RunCycle(ctx)
  return nil
}

func (b *BatchAnalyzer) Stop() {
  b.cron.Stop()
  b.log.Info("batch analyzer stopped")
}

// RunCycle analyzes every active opportunity with bounded concurrency.
func (b *BatchAnalyzer) RunCycle(ctx context.Context) {
  ids, err := b.opportunityRepo.ListActiveIDs(ctx, nil)
  if err != nil {
    b.log.Error("failed to list active opportunities", "error", err)
    return
  }
  if len(ids) == 0 {
    b.log.Debug("no active opportunities to analyze")
    return
  }

  b.log.Info("analysis cycle started", "opportunities", len(ids))

  g, groupCtx := errgroup.WithContext(ctx)
  g.SetLimit(b.concurrency)
  for _, id := range ids {
    g.Go(func() error {
      if _, analyzeErr := b.intelligence.AnalyzeOpportunity(groupCtx, id, true); analyzeErr != nil {
        b.log.Warn("opportunity analysis failed", "error", analyzeErr, "opportunity_id", id)
      }
      // Failures are independent; never cancel the rest of the batch.
      return nil
    })
  }
  _ = g.Wait()

  b.log.Info("analysis cycle complete", "opportunities", len(ids))
}
