package main

import (
  "context"
  "fmt"
  "os"
  "os/signal"
  "syscall"
  "github.com/redis/go-redis/v9"
  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/utils"
  "github.com/opportuci/opportuci-backend/internal/db"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/services"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
  defer stop()

  // Env
  log.Info("Loading environment variables from main...")
  redisURL := utils.GetEnv("REDIS_URL", "", log)
  analysisIntervalHours := utils.GetEnvAsInt("ANALYSIS_INTERVAL_HOURS", 24, log)
  analysisConcurrency := utils.GetEnvAsInt("ANALYSIS_CONCURRENCY", 4, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Redis is optional: without it, analyses always hit the suggestion source.
  var redisClient *redis.Client
  if redisURL != "" {
    redisClient, err = db.NewRedisClient(ctx, redisURL)
    if err != nil {
      log.Warn("Redis init failed, continuing without cache", "error", err)
      redisClient = nil
    }
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  opportunityRepo := repos.NewOpportunityRepo(thePG, log)
  intelligenceRepo := repos.NewOpportunityIntelligenceRepo(thePG, log)
  moduleRepo := repos.NewLearningModuleRepo(thePG, log)
  journeyRepo := repos.NewJourneyRepo(thePG, log)
  journeyModuleRepo := repos.NewJourneyModuleRepo(thePG, log)
  progressRepo := repos.NewModuleProgressRepo(thePG, log)
  credibilityRepo := repos.NewCredibilityRepo(thePG, log)
  pointsHistoryRepo := repos.NewPointsHistoryRepo(thePG, log)
  notificationRepo := repos.NewNotificationRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  suggestionClient, err := services.NewAISuggestionClient(log)
  if err != nil {
    log.Warn("Could not init suggestion client, falling back to deterministic plans", "error", err)
    suggestionClient = nil
  }
  notifier := services.NewNotifier(log, notificationRepo)
  credibilityService := services.NewCredibilityService(thePG, log, credibilityRepo, pointsHistoryRepo)
  intelligenceService := services.NewOpportunityIntelligenceService(thePG, log, redisClient, opportunityRepo, intelligenceRepo, userRepo, suggestionClient)
  pathGenerator := services.NewPathGeneratorService(
    thePG,
    log,
    userRepo,
    opportunityRepo,
    journeyRepo,
    journeyModuleRepo,
    moduleRepo,
    progressRepo,
    credibilityRepo,
    intelligenceService,
    suggestionClient,
    notifier,
  )
  progressTracker := services.NewProgressTrackerService(
    thePG,
    log,
    moduleRepo,
    progressRepo,
    journeyRepo,
    journeyModuleRepo,
    credibilityService,
    notifier,
  )
  _ = pathGenerator
  _ = progressTracker

  batchAnalyzer := services.NewBatchAnalyzer(log, opportunityRepo, intelligenceService, analysisIntervalHours, analysisConcurrency)
  if err := batchAnalyzer.Start(ctx); err != nil {
    log.Error("Could not start batch analyzer", "error", err)
    os.Exit(1)
  }

  log.Info("Started")
  <-ctx.Done()
  batchAnalyzer.Stop()
  log.Info("Shutting down")
}
