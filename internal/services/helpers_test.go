package services

import (
  "context"
  "fmt"
  "strings"
  "testing"

  "github.com/google/uuid"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// newTestDB opens an isolated in-memory database and migrates the full
// schema. Shared cache keeps the database alive across pooled connections.
func newTestDB(t *testing.T) *gorm.DB {
  t.Helper()
  name := strings.ReplaceAll(t.Name(), "/", "_")
  db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
  if err != nil {
    t.Fatalf("open test db: %v", err)
  }
  err = db.AutoMigrate(
    &types.User{},
    &types.Opportunity{},
    &types.OpportunityIntelligence{},
    &types.LearningModule{},
    &types.Journey{},
    &types.JourneyModule{},
    &types.ModuleProgress{},
    &types.CredibilityPoints{},
    &types.PointsHistory{},
    &types.Notification{},
  )
  if err != nil {
    t.Fatalf("migrate test db: %v", err)
  }
  return db
}

func testLog(t *testing.T) *logger.Logger {
  t.Helper()
  return logger.NewNop()
}

// stubSuggestionClient scripts the external suggestion source.
type stubSuggestionClient struct {
  plan       *PlanSuggestion
  planErr    error
  extraction *SkillExtraction
  extractErr error

  planCalls    int
  extractCalls int
}

func (s *stubSuggestionClient) GeneratePlan(ctx context.Context, req PlanRequest) (*PlanSuggestion, error) {
  s.planCalls++
  if s.planErr != nil {
    return nil, s.planErr
  }
  return s.plan, nil
}

func (s *stubSuggestionClient) ExtractSkills(ctx context.Context, opportunity *types.Opportunity) (*SkillExtraction, error) {
  s.extractCalls++
  if s.extractErr != nil {
    return nil, s.extractErr
  }
  return s.extraction, nil
}

// recordingNotifier captures notifications instead of persisting them.
type recordingNotifier struct {
  titles []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message, category, relatedType string, relatedID *uuid.UUID) {
  n.titles = append(n.titles, title)
}

func mustCreate(t *testing.T, db *gorm.DB, row any) {
  t.Helper()
  if err := db.Create(row).Error; err != nil {
    t.Fatalf("create %T: %v", row, err)
  }
}
