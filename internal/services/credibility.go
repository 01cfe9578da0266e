package services

import (
  "context"
  "errors"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// RankInfo is the read-only leaderboard view of one user's credibility.
type RankInfo struct {
  Points     int `json:"points"`
  Level      int `json:"level"`
  Percentile int `json:"percentile"`
  Rank       int `json:"rank"`
  TotalUsers int `json:"total_users"`
}

// CredibilityService owns the append-only points ledger and the per-user
// points/level aggregate.
type CredibilityService interface {
  // AddPoints appends a ledger entry and updates the aggregate inside the
  // caller's transaction (tx may be nil for a standalone write).
  AddPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, source, description string) (*types.CredibilityPoints, error)
  GetRank(ctx context.Context, userID uuid.UUID) (*RankInfo, error)
}

type credibilityService struct {
  db              *gorm.DB
  log             *logger.Logger
  credibilityRepo repos.CredibilityRepo
  historyRepo     repos.PointsHistoryRepo
}

func NewCredibilityService(
  db *gorm.DB,
  baseLog *logger.Logger,
  credibilityRepo repos.CredibilityRepo,
  historyRepo repos.PointsHistoryRepo,
) CredibilityService {
  return &credibilityService{
    db:              db,
    log:             baseLog.With("service", "CredibilityService"),
    credibilityRepo: credibilityRepo,
    historyRepo:     historyRepo,
  }
}

// ComputeLevel derives the level from a cumulative points total. Reaching
// level k+1 from level k costs 100*k additional points, so the thresholds
// are 0, 100, 300, 600, 1000, ... Always recomputed from the total rather
// than incremented, so repeated recomputation cannot drift.
func ComputeLevel(points int) int {
  level := 1
  pointsNeeded := 0
  for {
    nextLevelPoints := 100 * level
    if points >= pointsNeeded+nextLevelPoints {
      level++
      pointsNeeded += nextLevelPoints
    } else {
      break
    }
  }
  return level
}

func (s *credibilityService) AddPoints(ctx context.Context, tx *gorm.DB, userID uuid.UUID, points int, source, description string) (*types.CredibilityPoints, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: missing user id", pkgerrors.ErrInvalidArgument)
  }
  if points < 0 {
    return nil, fmt.Errorf("%w: points must be >= 0", pkgerrors.ErrInvalidArgument)
  }

  entry := &types.PointsHistory{
    UserID:      userID,
    Operation:   types.PointsOperationAdd,
    Points:      points,
    Source:      source,
    Description: description,
  }
  if err := s.historyRepo.Create(ctx, tx, entry); err != nil {
    return nil, fmt.Errorf("append ledger entry: %w", err)
  }

  aggregate, err := s.credibilityRepo.GetOrCreate(ctx, tx, userID)
  if err != nil {
    return nil, fmt.Errorf("load credibility aggregate: %w", err)
  }
  aggregate.Points += points
  aggregate.Level = ComputeLevel(aggregate.Points)
  if err := s.credibilityRepo.Save(ctx, tx, aggregate); err != nil {
    return nil, fmt.Errorf("save credibility aggregate: %w", err)
  }

  s.log.Debug("points credited", "user_id", userID, "points", points, "source", source, "level", aggregate.Level)
  return aggregate, nil
}

func (s *credibilityService) GetRank(ctx context.Context, userID uuid.UUID) (*RankInfo, error) {
  aggregate, err := s.credibilityRepo.GetByUserID(ctx, nil, userID)
  if err != nil {
    if errors.Is(err, pkgerrors.ErrNotFound) {
      return &RankInfo{Points: 0, Level: 1, Percentile: 50, Rank: 0, TotalUsers: 0}, nil
    }
    return nil, err
  }

  better, err := s.credibilityRepo.CountWithMorePoints(ctx, nil, aggregate.Points)
  if err != nil {
    return nil, err
  }
  total, err := s.credibilityRepo.CountAll(ctx, nil)
  if err != nil {
    return nil, err
  }

  percentile := 50
  if total > 0 {
    percentile = 100 - int(float64(better)/float64(total)*100)
  }

  return &RankInfo{
    Points:     aggregate.Points,
    Level:      aggregate.Level,
    Percentile: percentile,
    Rank:       int(better) + 1,
    TotalUsers: int(total),
  }, nil
}
