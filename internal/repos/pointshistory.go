package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// PointsHistoryRepo is append-only: ledger entries are never updated or
// deleted.
type PointsHistoryRepo interface {
  Create(ctx context.Context, tx *gorm.DB, row *types.PointsHistory) error
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.PointsHistory, error)
}

type pointsHistoryRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPointsHistoryRepo(db *gorm.DB, baseLog *logger.Logger) PointsHistoryRepo {
  repoLog := baseLog.With("repo", "PointsHistoryRepo")
  return &pointsHistoryRepo{db: db, log: repoLog}
}

func (r *pointsHistoryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.PointsHistory) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Create(row).Error
}

func (r *pointsHistoryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.PointsHistory, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.PointsHistory
  if userID == uuid.Nil {
    return results, nil
  }

  query := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC")
  if limit > 0 {
    query = query.Limit(limit)
  }
  if err := query.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
