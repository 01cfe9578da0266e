package repos

import (
  "context"
  "errors"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/types"
)

type JourneyRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Journey, error)
  GetByUserAndOpportunity(ctx context.Context, tx *gorm.DB, userID, opportunityID uuid.UUID) (*types.Journey, error)
  GetOrCreate(ctx context.Context, tx *gorm.DB, userID, opportunityID uuid.UUID) (*types.Journey, bool, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Journey, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.Journey) error
}

type journeyRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewJourneyRepo(db *gorm.DB, baseLog *logger.Logger) JourneyRepo {
  repoLog := baseLog.With("repo", "JourneyRepo")
  return &journeyRepo{db: db, log: repoLog}
}

func (r *journeyRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Journey, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Journey
  if err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error; err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *journeyRepo) GetByUserAndOpportunity(ctx context.Context, tx *gorm.DB, userID, opportunityID uuid.UUID) (*types.Journey, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Journey
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND opportunity_id = ?", userID, opportunityID).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

// GetOrCreate returns the journey for (user, opportunity), creating it with
// status not_started when absent. The second return reports whether a new
// row was created. Race-safe under the unique (user_id, opportunity_id)
// index: a concurrent loser falls back to fetching the winner's row.
func (r *journeyRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID, opportunityID uuid.UUID) (*types.Journey, bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  existing, err := r.GetByUserAndOpportunity(ctx, transaction, userID, opportunityID)
  if err == nil {
    return existing, false, nil
  }
  if !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, false, err
  }

  row := &types.Journey{
    UserID:        userID,
    OpportunityID: opportunityID,
    Status:        types.JourneyNotStarted,
  }
  if createErr := transaction.WithContext(ctx).Create(row).Error; createErr != nil {
    existing, fetchErr := r.GetByUserAndOpportunity(ctx, transaction, userID, opportunityID)
    if fetchErr != nil {
      return nil, false, createErr
    }
    return existing, false, nil
  }
  return row, true, nil
}

func (r *journeyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Journey, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Journey
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *journeyRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Journey) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}
