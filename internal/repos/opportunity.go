package repos

import (
  "context"
  "errors"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  pkgerrors "github.com/opportuci/opportuci-backend/internal/pkg/errors"
  "github.com/opportuci/opportuci-backend/internal/types"
)

type OpportunityRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Opportunity, error)
  Create(ctx context.Context, tx *gorm.DB, row *types.Opportunity) error
  ListActiveIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
}

type opportunityRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewOpportunityRepo(db *gorm.DB, baseLog *logger.Logger) OpportunityRepo {
  repoLog := baseLog.With("repo", "OpportunityRepo")
  return &opportunityRepo{db: db, log: repoLog}
}

func (r *opportunityRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Opportunity, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Opportunity
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

func (r *opportunityRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Opportunity) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Create(row).Error
}

func (r *opportunityRepo) ListActiveIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if err := transaction.WithContext(ctx).
    Model(&types.Opportunity{}).
    Where("is_active = ?", true).
    Where("deadline IS NULL OR deadline > ?", time.Now().UTC()).
    Pluck("id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}
