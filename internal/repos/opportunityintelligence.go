package repos

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/types"
)

type OpportunityIntelligenceRepo interface {
  GetByOpportunityID(ctx context.Context, tx *gorm.DB, opportunityID uuid.UUID) (*types.OpportunityIntelligence, error)
  GetOrCreate(ctx context.Context, tx *gorm.DB, opportunityID uuid.UUID) (*types.OpportunityIntelligence, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.OpportunityIntelligence) error
}

type opportunityIntelligenceRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewOpportunityIntelligenceRepo(db *gorm.DB, baseLog *logger.Logger) OpportunityIntelligenceRepo {
  repoLog := baseLog.With("repo", "OpportunityIntelligenceRepo")
  return &opportunityIntelligenceRepo{db: db, log: repoLog}
}

func (r *opportunityIntelligenceRepo) GetByOpportunityID(ctx context.Context, tx *gorm.DB, opportunityID uuid.UUID) (*types.OpportunityIntelligence, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.OpportunityIntelligence
  err := transaction.WithContext(ctx).
    Where("opportunity_id = ?", opportunityID).
    First(&result).Error
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *opportunityIntelligenceRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, opportunityID uuid.UUID) (*types.OpportunityIntelligence, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  // Race-safe under the unique opportunity_id index: the loser of a
  // concurrent create falls back to fetching the winner's row.
  row := &types.OpportunityIntelligence{OpportunityID: opportunityID}
  if err := transaction.WithContext(ctx).
    Where("opportunity_id = ?", opportunityID).
    FirstOrCreate(row).Error; err != nil {
    existing, fetchErr := r.GetByOpportunityID(ctx, transaction, opportunityID)
    if fetchErr != nil {
      return nil, err
    }
    return existing, nil
  }
  return row, nil
}

func (r *opportunityIntelligenceRepo) Save(ctx context.Context, tx *gorm.DB, row *types.OpportunityIntelligence) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}
