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

type JourneyModuleRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.JourneyModule) error
  GetByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) ([]*types.JourneyModule, error)
  GetActiveByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.JourneyModule, error)
  CountByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) (int64, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.JourneyModule) error
}

type journeyModuleRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewJourneyModuleRepo(db *gorm.DB, baseLog *logger.Logger) JourneyModuleRepo {
  repoLog := baseLog.With("repo", "JourneyModuleRepo")
  return &journeyModuleRepo{db: db, log: repoLog}
}

func (r *journeyModuleRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.JourneyModule) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return nil
  }
  return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *journeyModuleRepo) GetByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) ([]*types.JourneyModule, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.JourneyModule
  if journeyID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("journey_id = ?", journeyID).
    Order("module_order ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// GetActiveByUserAndModule finds the assignment binding this module into the
// user's in-progress journey, if any.
func (r *journeyModuleRepo) GetActiveByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.JourneyModule, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.JourneyModule
  err := transaction.WithContext(ctx).
    Joins("JOIN journey ON journey.id = journey_module.journey_id").
    Where("journey.user_id = ? AND journey_module.module_id = ? AND journey.status = ?",
      userID, moduleID, types.JourneyInProgress).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *journeyModuleRepo) CountByJourneyID(ctx context.Context, tx *gorm.DB, journeyID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.JourneyModule{}).
    Where("journey_id = ?", journeyID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *journeyModuleRepo) Save(ctx context.Context, tx *gorm.DB, row *types.JourneyModule) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}
