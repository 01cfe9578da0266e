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

type ModuleProgressRepo interface {
  GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ModuleProgress, error)
  GetOrCreate(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ModuleProgress, bool, error)
  GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ModuleProgress, error)
  GetByUserStartedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.ModuleProgress, error)
  GetActivityTimes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.ModuleProgress) error
}

type moduleProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewModuleProgressRepo(db *gorm.DB, baseLog *logger.Logger) ModuleProgressRepo {
  repoLog := baseLog.With("repo", "ModuleProgressRepo")
  return &moduleProgressRepo{db: db, log: repoLog}
}

func (r *moduleProgressRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ModuleProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.ModuleProgress
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND module_id = ?", userID, moduleID).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

// GetOrCreate returns the progress row for (user, module), creating it in
// not_started when absent. Race-safe under the unique (user_id, module_id)
// index; the loser of a concurrent create fetches the existing row.
func (r *moduleProgressRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ModuleProgress, bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  existing, err := r.GetByUserAndModule(ctx, transaction, userID, moduleID)
  if err == nil {
    return existing, false, nil
  }
  if !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, false, err
  }

  row := &types.ModuleProgress{
    UserID:   userID,
    ModuleID: moduleID,
    Status:   types.ProgressNotStarted,
  }
  if createErr := transaction.WithContext(ctx).Create(row).Error; createErr != nil {
    existing, fetchErr := r.GetByUserAndModule(ctx, transaction, userID, moduleID)
    if fetchErr != nil {
      return nil, false, createErr
    }
    return existing, false, nil
  }
  return row, true, nil
}

func (r *moduleProgressRepo) GetCompletedByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ModuleProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ModuleProgress
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND status = ?", userID, types.ProgressCompleted).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *moduleProgressRepo) GetByUserStartedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*types.ModuleProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.ModuleProgress
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND started_at >= ?", userID, since).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

// GetActivityTimes returns last_accessed timestamps for the user, newest
// first. Feeds the learning-streak computation.
func (r *moduleProgressRepo) GetActivityTimes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]time.Time, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var times []time.Time
  if err := transaction.WithContext(ctx).
    Model(&types.ModuleProgress{}).
    Where("user_id = ? AND last_accessed IS NOT NULL", userID).
    Order("last_accessed DESC").
    Pluck("last_accessed", &times).Error; err != nil {
    return nil, err
  }
  return times, nil
}

func (r *moduleProgressRepo) Save(ctx context.Context, tx *gorm.DB, row *types.ModuleProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}
