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

type CredibilityRepo interface {
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CredibilityPoints, error)
  GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CredibilityPoints, error)
  Save(ctx context.Context, tx *gorm.DB, row *types.CredibilityPoints) error
  CountWithMorePoints(ctx context.Context, tx *gorm.DB, points int) (int64, error)
  CountAll(ctx context.Context, tx *gorm.DB) (int64, error)
}

type credibilityRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCredibilityRepo(db *gorm.DB, baseLog *logger.Logger) CredibilityRepo {
  repoLog := baseLog.With("repo", "CredibilityRepo")
  return &credibilityRepo{db: db, log: repoLog}
}

func (r *credibilityRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CredibilityPoints, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.CredibilityPoints
  err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *credibilityRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.CredibilityPoints, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  existing, err := r.GetByUserID(ctx, transaction, userID)
  if err == nil {
    return existing, nil
  }
  if !errors.Is(err, pkgerrors.ErrNotFound) {
    return nil, err
  }

  row := &types.CredibilityPoints{UserID: userID, Points: 0, Level: 1}
  if createErr := transaction.WithContext(ctx).Create(row).Error; createErr != nil {
    existing, fetchErr := r.GetByUserID(ctx, transaction, userID)
    if fetchErr != nil {
      return nil, createErr
    }
    return existing, nil
  }
  return row, nil
}

func (r *credibilityRepo) Save(ctx context.Context, tx *gorm.DB, row *types.CredibilityPoints) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}

func (r *credibilityRepo) CountWithMorePoints(ctx context.Context, tx *gorm.DB, points int) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.CredibilityPoints{}).
    Where("points > ?", points).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *credibilityRepo) CountAll(ctx context.Context, tx *gorm.DB) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.CredibilityPoints{}).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
