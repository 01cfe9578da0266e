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

type LearningModuleRepo interface {
  GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningModule, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningModule, error)
  GetBySkillAndTitle(ctx context.Context, tx *gorm.DB, skillTaught, title string) (*types.LearningModule, error)
  Create(ctx context.Context, tx *gorm.DB, row *types.LearningModule) error
  Save(ctx context.Context, tx *gorm.DB, row *types.LearningModule) error
}

type learningModuleRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLearningModuleRepo(db *gorm.DB, baseLog *logger.Logger) LearningModuleRepo {
  repoLog := baseLog.With("repo", "LearningModuleRepo")
  return &learningModuleRepo{db: db, log: repoLog}
}

func (r *learningModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LearningModule, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.LearningModule
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

func (r *learningModuleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningModule, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.LearningModule
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *learningModuleRepo) GetBySkillAndTitle(ctx context.Context, tx *gorm.DB, skillTaught, title string) (*types.LearningModule, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.LearningModule
  err := transaction.WithContext(ctx).
    Where("skill_taught = ? AND title = ?", skillTaught, title).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, pkgerrors.ErrNotFound
    }
    return nil, err
  }
  return &result, nil
}

func (r *learningModuleRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LearningModule) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Create(row).Error
}

func (r *learningModuleRepo) Save(ctx context.Context, tx *gorm.DB, row *types.LearningModule) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }
  return transaction.WithContext(ctx).Save(row).Error
}
