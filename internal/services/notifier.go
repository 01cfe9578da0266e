package services

import (
  "context"

  "github.com/google/uuid"

  "github.com/opportuci/opportuci-backend/internal/logger"
  "github.com/opportuci/opportuci-backend/internal/repos"
  "github.com/opportuci/opportuci-backend/internal/types"
)

// Notifier is the fire-and-forget notification collaborator. Failures are
// logged and never propagated: a lost notification must not roll back the
// operation that triggered it.
type Notifier interface {
  Notify(ctx context.Context, userID uuid.UUID, title, message, category, relatedType string, relatedID *uuid.UUID)
}

type dbNotifier struct {
  log              *logger.Logger
  notificationRepo repos.NotificationRepo
}

func NewNotifier(baseLog *logger.Logger, notificationRepo repos.NotificationRepo) Notifier {
  return &dbNotifier{
    log:              baseLog.With("service", "Notifier"),
    notificationRepo: notificationRepo,
  }
}

func (n *dbNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message, category, relatedType string, relatedID *uuid.UUID) {
  if n == nil || n.notificationRepo == nil || userID == uuid.Nil {
    return
  }
  row := &types.Notification{
    UserID:      userID,
    Title:       title,
    Message:     message,
    Category:    category,
    RelatedType: relatedType,
    RelatedID:   relatedID,
  }
  if err := n.notificationRepo.Create(ctx, nil, row); err != nil {
    n.log.Warn("failed to persist notification", "error", err, "user_id", userID, "title", title)
  }
}
