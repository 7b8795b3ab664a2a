package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/models"
)

// NotificationService issues broadcast notifications through the
// globalNotification partition.
type NotificationService struct {
	store  *docstore.Store
	audit  *AuditService
	logger *zap.SugaredLogger
}

// NewNotificationService creates a new notification service
func NewNotificationService(store *docstore.Store, audit *AuditService, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{store: store, audit: audit, logger: logger}
}

// Broadcast publishes a notification to every connected client.
func (s *NotificationService) Broadcast(ctx context.Context, principal *models.Principal, title, body string) (*models.Notification, error) {
	n := models.Notification{
		Title: strings.TrimSpace(title),
		Body:  strings.TrimSpace(body),
	}
	if principal != nil {
		n.CreatedBy = principal.ID
	}

	published, err := s.store.PublishNotification(ctx, n)
	if err != nil {
		return nil, err
	}

	entry := &models.AuditEntry{
		Action:      "broadcast",
		Description: "notification published: " + published.Title,
	}
	if principal != nil {
		entry.OperatorID = principal.ID
		entry.Role = principal.Role
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Errorw("Audit record failed", "action", "broadcast", "error", err)
	}

	return published, nil
}

// List returns the broadcast history.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return s.store.ListNotifications(ctx)
}
