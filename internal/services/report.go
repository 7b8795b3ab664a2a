package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/models"
)

// zeroTime means "no lower bound" when listing a partition.
var zeroTime time.Time

// ReportService handles operator actions on reports. Every mutation is
// recorded in the audit trail; the document store remains canonical.
type ReportService struct {
	store  *docstore.Store
	audit  *AuditService
	logger *zap.SugaredLogger
}

// NewReportService creates a new report service
func NewReportService(store *docstore.Store, audit *AuditService, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{store: store, audit: audit, logger: logger}
}

// ReportFilter narrows the report listing.
type ReportFilter struct {
	Category  models.Category
	Status    models.ReportStatus
	Validated *bool
}

// List returns reports across all partitions (or one, when the filter
// names a category), narrowed by status and validation state.
func (s *ReportService) List(ctx context.Context, filter ReportFilter) ([]models.Report, error) {
	categories := models.Categories
	if filter.Category != "" {
		if !filter.Category.Valid() {
			return nil, fmt.Errorf("unknown category %q", filter.Category)
		}
		categories = []models.Category{filter.Category}
	}

	var out []models.Report
	for _, category := range categories {
		reports, err := s.store.ListReports(ctx, category, zeroTime)
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			if filter.Status != "" && r.Status != filter.Status {
				continue
			}
			if filter.Validated != nil && r.IsValidated != *filter.Validated {
				continue
			}
			out = append(out, r)
		}
	}
	return out, nil
}

// Get fetches one report with its feedback sub-partitions attached.
func (s *ReportService) Get(ctx context.Context, category models.Category, id string) (*models.Report, []models.Feedback, []models.Feedback, error) {
	r, err := s.store.GetReport(ctx, category, id)
	if err != nil {
		return nil, nil, nil, err
	}
	userFB, err := s.store.UserFeedback(ctx, category, id)
	if err != nil {
		return nil, nil, nil, err
	}
	workerFB, err := s.store.WorkerFeedback(ctx, category, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return r, userFB, workerFB, nil
}

// Validate marks a report validated (once) and records the action.
func (s *ReportService) Validate(ctx context.Context, principal *models.Principal, category models.Category, id string) (*models.Report, error) {
	r, err := s.store.Validate(ctx, category, id)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, principal, "validate", category, id, "report validated")
	return r, nil
}

// UpdateStatus moves a report through its status lifecycle.
func (s *ReportService) UpdateStatus(ctx context.Context, principal *models.Principal, category models.Category, id string, status models.ReportStatus) (*models.Report, error) {
	r, err := s.store.UpdateStatus(ctx, category, id, status)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, principal, "status", category, id,
		fmt.Sprintf("status set to %s", status))
	return r, nil
}

// Assign routes a report to an account.
func (s *ReportService) Assign(ctx context.Context, principal *models.Principal, category models.Category, id, accountID string) (*models.Report, error) {
	r, err := s.store.Assign(ctx, category, id, accountID)
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, principal, "assign", category, id,
		fmt.Sprintf("assigned to %s", accountID))
	return r, nil
}

// Delete soft-deletes a report into the deletedReports archive.
func (s *ReportService) Delete(ctx context.Context, principal *models.Principal, category models.Category, id string) error {
	if err := s.store.SoftDelete(ctx, category, id); err != nil {
		return err
	}

	s.recordAudit(ctx, principal, "delete", category, id, "report moved to deletedReports")
	return nil
}

// recordAudit never fails the operator action; a broken audit trail is
// logged loudly instead.
func (s *ReportService) recordAudit(ctx context.Context, principal *models.Principal, action string, category models.Category, id, description string) {
	entry := &models.AuditEntry{
		Action:      action,
		Category:    category,
		ReportID:    id,
		Description: description,
	}
	if principal != nil {
		entry.OperatorID = principal.ID
		entry.Role = principal.Role
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Errorw("Audit record failed",
			"action", action, "category", category, "report", id, "error", err)
	}
}
