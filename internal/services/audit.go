// Package services contains business logic layers.
// Services are called by handlers and coordinate the document store,
// the REST backend and the audit trail.
package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
)

// AuditService records operator actions (validate, assign, delete,
// broadcast) for accountability.
type AuditService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewAuditService creates a new audit service
func NewAuditService(db *pgxpool.Pool, logger *zap.SugaredLogger) *AuditService {
	return &AuditService{db: db, logger: logger}
}

// Record inserts one audit entry.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query := `
		INSERT INTO audit_log (id, operator_id, role, action, category, report_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		entry.ID,
		entry.OperatorID,
		entry.Role,
		entry.Action,
		entry.Category,
		entry.ReportID,
		entry.Description,
	)

	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	s.logger.Infow("Operator action recorded",
		"operator", entry.OperatorID,
		"action", entry.Action,
		"report", entry.ReportID,
	)

	return nil
}

// FetchRecent returns recent audit entries across all operators.
func (s *AuditService) FetchRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, operator_id, role, action, category, report_id, description, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.Role, &e.Action,
			&e.Category, &e.ReportID, &e.Description, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// FetchByReport returns the audit history of one report.
func (s *AuditService) FetchByReport(ctx context.Context, category models.Category, reportID string, limit int) ([]models.AuditEntry, error) {
	query := `
		SELECT id, operator_id, role, action, category, report_id, description, created_at
		FROM audit_log
		WHERE category = $1 AND report_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := s.db.Query(ctx, query, category, reportID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.OperatorID, &e.Role, &e.Action,
			&e.Category, &e.ReportID, &e.Description, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}
