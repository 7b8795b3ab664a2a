package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/docstore"
	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/restapi"
)

// AccountService manages worker and department-admin accounts through
// the REST backend, plus the verifyAccount partition of the document
// store.
type AccountService struct {
	api    *restapi.Client
	store  *docstore.Store
	audit  *AuditService
	logger *zap.SugaredLogger
}

// NewAccountService creates a new account service
func NewAccountService(api *restapi.Client, store *docstore.Store, audit *AuditService, logger *zap.SugaredLogger) *AccountService {
	return &AccountService{api: api, store: store, audit: audit, logger: logger}
}

// Users lists all accounts (superadmin screen).
func (s *AccountService) Users(ctx context.Context) ([]models.Account, error) {
	return s.api.Users(ctx)
}

// Workers lists the current department admin's worker accounts.
func (s *AccountService) Workers(ctx context.Context) ([]models.Account, error) {
	return s.api.WorkerAccounts(ctx)
}

// Departments lists the known departments.
func (s *AccountService) Departments(ctx context.Context) ([]models.Department, error) {
	return s.api.Departments(ctx)
}

// RegisterDepartmentAdmin creates a department-admin account.
func (s *AccountService) RegisterDepartmentAdmin(ctx context.Context, reg restapi.Registration) error {
	return s.api.RegisterDepartmentAdmin(ctx, reg)
}

// RegisterWorker creates a worker account.
func (s *AccountService) RegisterWorker(ctx context.Context, reg restapi.Registration) error {
	return s.api.RegisterWorker(ctx, reg)
}

// VerifyOTP confirms a registration one-time code.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) error {
	return s.api.VerifyOTP(ctx, email, code)
}

// ResendOTP requests a fresh one-time code.
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	return s.api.ResendOTP(ctx, email)
}

// VerificationRequests lists pending account verifications.
func (s *AccountService) VerificationRequests(ctx context.Context) ([]models.VerificationRequest, error) {
	return s.store.VerificationRequests(ctx)
}

// ApproveVerification verifies an account with the backend and clears
// its verifyAccount entry.
func (s *AccountService) ApproveVerification(ctx context.Context, principal *models.Principal, userID string) error {
	if err := s.api.VerifyUser(ctx, userID); err != nil {
		return err
	}
	if err := s.store.ResolveVerification(ctx, userID); err != nil && err != docstore.ErrNotFound {
		return err
	}

	s.record(ctx, principal, "verify_account", "account verification approved for "+userID)
	return nil
}

// DenyVerification clears the verifyAccount entry without verifying.
func (s *AccountService) DenyVerification(ctx context.Context, principal *models.Principal, userID string) error {
	if err := s.store.ResolveVerification(ctx, userID); err != nil {
		return err
	}

	s.record(ctx, principal, "deny_verification", "account verification denied for "+userID)
	return nil
}

// DeleteAccount removes an account through the backend.
func (s *AccountService) DeleteAccount(ctx context.Context, principal *models.Principal, userID string) error {
	if err := s.api.DeleteAccount(ctx, userID); err != nil {
		return err
	}

	s.record(ctx, principal, "delete_account", "account deleted: "+userID)
	return nil
}

func (s *AccountService) record(ctx context.Context, principal *models.Principal, action, description string) {
	entry := &models.AuditEntry{Action: action, Description: description}
	if principal != nil {
		entry.OperatorID = principal.ID
		entry.Role = principal.Role
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Errorw("Audit record failed", "action", action, "error", err)
	}
}
