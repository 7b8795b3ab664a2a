package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/middleware"
	"github.com/crisp-platform/console-server/internal/restapi"
	"github.com/crisp-platform/console-server/internal/services"
)

// AccountHandler handles account management endpoints.
type AccountHandler struct {
	accountSvc *services.AccountService
	logger     *zap.SugaredLogger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(as *services.AccountService, logger *zap.SugaredLogger) *AccountHandler {
	return &AccountHandler{accountSvc: as, logger: logger}
}

// Users handles GET /api/v1/accounts/users
func (h *AccountHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.accountSvc.Users(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// Workers handles GET /api/v1/accounts/workers
func (h *AccountHandler) Workers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.accountSvc.Workers(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, workers)
}

// Departments handles GET /api/v1/accounts/departments
func (h *AccountHandler) Departments(w http.ResponseWriter, r *http.Request) {
	departments, err := h.accountSvc.Departments(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, departments)
}

func decodeRegistration(r *http.Request) (restapi.Registration, bool) {
	var reg restapi.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		return reg, false
	}
	if reg.Username == "" || reg.Email == "" || reg.Password == "" {
		return reg, false
	}
	if reg.Password != reg.PasswordConfirm {
		return reg, false
	}
	return reg, true
}

// RegisterDepartmentAdmin handles POST /api/v1/accounts/department-admins
func (h *AccountHandler) RegisterDepartmentAdmin(w http.ResponseWriter, r *http.Request) {
	reg, ok := decodeRegistration(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid registration payload")
		return
	}
	if err := h.accountSvc.RegisterDepartmentAdmin(r.Context(), reg); err != nil {
		h.logger.Errorw("Department admin registration failed", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// RegisterWorker handles POST /api/v1/accounts/workers
func (h *AccountHandler) RegisterWorker(w http.ResponseWriter, r *http.Request) {
	reg, ok := decodeRegistration(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid registration payload")
		return
	}
	if err := h.accountSvc.RegisterWorker(r.Context(), reg); err != nil {
		h.logger.Errorw("Worker registration failed", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

type otpRequest struct {
	Email string `json:"email"`
	Code  string `json:"otp"`
}

// VerifyOTP handles POST /api/v1/accounts/otp/verify
func (h *AccountHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Code == "" {
		respondError(w, http.StatusBadRequest, "Email and otp are required")
		return
	}
	if err := h.accountSvc.VerifyOTP(r.Context(), req.Email, req.Code); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

// ResendOTP handles POST /api/v1/accounts/otp/resend
func (h *AccountHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := h.accountSvc.ResendOTP(r.Context(), req.Email); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// VerificationRequests handles GET /api/v1/accounts/verifications
func (h *AccountHandler) VerificationRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.accountSvc.VerificationRequests(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// ApproveVerification handles PUT /api/v1/accounts/verifications/{userID}
func (h *AccountHandler) ApproveVerification(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	principal := middleware.PrincipalFrom(r.Context())

	if err := h.accountSvc.ApproveVerification(r.Context(), principal, userID); err != nil {
		h.logger.Errorw("Account verification failed", "user_id", userID, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// DenyVerification handles DELETE /api/v1/accounts/verifications/{userID}
func (h *AccountHandler) DenyVerification(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	principal := middleware.PrincipalFrom(r.Context())

	if err := h.accountSvc.DenyVerification(r.Context(), principal, userID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "denied"})
}

// Delete handles DELETE /api/v1/accounts/{userID}
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	principal := middleware.PrincipalFrom(r.Context())

	if err := h.accountSvc.DeleteAccount(r.Context(), principal, userID); err != nil {
		h.logger.Errorw("Account deletion failed", "user_id", userID, "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
