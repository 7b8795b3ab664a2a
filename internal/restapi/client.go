// Package restapi is the client for the external REST backend that
// owns authentication and account records. The console observes and
// requests; the backend stays canonical.
package restapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
)

// Client wraps the backend's JSON endpoints. A bearer token set via
// SetToken is attached to every subsequent request until cleared.
type Client struct {
	http   *resty.Client
	logger *zap.SugaredLogger
}

// NewClient builds a backend client rooted at baseURL.
func NewClient(baseURL string, logger *zap.SugaredLogger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: http, logger: logger}
}

// SetToken attaches a bearer credential to all outbound requests.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

// ClearToken drops the bearer credential after logout.
func (c *Client) ClearToken() {
	c.http.SetAuthToken("")
}

// TokenResponse is the payload of a successful token issuance.
type TokenResponse struct {
	Access          string      `json:"access"`
	Refresh         string      `json:"refresh"`
	AccountType     models.Role `json:"account_type"`
	UserID          string      `json:"user_id"`
	Department      string      `json:"department"`
	Station         string      `json:"station"`
	StationAddress  string      `json:"station_address"`
	Coordinates     string      `json:"coordinates"`
	IsEmailVerified bool        `json:"is_email_verified"`
}

type errorDetail struct {
	Detail string `json:"detail"`
}

// IssueToken exchanges credentials for a token pair.
func (c *Client) IssueToken(ctx context.Context, username, password string) (*TokenResponse, error) {
	var out TokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		Post("/api/token/")
	if err != nil {
		return nil, &NetworkError{Op: "issue token", Err: err}
	}
	if resp.StatusCode() == 401 {
		return nil, ErrInvalidCredentials
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// Profile fetches the authenticated account's record.
func (c *Client) Profile(ctx context.Context) (*models.Account, error) {
	var out models.Account
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/user/profile/")
	if err != nil {
		return nil, &NetworkError{Op: "fetch profile", Err: err}
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return &out, nil
}

// Departments lists the known departments.
func (c *Client) Departments(ctx context.Context) ([]models.Department, error) {
	var out []models.Department
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/departments/")
	if err != nil {
		return nil, &NetworkError{Op: "list departments", Err: err}
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// Users lists every account (superadmin view).
func (c *Client) Users(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/users/")
	if err != nil {
		return nil, &NetworkError{Op: "list users", Err: err}
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// WorkerAccounts lists the workers supervised by the current
// department admin.
func (c *Client) WorkerAccounts(ctx context.Context) ([]models.Account, error) {
	var out []models.Account
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/worker/accounts/")
	if err != nil {
		return nil, &NetworkError{Op: "list workers", Err: err}
	}
	if resp.IsError() {
		return nil, decodeError(resp)
	}
	return out, nil
}

// Registration is the request body for department-admin and worker
// registration.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	ContactNumber   string `json:"contact_number"`
	Department      string `json:"department"`
	Station         string `json:"station"`
	StationAddress  string `json:"station_address"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// RegisterDepartmentAdmin creates a department-admin account.
func (c *Client) RegisterDepartmentAdmin(ctx context.Context, reg Registration) error {
	return c.register(ctx, "/api/department_admin/registration/", reg)
}

// RegisterWorker creates a worker account.
func (c *Client) RegisterWorker(ctx context.Context, reg Registration) error {
	return c.register(ctx, "/api/worker/registration/", reg)
}

func (c *Client) register(ctx context.Context, path string, reg Registration) error {
	resp, err := c.http.R().SetContext(ctx).SetBody(reg).Post(path)
	if err != nil {
		return &NetworkError{Op: "registration", Err: err}
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// VerifyOTP confirms the one-time code sent to a new account's email.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "otp": code}).
		Post("/api/otp/verify/")
	if err != nil {
		return &NetworkError{Op: "verify otp", Err: err}
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// ResendOTP requests a fresh one-time code.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email}).
		Post("/api/resend-otp-department/")
	if err != nil {
		return &NetworkError{Op: "resend otp", Err: err}
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// VerifyUser approves a pending account.
func (c *Client) VerifyUser(ctx context.Context, userID string) error {
	resp, err := c.http.R().SetContext(ctx).Put(fmt.Sprintf("/api/verify-user/%s/", userID))
	if err != nil {
		return &NetworkError{Op: "verify user", Err: err}
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, userID string) error {
	resp, err := c.http.R().SetContext(ctx).Delete(fmt.Sprintf("/api/delete-account/%s/", userID))
	if err != nil {
		return &NetworkError{Op: "delete account", Err: err}
	}
	if resp.IsError() {
		return decodeError(resp)
	}
	return nil
}

// decodeError maps a non-2xx response onto the error taxonomy,
// surfacing the backend's detail text when present.
func decodeError(resp *resty.Response) error {
	switch resp.StatusCode() {
	case 401:
		return ErrInvalidCredentials
	case 403:
		return ErrForbidden
	case 404:
		return ErrNotFound
	}
	var detail errorDetail
	if err := json.Unmarshal(resp.Body(), &detail); err == nil && detail.Detail != "" {
		return &ValidationError{Detail: detail.Detail}
	}
	return &ValidationError{Detail: fmt.Sprintf("backend returned %d", resp.StatusCode())}
}
