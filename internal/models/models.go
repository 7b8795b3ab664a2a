// Package models defines the data structures shared across the console.
// Reports and accounts are owned by the external backend and document
// store — the console only observes them and requests mutations.
package models

import (
	"time"
)

// Category is one of the fixed report partitions in the document store.
type Category string

const (
	CategoryFires        Category = "fires"
	CategoryStreetLights Category = "street lights"
	CategoryPotholes     Category = "potholes"
	CategoryFloods       Category = "floods"
	CategoryOthers       Category = "others"
	CategoryRoadAccident Category = "road accident"
)

// Categories lists every report partition, in the order the charts use.
var Categories = []Category{
	CategoryFires,
	CategoryStreetLights,
	CategoryPotholes,
	CategoryFloods,
	CategoryOthers,
	CategoryRoadAccident,
}

// Valid reports whether c is one of the fixed partitions.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ReportStatus values observed in the store. Free-form strings in
// practice; these are the ones the console renders specially.
type ReportStatus string

const (
	StatusPending   ReportStatus = "pending"
	StatusReviewing ReportStatus = "reviewing"
	StatusOngoing   ReportStatus = "ongoing"
	StatusDone      ReportStatus = "done"
)

// Report is a citizen-submitted incident record. ID is unique only
// within its category partition, so merged collections key on both.
type Report struct {
	ID           string       `json:"id"`
	Category     Category     `json:"category"`
	Description  string       `json:"description,omitempty"`
	ReportDate   time.Time    `json:"report_date"`
	UpdateDate   time.Time    `json:"update_date"`
	Status       ReportStatus `json:"status"`
	IsValidated  bool         `json:"is_validated"`
	AssignedToID string       `json:"assigned_to_id,omitempty"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	Upvote       int          `json:"upvote"`
	Downvote     int          `json:"downvote"`
	ImageURL     string       `json:"image_url,omitempty"`
}

// ReportKey identifies a report across merged partitions.
type ReportKey struct {
	Category Category
	ID       string
}

// Key returns the (category, id) merge key for the report.
func (r Report) Key() ReportKey {
	return ReportKey{Category: r.Category, ID: r.ID}
}

// Feedback is an entry from a report's userFeedback or workerFeedback
// sub-partition, fetched on demand.
type Feedback struct {
	Description string    `json:"description"`
	Proof       string    `json:"proof,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Role of an authenticated account.
type Role string

const (
	RoleSuperAdmin      Role = "superadmin"
	RoleDepartmentAdmin Role = "department_admin"
	RoleDepartmentHead  Role = "department_head"
	RoleWorker          Role = "worker"
	RoleCitizen         Role = "citizen"
)

// ConsoleRoles are the roles permitted to log in to the console.
var ConsoleRoles = []Role{RoleSuperAdmin, RoleDepartmentAdmin, RoleDepartmentHead}

// Account mirrors the backend's user records (department admins,
// workers, citizens).
type Account struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ContactNumber  string    `json:"contact_number"`
	Role           Role      `json:"role"`
	DepartmentID   string    `json:"department_id,omitempty"`
	Station        string    `json:"station,omitempty"`
	StationAddress string    `json:"station_address,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	AccountStatus  string    `json:"account_status,omitempty"`
	DateJoined     time.Time `json:"date_joined"`
	SupervisorID   string    `json:"supervisor,omitempty"`
}

// Department as returned by the backend lookup endpoint.
type Department struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Principal is the authenticated account driving the current session.
type Principal struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	Department     string `json:"department,omitempty"`
	Station        string `json:"station,omitempty"`
	StationAddress string `json:"station_address,omitempty"`
	EmailVerified  bool   `json:"email_verified"`
}

// Notification is a broadcast message in the globalNotification
// partition.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// VerificationRequest is a pending account-verification entry from the
// verifyAccount partition.
type VerificationRequest struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Proof       string    `json:"proof,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// AuditEntry records an operator action for accountability.
type AuditEntry struct {
	ID          string    `json:"id"`
	OperatorID  string    `json:"operator_id"`
	Role        Role      `json:"role"`
	Action      string    `json:"action"`
	Category    Category  `json:"category,omitempty"`
	ReportID    string    `json:"report_id,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryCount for pie/bar charts.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// DateCount is one point of the date-trend line chart.
type DateCount struct {
	Date  string `json:"date"` // YYYY-MM-DD, UTC
	Count int    `json:"count"`
}

// DashboardSummary is the headline card data on the dashboard screen.
type DashboardSummary struct {
	TotalReports   int  `json:"total_reports"`
	NotDoneReports int  `json:"not_done_reports"`
	WeeklyReports  int  `json:"weekly_reports"`
	Unclassified   int  `json:"unclassified"`
	Stale          bool `json:"stale"`
}

// HealthStatus is the health check response.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}
