// Package session holds the authenticated principal for the console
// process. State is created on login, hydrated from persisted storage
// at startup, and destroyed at logout. Every component that needs the
// principal receives the Store explicitly; nothing reads the
// underlying storage ad hoc.
package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/restapi"
)

// ErrForbiddenRole rejects logins from roles outside the console set.
var ErrForbiddenRole = errors.New("role is not permitted to use the console")

const (
	keyAccessToken    = "session:access_token"
	keyRefreshToken   = "session:refresh_token"
	keyRole           = "session:account_type"
	keyUserID         = "session:user_id"
	keyEmailVerified  = "session:email_verified"
	keyDepartment     = "session:department"
	keyStation        = "session:station"
	keyStationAddress = "session:station_address"
	keyCoordinates    = "session:coordinates"
)

var allKeys = []string{
	keyAccessToken, keyRefreshToken, keyRole, keyUserID,
	keyEmailVerified, keyDepartment, keyStation, keyStationAddress,
	keyCoordinates,
}

// Store is the process-wide session. It delegates credential checks to
// the REST backend and persists the result.
type Store struct {
	kv     KV
	api    *restapi.Client
	logger *zap.SugaredLogger
}

// NewStore creates a session store over persisted storage and the
// backend client.
func NewStore(kv KV, api *restapi.Client, logger *zap.SugaredLogger) *Store {
	return &Store{kv: kv, api: api, logger: logger}
}

// Login authenticates against the backend. Roles outside the console
// set are rejected with ErrForbiddenRole even when the credentials are
// valid. On success the token, role and verification flag are
// persisted and the bearer credential is attached to the backend
// client for every subsequent request.
func (s *Store) Login(ctx context.Context, identifier, secret string) (*models.Principal, string, error) {
	tok, err := s.api.IssueToken(ctx, identifier, secret)
	if err != nil {
		return nil, "", err
	}

	if !roleAllowed(tok.AccountType) {
		return nil, "", ErrForbiddenRole
	}

	pairs := map[string]string{
		keyAccessToken:    tok.Access,
		keyRefreshToken:   tok.Refresh,
		keyRole:           string(tok.AccountType),
		keyUserID:         tok.UserID,
		keyEmailVerified:  fmt.Sprintf("%t", tok.IsEmailVerified),
		keyDepartment:     tok.Department,
		keyStation:        tok.Station,
		keyStationAddress: tok.StationAddress,
		keyCoordinates:    tok.Coordinates,
	}
	for k, v := range pairs {
		if err := s.kv.Set(ctx, k, v); err != nil {
			return nil, "", fmt.Errorf("persist session: %w", err)
		}
	}

	s.api.SetToken(tok.Access)

	principal := &models.Principal{
		ID:             tok.UserID,
		Role:           tok.AccountType,
		Department:     tok.Department,
		Station:        tok.Station,
		StationAddress: tok.StationAddress,
		EmailVerified:  tok.IsEmailVerified,
	}

	s.logger.Infow("Operator logged in",
		"user_id", principal.ID,
		"role", principal.Role,
	)
	return principal, tok.Access, nil
}

// Logout clears persisted session state and drops the bearer
// credential. Safe to call repeatedly.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx, allKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.api.ClearToken()
	return nil
}

// Current returns the persisted principal, or nil when no session
// exists. Called once at startup; also re-attaches the stored bearer
// token to the backend client.
func (s *Store) Current(ctx context.Context) (*models.Principal, error) {
	token, err := s.kv.Get(ctx, keyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	fields := make(map[string]string, 6)
	for _, key := range []string{
		keyRole, keyUserID, keyEmailVerified,
		keyDepartment, keyStation, keyStationAddress,
	} {
		v, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read session: %w", err)
		}
		fields[key] = v
	}

	s.api.SetToken(token)

	return &models.Principal{
		ID:             fields[keyUserID],
		Role:           models.Role(fields[keyRole]),
		Department:     fields[keyDepartment],
		Station:        fields[keyStation],
		StationAddress: fields[keyStationAddress],
		EmailVerified:  fields[keyEmailVerified] == "true",
	}, nil
}

// Token returns the persisted bearer credential, "" when logged out.
func (s *Store) Token(ctx context.Context) (string, error) {
	return s.kv.Get(ctx, keyAccessToken)
}

func roleAllowed(r models.Role) bool {
	for _, allowed := range models.ConsoleRoles {
		if r == allowed {
			return true
		}
	}
	return false
}
