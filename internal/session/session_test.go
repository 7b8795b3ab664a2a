package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crisp-platform/console-server/internal/models"
	"github.com/crisp-platform/console-server/internal/restapi"
)

// memKV is an in-memory KV for tests.
type memKV struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemKV() *memKV { return &memKV{m: make(map[string]string)} }

func (kv *memKV) Get(_ context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.m[key], nil
}

func (kv *memKV) Set(_ context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
	return nil
}

func (kv *memKV) Delete(_ context.Context, keys ...string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for _, k := range keys {
		delete(kv.m, k)
	}
	return nil
}

func (kv *memKV) len() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return len(kv.m)
}

// fakeBackend emulates the token endpoint of the REST backend.
func fakeBackend(t *testing.T, role models.Role) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "correct-horse" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access":            "access-token",
			"refresh":           "refresh-token",
			"account_type":      role,
			"user_id":           "user-1",
			"department":        "fire",
			"station":           "Station 4",
			"station_address":   "12 Main St",
			"is_email_verified": true,
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, role models.Role) (*Store, *memKV) {
	t.Helper()
	backend := fakeBackend(t, role)
	api := restapi.NewClient(backend.URL, zap.NewNop().Sugar())
	kv := newMemKV()
	return NewStore(kv, api, zap.NewNop().Sugar()), kv
}

func TestLoginPersistsSession(t *testing.T) {
	store, kv := newTestStore(t, models.RoleSuperAdmin)

	principal, token, err := store.Login(context.Background(), "admin", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "access-token", token)
	assert.Equal(t, "user-1", principal.ID)
	assert.Equal(t, models.RoleSuperAdmin, principal.Role)
	assert.True(t, principal.EmailVerified)

	// Session survives a restart via persisted storage.
	restored, err := store.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, principal.ID, restored.ID)
	assert.Equal(t, principal.Role, restored.Role)
	assert.True(t, kv.len() > 0)
}

func TestLoginRejectsForbiddenRoles(t *testing.T) {
	for _, role := range []models.Role{models.RoleWorker, models.RoleCitizen} {
		store, kv := newTestStore(t, role)

		_, _, err := store.Login(context.Background(), "someone", "correct-horse")
		assert.ErrorIs(t, err, ErrForbiddenRole, "role %s", role)
		assert.Equal(t, 0, kv.len(), "nothing may be persisted for role %s", role)
	}
}

func TestLoginAllowsEveryConsoleRole(t *testing.T) {
	for _, role := range models.ConsoleRoles {
		store, _ := newTestStore(t, role)
		principal, _, err := store.Login(context.Background(), "someone", "correct-horse")
		require.NoError(t, err, "role %s", role)
		assert.Equal(t, role, principal.Role)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	store, kv := newTestStore(t, models.RoleSuperAdmin)

	_, _, err := store.Login(context.Background(), "admin", "wrong")
	assert.ErrorIs(t, err, restapi.ErrInvalidCredentials)
	assert.Equal(t, 0, kv.len())
}

func TestLogoutIsIdempotent(t *testing.T) {
	store, kv := newTestStore(t, models.RoleDepartmentAdmin)

	_, _, err := store.Login(context.Background(), "dept", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, store.Logout(context.Background()))
	assert.Equal(t, 0, kv.len())

	// A second logout with no session is still fine.
	require.NoError(t, store.Logout(context.Background()))

	current, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

// flakyKV fails reads of one key, emulating a partially broken store.
type flakyKV struct {
	*memKV
	failKey string
}

func (kv *flakyKV) Get(ctx context.Context, key string) (string, error) {
	if key == kv.failKey {
		return "", errors.New("storage unavailable")
	}
	return kv.memKV.Get(ctx, key)
}

func TestCurrentFailsOnBrokenStorage(t *testing.T) {
	backend := fakeBackend(t, models.RoleSuperAdmin)
	api := restapi.NewClient(backend.URL, zap.NewNop().Sugar())
	kv := &flakyKV{memKV: newMemKV()}
	store := NewStore(kv, api, zap.NewNop().Sugar())

	_, _, err := store.Login(context.Background(), "admin", "correct-horse")
	require.NoError(t, err)

	// Any unreadable session field is an error, not a half-hydrated
	// principal.
	kv.failKey = keyUserID
	principal, err := store.Current(context.Background())
	require.Error(t, err)
	assert.Nil(t, principal)
}

func TestCurrentWithoutSession(t *testing.T) {
	store, _ := newTestStore(t, models.RoleSuperAdmin)

	principal, err := store.Current(context.Background())
	require.NoError(t, err)
	assert.Nil(t, principal)
}
