package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"session-service/internal/audit"
	"session-service/internal/auth/handler"
	"session-service/internal/auth/service"
	revocationdomain "session-service/internal/revocation/domain"
	"session-service/internal/security"
	"session-service/internal/token"
	userdomain "session-service/internal/user/domain"
)

type memStore struct {
	mu      sync.Mutex
	users   map[string]*userdomain.User
	revoked map[string]*revocationdomain.Record
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*userdomain.User),
		revoked: make(map[string]*revocationdomain.Record),
	}
}

func (m *memStore) GetByID(_ context.Context, id int64) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByUsername(_ context.Context, username string) (*userdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) SetTokenInvalidBefore(_ context.Context, id int64, t *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.TokenInvalidBefore = t
			return nil
		}
	}
	return nil
}

func (m *memStore) Revoke(_ context.Context, rec *revocationdomain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.revoked[rec.JTI] = &cp
	return nil
}

func (m *memStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *memStore) ListActive(_ context.Context, userID int64, now time.Time) ([]*revocationdomain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*revocationdomain.Record
	for _, rec := range m.revoked {
		if rec.UserID == userID && rec.ExpiresAt.After(now) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte("s3cret"))
	require.NoError(t, err)
	store.users["alice"] = &userdomain.User{
		ID:             1,
		Username:       "alice",
		Email:          "alice@example.com",
		HashedPassword: hash,
		IsActive:       true,
	}

	provider := token.NewProvider([]byte("test-signing-secret"), 30*time.Minute, 720*time.Hour, store, store)
	svc := service.NewAuthService(store, store, hasher, provider, audit.Nop{}, zap.NewNop())
	h := handler.NewAuthHandler(svc, zap.NewNop())

	r := gin.New()
	r.Use(handler.ClientIP())
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	authed := r.Group("/", handler.RequireAuth(provider, store, zap.NewNop()))
	authed.POST("/logout/all", h.LogoutAll)
	authed.GET("/users/me", h.CurrentUserProfile)
	return r, store
}

func doJSON(r *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != "" {
		buf = bytes.NewBufferString(body)
	} else {
		buf = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"s3cret"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handler.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestLoginEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"s3cret","remember_me":true}`, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
}

func TestLoginInvalidCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"wrong"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid credentials")
}

func TestLoginMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSuspendedAccount(t *testing.T) {
	r, store := newTestRouter(t)

	future := time.Now().UTC().Add(time.Hour)
	store.users["alice"].TokenInvalidBefore = &future

	w := doJSON(r, http.MethodPost, "/login", `{"username":"alice","password":"s3cret"}`, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "suspended")
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.Contains(t, w.Body.String(), "Could not validate credentials")
}

func TestProtectedRouteGarbageToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/users/me", "", "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Could not validate credentials")
}

func TestCurrentUserProfile(t *testing.T) {
	r, _ := newTestRouter(t)
	tok := loginToken(t, r)

	w := doJSON(r, http.MethodGet, "/users/me", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.Equal(t, "alice@example.com", resp["email"])
}

func TestLogoutRevokesAccess(t *testing.T) {
	r, _ := newTestRouter(t)
	tok := loginToken(t, r)

	w := doJSON(r, http.MethodPost, "/logout", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Successfully logged out")

	w = doJSON(r, http.MethodGet, "/users/me", "", tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has been revoked")
}

func TestLogoutTwice(t *testing.T) {
	r, _ := newTestRouter(t)
	tok := loginToken(t, r)

	w := doJSON(r, http.MethodPost, "/logout", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/logout", "", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already revoked")
}

func TestLogoutWithoutToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutAllEndsEverySession(t *testing.T) {
	r, _ := newTestRouter(t)
	tok1 := loginToken(t, r)
	tok2 := loginToken(t, r)

	// Make both tokens read as issued strictly before the watermark; JWT
	// timestamps are second-granular so a same-second watermark is ambiguous.
	time.Sleep(1100 * time.Millisecond)

	w := doJSON(r, http.MethodPost, "/logout/all", "", tok1)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All sessions logged out")

	for _, tok := range []string{tok1, tok2} {
		w = doJSON(r, http.MethodGet, "/users/me", "", tok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Token has been revoked")
	}
}
