package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/repository/memory"
	"github.com/ignite/admissions-crm/internal/service/user"
)

func newManager(t *testing.T, secret string) *Manager {
	t.Helper()
	users := user.NewService(memory.NewStore().Users(), user.WithHashCost(bcrypt.MinCost))
	return NewManager(config.AuthConfig{SessionSecret: secret, CookieMaxAge: 86400}, users, NewMemoryStore())
}

func post(t *testing.T, h http.HandlerFunc, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "crm_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func register(t *testing.T, m *Manager, username string, role domain.Role, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return post(t, m.HandleRegister, user.RegisterInput{
		Username: username, Password: "secreto1", Name: username, Email: username + "@example.edu", Role: string(role),
	}, cookies...)
}

func login(t *testing.T, m *Manager, username, password string) *httptest.ResponseRecorder {
	return post(t, m.HandleLogin, credentials{Username: username, Password: password})
}

func TestRegisterBootstrapThenDirectorOnly(t *testing.T) {
	m := newManager(t, "")

	rec := register(t, m, "dora", domain.RoleDirector)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = register(t, m, "ana", domain.RoleAdvisor)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	director := sessionCookie(t, login(t, m, "dora", "secreto1"))
	rec = register(t, m, "ana", domain.RoleAdvisor, director)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	advisor := sessionCookie(t, login(t, m, "ana", "secreto1"))
	rec = register(t, m, "beto", domain.RoleAdvisor, advisor)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = register(t, m, "ana", domain.RoleAdvisor, director)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	m := newManager(t, "")
	rec := post(t, m.HandleRegister, user.RegisterInput{Username: "x", Password: "123", Role: "admin"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error   string `json:"error"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation failed", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestLoginSetsSessionCookie(t *testing.T) {
	m := newManager(t, "s3cret")
	require.Equal(t, http.StatusCreated, register(t, m, "dora", domain.RoleDirector).Code)

	rec := login(t, m, "dora", "wrong-password")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")

	rec = login(t, m, "dora", "secreto1")
	require.Equal(t, http.StatusOK, rec.Code)
	c := sessionCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 86400, c.MaxAge)
	assert.Contains(t, c.Value, ".")

	req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	req.AddCookie(c)
	rec = httptest.NewRecorder()
	m.HandleUser(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"dora"`)
	assert.NotContains(t, rec.Body.String(), "secreto1")
}

func TestTamperedCookieRejected(t *testing.T) {
	m := newManager(t, "s3cret")
	require.Equal(t, http.StatusCreated, register(t, m, "dora", domain.RoleDirector).Code)
	c := sessionCookie(t, login(t, m, "dora", "secreto1"))

	id, _, _ := bytes.Cut([]byte(c.Value), []byte("."))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "crm_session", Value: string(id) + ".forged"})
	assert.Nil(t, m.GetSession(req))
}

func TestRequireAuthAndRole(t *testing.T) {
	m := newManager(t, "")
	require.Equal(t, http.StatusCreated, register(t, m, "dora", domain.RoleDirector).Code)
	director := sessionCookie(t, login(t, m, "dora", "secreto1"))
	require.Equal(t, http.StatusCreated, register(t, m, "ana", domain.RoleAdvisor, director).Code)
	advisor := sessionCookie(t, login(t, m, "ana", "secreto1"))

	var seen string
	h := m.RequireAuth(RequireRole(domain.RoleDirector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, _ := PrincipalFrom(r.Context())
		seen = string(p.Role)
		w.WriteHeader(http.StatusNoContent)
	})))

	serve := func(c *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/metrics/director", nil)
		if c != nil {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, serve(advisor).Code)
	assert.Equal(t, http.StatusNoContent, serve(director).Code)
	assert.Equal(t, "director", seen)
}

func TestLogoutEndsSession(t *testing.T) {
	m := newManager(t, "")
	require.Equal(t, http.StatusCreated, register(t, m, "dora", domain.RoleDirector).Code)
	c := sessionCookie(t, login(t, m, "dora", "secreto1"))

	rec := post(t, m.HandleLogout, nil, c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, -1, sessionCookie(t, rec).MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	assert.Nil(t, m.GetSession(req))
}

func TestInactiveUserCannotLogin(t *testing.T) {
	store := memory.NewStore()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto1"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(context.Background(), &domain.User{
		ID: "u1", Username: "old", PasswordHash: string(hash), Role: domain.RoleAdvisor, Active: false,
	}))
	m := NewManager(config.AuthConfig{}, user.NewService(store.Users()), NewMemoryStore())

	rec := login(t, m, "old", "secreto1")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, &Session{ID: "a", UserID: "u1", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, s.Save(ctx, &Session{ID: "b", UserID: "u2", ExpiresAt: now.Add(-time.Second)}))

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Hour)
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	s := NewRedisStore(client)
	now := time.Now()
	sess := &Session{ID: "abc", UserID: "u1", Role: domain.RoleManager, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	require.NoError(t, s.Save(ctx, sess))

	assert.True(t, mr.Exists("crm:session:abc"))
	ttl := mr.TTL("crm:session:abc")
	assert.InDelta(t, (24 * time.Hour).Seconds(), ttl.Seconds(), 5)

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, got.Role)

	mr.FastForward(25 * time.Hour)
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, s.Save(ctx, &Session{ID: "def", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, s.Delete(ctx, "def"))
	_, err = s.Get(ctx, "def")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Error(t, s.Save(ctx, &Session{ID: "old", ExpiresAt: time.Now().Add(-time.Minute)}))
}
