// Package auth implements username/password login with cookie sessions and
// the middleware that turns a session into an access.Principal.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/admissions-crm/internal/access"
	"github.com/ignite/admissions-crm/internal/config"
	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/httputil"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
	"github.com/ignite/admissions-crm/internal/pkg/validate"
	"github.com/ignite/admissions-crm/internal/service/user"
)

type ctxKey struct{}

// WithPrincipal stores the caller on ctx.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the caller stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (access.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(access.Principal)
	return p, ok
}

// Manager handles login, logout and session lookup.
type Manager struct {
	config config.AuthConfig
	users  *user.Service
	store  SessionStore
	now    func() time.Time
}

// NewManager creates an authentication manager.
func NewManager(cfg config.AuthConfig, users *user.Service, store SessionStore) *Manager {
	if cfg.CookieName == "" {
		cfg.CookieName = "crm_session"
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = 86400
	}
	return &Manager{config: cfg, users: users, store: store, now: time.Now}
}

// generateSessionID creates a random session ID
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// sign appends an HMAC of id when a session secret is configured.
func (m *Manager) sign(id string) string {
	if m.config.SessionSecret == "" {
		return id
	}
	mac := hmac.New(sha256.New, []byte(m.config.SessionSecret))
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// verify returns the session id carried by a cookie value.
func (m *Manager) verify(value string) (string, bool) {
	if m.config.SessionSecret == "" {
		return value, value != ""
	}
	id, _, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	return id, hmac.Equal([]byte(m.sign(id)), []byte(value))
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.config.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.config.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetSession returns the session for the current request, or nil if not authenticated
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(m.config.CookieName)
	if err != nil {
		return nil
	}
	id, ok := m.verify(cookie.Value)
	if !ok {
		return nil
	}
	s, err := m.store.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			logger.Error("session lookup failed", "error", err)
		}
		return nil
	}
	return s
}

// StartSession stores a new session for u and sets the cookie.
func (m *Manager) StartSession(w http.ResponseWriter, r *http.Request, u *domain.User) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	s := &Session{
		ID:        id,
		UserID:    u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: now,
		ExpiresAt: now.Add(m.config.SessionTTL()),
	}
	if err := m.store.Save(r.Context(), s); err != nil {
		return nil, err
	}
	m.setCookie(w, m.sign(id), m.config.CookieMaxAge)
	return s, nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and starts a session.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !httputil.Decode(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		httputil.BadRequest(w, "username and password are required")
		return
	}

	u, err := m.users.Authenticate(r.Context(), in.Username, in.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials), errors.Is(err, user.ErrInactive):
		logger.Warn("login rejected", "username", in.Username, "reason", err.Error())
		httputil.Error(w, http.StatusUnauthorized, err.Error())
		return
	case err != nil:
		httputil.InternalError(w, err)
		return
	}

	if _, err := m.StartSession(w, r, u); err != nil {
		httputil.InternalError(w, err)
		return
	}
	logger.Info("user logged in", "user_id", u.ID, "role", string(u.Role))
	httputil.OK(w, map[string]any{"user": u})
}

// HandleRegister creates a staff account. The first account may be created
// anonymously; after that only a signed-in director may add users.
func (m *Manager) HandleRegister(w http.ResponseWriter, r *http.Request) {
	existing, err := m.users.List(r.Context(), user.ListFilter{})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if len(existing) > 0 {
		s := m.GetSession(r)
		if s == nil {
			httputil.Unauthorized(w)
			return
		}
		if s.Role != domain.RoleDirector {
			httputil.Forbidden(w)
			return
		}
	}

	var in user.RegisterInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	u, err := m.users.Register(r.Context(), in)
	if ve, ok := validate.As(err); ok {
		httputil.ValidationError(w, "validation failed", ve.Details)
		return
	}
	if errors.Is(err, user.ErrUsernameTaken) {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"user": u})
}

// HandleLogout logs out the user
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.config.CookieName); err == nil {
		if id, ok := m.verify(cookie.Value); ok {
			if err := m.store.Delete(r.Context(), id); err != nil {
				logger.Error("session delete failed", "error", err)
			}
		}
	}
	m.setCookie(w, "", -1)
	httputil.OK(w, map[string]string{"message": "logged out"})
}

// HandleUser returns the signed-in user.
func (m *Manager) HandleUser(w http.ResponseWriter, r *http.Request) {
	s := m.GetSession(r)
	if s == nil {
		httputil.Unauthorized(w)
		return
	}
	u, err := m.users.Get(r.Context(), s.UserID)
	if errors.Is(err, user.ErrNotFound) {
		httputil.Unauthorized(w)
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"user": u})
}

// RequireAuth rejects requests without a valid session and stores the
// principal on the request context.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := m.GetSession(r)
		if s == nil {
			httputil.Unauthorized(w)
			return
		}
		p := access.Principal{UserID: s.UserID, Role: s.Role}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

// RequireRole allows only principals holding one of roles. It must run
// after RequireAuth.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				httputil.Unauthorized(w)
				return
			}
			if err := p.Require(roles...); err != nil {
				httputil.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
