package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nt8816/bibliotecai-core/internal/domain"
	"github.com/nt8816/bibliotecai-core/internal/server/middleware"
	"github.com/nt8816/bibliotecai-core/internal/tenancy"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// contextHandler captures context values set by middleware so tests can
// assert that the correct school, user, and role were injected.
type contextHandler struct {
	schoolID uuid.UUID
	userID   uuid.UUID
	role     string
	called   bool
}

func (h *contextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.schoolID, _ = middleware.SchoolIDFromContext(r.Context())
	h.userID, _ = middleware.UserIDFromContext(r.Context())
	h.role, _ = middleware.RoleFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

// setRole injects an authenticated role into the request context.
func setRole(r *http.Request, role string) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeyUserRole, role)
	return r.WithContext(ctx)
}

// setSchool injects a school ID into the request context.
func setSchool(r *http.Request, schoolID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.ContextKeySchoolID, schoolID)
	return r.WithContext(ctx)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuth(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	schoolID := uuid.New()

	t.Run("valid token", func(t *testing.T) {
		t.Parallel()

		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":       userID.String(),
			"role":      "bibliotecaria",
			"escola_id": schoolID.String(),
			"exp":       time.Now().Add(time.Hour).Unix(),
		})

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, h.called)
		assert.Equal(t, userID, h.userID)
		assert.Equal(t, schoolID, h.schoolID)
		assert.Equal(t, "bibliotecaria", h.role)
	})

	t.Run("token without school still authenticates", func(t *testing.T) {
		t.Parallel()

		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": "admin",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, uuid.Nil, h.schoolID)
		assert.Equal(t, "admin", h.role)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		tok := signToken(t, "another-secret-another-secret-xx", jwt.MapClaims{
			"sub":  userID.String(),
			"role": "gestor",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, h.called)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()

		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":  userID.String(),
			"role": "gestor",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		})

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-uuid subject", func(t *testing.T) {
		t.Parallel()

		tok := signToken(t, testSecret, jwt.MapClaims{
			"sub":  "not-a-uuid",
			"role": "gestor",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})

		h := &contextHandler{}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()

		middleware.Auth(testSecret)(h).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// ---------------------------------------------------------------------------
// Tenant resolution
// ---------------------------------------------------------------------------

type stubTenantRepo struct {
	tenant *domain.Tenant
	err    error
}

func (s *stubTenantRepo) Create(_ context.Context, _ *domain.Tenant) error {
	panic("not implemented")
}

func (s *stubTenantRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Tenant, error) {
	panic("not implemented")
}

func (s *stubTenantRepo) GetActiveBySubdomain(_ context.Context, _ string) (*domain.Tenant, error) {
	return s.tenant, s.err
}

func (s *stubTenantRepo) List(_ context.Context) ([]*domain.Tenant, error) {
	panic("not implemented")
}

func TestResolveTenant(t *testing.T) {
	t.Parallel()

	classifier := tenancy.Classifier{BaseDomain: "bibliotecai.com"}

	t.Run("tenant host attaches the resolution", func(t *testing.T) {
		t.Parallel()

		tenant := &domain.Tenant{ID: uuid.New(), Subdomain: "escola-azul", Active: true}
		resolver := tenancy.NewResolver(classifier, &stubTenantRepo{tenant: tenant})

		var got *tenancy.Resolution
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = middleware.ResolutionFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "escola-azul.bibliotecai.com"
		w := httptest.NewRecorder()

		middleware.ResolveTenant(resolver)(h).ServeHTTP(w, r)

		require.NotNil(t, got)
		assert.Equal(t, tenancy.ModeTenant, got.Mode)
		require.NotNil(t, got.Tenant)
		assert.Equal(t, tenant.ID, got.Tenant.ID)
	})

	t.Run("root host passes through without lookup", func(t *testing.T) {
		t.Parallel()

		resolver := tenancy.NewResolver(classifier, &stubTenantRepo{})

		var got *tenancy.Resolution
		h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = middleware.ResolutionFromContext(r.Context())
		})

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "bibliotecai.com"
		w := httptest.NewRecorder()

		middleware.ResolveTenant(resolver)(h).ServeHTTP(w, r)

		require.NotNil(t, got)
		assert.Equal(t, tenancy.ModeRoot, got.Mode)
	})
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("resolved tenant passes", func(t *testing.T) {
		t.Parallel()

		res := &tenancy.Resolution{Mode: tenancy.ModeTenant, Subdomain: "escola-azul", Tenant: &domain.Tenant{ID: uuid.New()}}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyResolution, res))
		w := httptest.NewRecorder()

		middleware.RequireTenant()(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("failed resolution is forbidden", func(t *testing.T) {
		t.Parallel()

		res := &tenancy.Resolution{Mode: tenancy.ModeTenant, Subdomain: "ghost", Err: tenancy.TenantNotFoundMessage}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(context.WithValue(r.Context(), middleware.ContextKeyResolution, res))
		w := httptest.NewRecorder()

		middleware.RequireTenant()(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing resolution is forbidden", func(t *testing.T) {
		t.Parallel()

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		middleware.RequireTenant()(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

// ---------------------------------------------------------------------------
// RBAC
// ---------------------------------------------------------------------------

func TestRequireRole(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		role     string
		allowed  []string
		wantCode int
	}{
		{"allowed role", middleware.RoleGestor, []string{middleware.RoleGestor, middleware.RoleAdmin}, http.StatusOK},
		{"disallowed role", middleware.RoleAluno, []string{middleware.RoleGestor}, http.StatusForbidden},
		{"no role in context", "", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != "" {
				r = setRole(r, tt.role)
			}
			w := httptest.NewRecorder()

			middleware.RequireRole(tt.allowed...)(next).ServeHTTP(w, r)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestRequireStaff(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for role, want := range map[string]int{
		middleware.RoleAdmin:         http.StatusOK,
		middleware.RoleGestor:        http.StatusOK,
		middleware.RoleBibliotecaria: http.StatusOK,
		middleware.RoleProfessor:     http.StatusForbidden,
		middleware.RoleAluno:         http.StatusForbidden,
	} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = setRole(r, role)
		w := httptest.NewRecorder()

		middleware.RequireStaff()(next).ServeHTTP(w, r)
		assert.Equal(t, want, w.Code, "role %s", role)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := middleware.RateLimitByIP(ctx, 1, 2)(next)

	do := func(addr string) int {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		r.RemoteAddr = addr
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, r)
		return w.Code
	}

	// Burst of 2 for one IP, then limited.
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1234"))

	// A different IP has its own bucket.
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234"))
}

func TestRateLimitBySchool(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := middleware.RateLimitBySchool(ctx, 1, 1)(next)

	schoolID := uuid.New()

	do := func(withSchool bool) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if withSchool {
			r = setSchool(r, schoolID)
		}
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do(true))
	assert.Equal(t, http.StatusTooManyRequests, do(true))

	// No school in context skips limiting entirely.
	assert.Equal(t, http.StatusOK, do(false))
	assert.Equal(t, http.StatusOK, do(false))
}
