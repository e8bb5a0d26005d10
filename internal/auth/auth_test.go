package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUserHasRole(t *testing.T) {
	tests := []struct {
		name string
		user *User
		role Role
		want bool
	}{
		{"nil user", nil, RoleViewer, false},
		{"exact role", &User{Roles: []Role{RoleOperator}}, RoleOperator, true},
		{"missing role", &User{Roles: []Role{RoleViewer}}, RoleOperator, false},
		{"admin implies everything", &User{Roles: []Role{RoleAdmin}}, RoleViewer, true},
		{"no roles", &User{}, RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasRole(tt.role); got != tt.want {
				t.Errorf("HasRole(%s) = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestUserContextRoundTrip(t *testing.T) {
	user := &User{ID: "abc", Roles: []Role{RoleOperator}}
	ctx := SetUserInContext(context.Background(), user)

	if got := GetUserFromContext(ctx); got != user {
		t.Errorf("expected stored user back, got %+v", got)
	}
	if GetUserFromContext(context.Background()) != nil {
		t.Error("expected nil user from empty context")
	}
	if !HasAnyRole(ctx, RoleAdmin, RoleOperator) {
		t.Error("expected operator user to pass role check")
	}
	if HasAnyRole(context.Background(), RoleOperator) {
		t.Error("expected empty context to fail role check")
	}
}

func TestAPIKeyAuthenticator(t *testing.T) {
	config := &Config{
		Mode:    AuthModeAPIKey,
		APIKeys: []string{"secret-key"},
		APIKeyRoles: map[string][]Role{
			"secret-key": {RoleViewer},
		},
	}
	a := NewAPIKeyAuthenticator(config)

	tests := []struct {
		name    string
		headers map[string]string
		wantErr *AuthError
	}{
		{"x-api-key header", map[string]string{"X-API-Key": "secret-key"}, nil},
		{"bearer token", map[string]string{"Authorization": "Bearer secret-key"}, nil},
		{"no credentials", nil, ErrMissingCredentials},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, ErrInvalidCredentials},
		{"non-bearer auth header", map[string]string{"Authorization": "Basic abc"}, ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			user, err := a.Authenticate(r)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error: %v", err)
			}
			if !user.HasRole(RoleViewer) {
				t.Errorf("expected configured viewer role, got %+v", user.Roles)
			}
		})
	}
}

func TestAPIKeyDefaultsToOperator(t *testing.T) {
	a := NewAPIKeyAuthenticator(&Config{
		Mode:    AuthModeAPIKey,
		APIKeys: []string{"k1"},
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-API-Key", "k1")
	user, err := a.Authenticate(r)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if !user.HasRole(RoleOperator) {
		t.Errorf("expected default operator role, got %+v", user.Roles)
	}
}

func TestMiddlewareSkipPaths(t *testing.T) {
	config := &Config{
		Mode:      AuthModeAPIKey,
		APIKeys:   []string{"k1"},
		SkipPaths: []string{"/public"},
	}
	m := NewMiddleware(config, NewAPIKeyAuthenticator(config))
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/public", http.StatusOK},
		{"/protected", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status for %s = %d, want %d", tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestMiddlewareAuthModeNone(t *testing.T) {
	m := NewMiddleware(&Config{Mode: AuthModeNone}, nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hog/v1/start", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with auth disabled, got %d", w.Code)
	}
}

func TestMiddlewareNilAuthenticator(t *testing.T) {
	m := NewMiddleware(&Config{Mode: AuthModeAPIKey}, nil)
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for misconfigured auth, got %d", w.Code)
	}
}

func TestMiddlewareSetsUserInContext(t *testing.T) {
	config := &Config{
		Mode:    AuthModeAPIKey,
		APIKeys: []string{"k1"},
	}
	m := NewMiddleware(config, NewAPIKeyAuthenticator(config))

	var seen *User
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("X-API-Key", "k1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if seen == nil {
		t.Fatal("expected user in handler context")
	}
	if !seen.HasRole(RoleOperator) {
		t.Errorf("expected operator role in context user, got %+v", seen.Roles)
	}
}
