package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey struct{}

type identity struct {
	subject string
	role    Role
}

// WithIdentity stores the authenticated subject and role in ctx.
func WithIdentity(ctx context.Context, subject string, role Role) context.Context {
	return context.WithValue(ctx, contextKey{}, identity{subject: subject, role: role})
}

// RoleFromContext returns the authenticated role, or "" when none.
func RoleFromContext(ctx context.Context) Role {
	id, _ := ctx.Value(contextKey{}).(identity)
	return id.role
}

// SubjectFromContext returns the authenticated subject, or "" when none.
func SubjectFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(identity)
	return id.subject
}

// Authenticator guards handlers with bearer tokens.
// An Authenticator without a secret lets every request through.
type Authenticator struct {
	logger *slog.Logger
	secret []byte
}

// NewAuthenticator creates an Authenticator. An empty secret disables authentication.
func NewAuthenticator(secret string, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// Enabled reports whether requests are authenticated.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Require wraps next so that it only runs for tokens whose role is at least role.
func (a *Authenticator) Require(role Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		raw, ok := bearerToken(r)
		if !ok {
			deny(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := ParseToken(raw, a.secret)
		if err != nil {
			a.logger.Debug("rejected token", "error", err, "path", r.URL.Path)
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}
		granted, _ := NormalizeRole(claims.Role)
		if !granted.Allows(role) {
			deny(w, http.StatusForbidden, "role "+string(granted)+" may not access this resource")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Subject, granted)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(w http.ResponseWriter, status int, msg string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="climate-monitor"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
