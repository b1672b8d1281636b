package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

// Headers set by the authenticating gateway in front of the service.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
	HeaderUserPhone = "X-User-Phone"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate turns the gateway identity headers into a domain.Principal.
// Requests without a valid identity are answered with 401.
func Authenticate(logger logx.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(strings.TrimSpace(r.Header.Get(HeaderUserID)))
			role := domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
			if err != nil || id == uuid.Nil || !role.Valid() {
				logger.Debug("unauthenticated request",
					logx.String("method", r.Method),
					logx.String("path", r.URL.Path),
				)
				deny(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			p := domain.Principal{
				ID:    id,
				Role:  role,
				Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
				Phone: strings.TrimSpace(r.Header.Get(HeaderUserPhone)),
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets through callers holding one of roles and answers 403 otherwise.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				deny(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			deny(w, http.StatusForbidden, "Forbidden", "operation not permitted for role "+string(p.Role))
		})
	}
}

func deny(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"code":"` + code + `","error":"` + msg + `"}`))
}
