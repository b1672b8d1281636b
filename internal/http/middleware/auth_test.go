package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/logx"
)

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	var got domain.Principal
	h := Authenticate(logx.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name    string
		headers map[string]string
		code    int
	}{
		{"no headers", nil, http.StatusUnauthorized},
		{"bad id", map[string]string{HeaderUserID: "42", HeaderUserRole: "admin"}, http.StatusUnauthorized},
		{"bad role", map[string]string{HeaderUserID: id.String(), HeaderUserRole: "root"}, http.StatusUnauthorized},
		{"ok", map[string]string{
			HeaderUserID: id.String(), HeaderUserRole: "Customer",
			HeaderUserEmail: "a@example.com", HeaderUserPhone: "+254700000001",
		}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/parcels", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusUnauthorized {
				require.JSONEq(t, `{"code":"Unauthorized","error":"authentication required"}`, rec.Body.String())
			}
		})
	}

	require.Equal(t, domain.Principal{ID: id, Role: domain.RoleCustomer, Email: "a@example.com", Phone: "+254700000001"}, got)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	h := RequireRole(domain.RoleAdmin, domain.RoleDriver)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(p *domain.Principal) int {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusUnauthorized, serve(nil))
	require.Equal(t, http.StatusForbidden, serve(&domain.Principal{ID: uuid.New(), Role: domain.RoleCustomer}))
	require.Equal(t, http.StatusOK, serve(&domain.Principal{ID: uuid.New(), Role: domain.RoleDriver}))
}
