package ratelimit

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		remote string
		want   string
	}{
		{"10.0.0.7:5123", "10.0.0.7"},
		{"[::1]:80", "::1"},
		{"not-a-hostport", "not-a-hostport"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "http://example/", nil)
		r.RemoteAddr = tt.remote
		require.Equal(t, tt.want, ClientIP(r), tt.remote)
	}
}
