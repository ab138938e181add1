package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := newIPRateLimiter(1, 2)

	require.True(t, rl.allow("1.2.3.4"))
	require.True(t, rl.allow("1.2.3.4"))
	require.False(t, rl.allow("1.2.3.4"))
}

func TestIPRateLimiterTracksIndependentIPs(t *testing.T) {
	rl := newIPRateLimiter(1, 1)

	require.True(t, rl.allow("1.1.1.1"))
	require.True(t, rl.allow("2.2.2.2"))
	require.False(t, rl.allow("1.1.1.1"))
}

func TestClientIPPrefersForwardedForHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.2")
	require.Equal(t, "203.0.113.5", clientIP(req))
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	require.Equal(t, "10.0.0.1", clientIP(req))
}
