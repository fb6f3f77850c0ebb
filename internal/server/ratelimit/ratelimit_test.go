package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(cfg *Config) (*Limiter, *time.Time) {
	l := NewLimiter(cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_BurstThenDeny(t *testing.T) {
	l, now := newTestLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Path: "/merge", Method: "POST", Limit: 60, Window: time.Minute, Burst: 2},
		},
	})
	defer l.Stop()

	ok, info := l.Allow("10.0.0.1", "/merge", "POST")
	assert.True(t, ok)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	ok, _ = l.Allow("10.0.0.1", "/merge", "POST")
	assert.True(t, ok)

	ok, info = l.Allow("10.0.0.1", "/merge", "POST")
	assert.False(t, ok)
	assert.Greater(t, info.RetryAfter, time.Duration(0))

	// one token per second refills
	*now = now.Add(time.Second)
	ok, _ = l.Allow("10.0.0.1", "/merge", "POST")
	assert.True(t, ok)
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled: true,
		EndpointConfigs: []EndpointConfig{
			{Path: "/render", Method: "POST", Limit: 1, Window: time.Hour},
		},
	})
	defer l.Stop()

	ok, _ := l.Allow("a", "/render", "POST")
	assert.True(t, ok)
	ok, _ = l.Allow("a", "/render", "POST")
	assert.False(t, ok)
	ok, _ = l.Allow("b", "/render", "POST")
	assert.True(t, ok)
}

func TestLimiter_AllowAndBlockLists(t *testing.T) {
	l, _ := newTestLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Hour,
		Allowlist:     map[string]bool{"trusted": true},
		Blocklist:     map[string]bool{"banned": true},
	})
	defer l.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := l.Allow("trusted", "/upload", "POST")
		assert.True(t, ok)
	}
	ok, _ := l.Allow("banned", "/health", "GET")
	assert.False(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	l, _ := newTestLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow("x", "/merge", "POST")
		assert.True(t, ok)
	}
	assert.Zero(t, l.Len())
}

func TestLimiter_Evict(t *testing.T) {
	l, now := newTestLimiter(&Config{Enabled: true, DefaultLimit: 10, DefaultWindow: time.Minute, IdleTTL: time.Minute})
	defer l.Stop()

	l.Allow("a", "/merge/runs", "GET")
	require.Equal(t, 1, l.Len())

	*now = now.Add(2 * time.Minute)
	l.Allow("b", "/merge/runs", "GET")
	l.Evict()
	assert.Equal(t, 1, l.Len())
}

func TestLimiter_StopTwice(t *testing.T) {
	l := NewLimiter(&Config{Enabled: true, CleanupInterval: time.Hour})
	l.Stop()
	assert.NotPanics(t, l.Stop)
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	ec := MatchEndpoint("/chat/sessions/abc/messages", "POST", configs)
	require.NotNil(t, ec)
	assert.Equal(t, "/chat/sessions/", ec.Path)

	ec = MatchEndpoint("/chat/sessions", "POST", configs)
	require.NotNil(t, ec)
	assert.Equal(t, "/chat/sessions", ec.Path)

	ec = MatchEndpoint("/health", "GET", configs)
	require.NotNil(t, ec)
	assert.Zero(t, ec.Limit)

	assert.Nil(t, MatchEndpoint("/merge/runs", "GET", configs))
}

func TestLoadConfig(t *testing.T) {
	env := map[string]string{
		"RATE_LIMIT_DEFAULT_LIMIT": "5",
		"RATE_LIMIT_ALLOWLIST":     "127.0.0.1, ::1",
	}
	cfg := LoadConfig(func(k string) string { return env[k] })
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.True(t, cfg.Allowlist["::1"])
	assert.NotEmpty(t, cfg.EndpointConfigs)

	cfg = LoadConfig(func(k string) string {
		if k == "RATE_LIMIT_ENABLED" {
			return "false"
		}
		return ""
	})
	assert.False(t, cfg.Enabled)
}
