package config

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestCacheConfigDefaults(t *testing.T) {
    cfg := LoadCacheConfig()
    assert.True(t, cfg.Enabled)
    assert.True(t, cfg.Methods["GET"])
    assert.Equal(t, 30*time.Second, cfg.TTL)
    assert.Equal(t, "path_query", cfg.KeyStrategy)
    assert.Equal(t, "tickets", cfg.Prefix)
    assert.Equal(t, 1048576, cfg.MaxBodyBytes)
}

func TestParseMethods(t *testing.T) {
    m := parseMethods("get, head ,POST")
    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true, "POST": true}, m)
    assert.Empty(t, parseMethods(""))
}

func TestParseDurFallback(t *testing.T) {
    assert.Equal(t, 45*time.Second, parseDur("45s"))
    assert.Equal(t, time.Second, parseDur("not-a-duration"))
}

func TestRateLimitConfigDefaults(t *testing.T) {
    cfg := LoadRateLimitConfig()
    assert.True(t, cfg.Enabled)
    assert.Equal(t, 60, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, time.Second, cfg.RefillInterval)
    assert.Equal(t, "ip_user_route", cfg.KeyStrategy)
    // The TTL is clamped to at least five refill intervals.
    assert.GreaterOrEqual(t, cfg.TTL, 5*cfg.RefillInterval)
}

func TestRateLimitOverrides(t *testing.T) {
    t.Setenv("RATE_LIMIT_BURST", "10")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    cfg := LoadRateLimitConfig()
    assert.Equal(t, 10, cfg.Capacity)
    assert.Equal(t, 1, cfg.RefillTokens)
    assert.Equal(t, 2*time.Second, cfg.RefillInterval)
}

func TestEnvBool(t *testing.T) {
    t.Setenv("SOME_FLAG", "yes")
    assert.True(t, envBool("SOME_FLAG", false))
    t.Setenv("SOME_FLAG", "off")
    assert.False(t, envBool("SOME_FLAG", true))
    t.Setenv("SOME_FLAG", "maybe")
    assert.True(t, envBool("SOME_FLAG", true))
}
