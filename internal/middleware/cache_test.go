package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/ticket-reservation/internal/config"
)

func cacheContext(method, target, userCode string) echo.Context {
    e := echo.New()
    req := httptest.NewRequest(method, target, nil)
    c := e.NewContext(req, httptest.NewRecorder())
    // Echo resolves the route template during routing; the key must not
    // depend on it, so simulate the worst case where all requests share
    // one template.
    c.SetPath("/v1/orders/:id")
    if userCode != "" {
        c.Set("user_code", userCode)
    }
    return c
}

func TestCacheKeyStability(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "tickets", KeyStrategy: "path_query"}

    a := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/tickets?limit=5", ""))
    b := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/tickets?limit=5", ""))
    assert.Equal(t, a, b, "same request must map to the same key")

    c := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/tickets?limit=6", ""))
    assert.NotEqual(t, a, c, "different query must map to a different key")
}

// Two requests that share a route template but target different
// resources, or carry different identities, must never share a cache
// entry.
func TestCacheKeySeparatesResourcesAndUsers(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "tickets", KeyStrategy: "path_query"}

    order1 := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/orders/1", "alice"))
    order2 := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/orders/2", "alice"))
    assert.NotEqual(t, order1, order2, "concrete path must be part of the key")

    aliceKey := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/my-orders", "alice"))
    bobKey := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/my-orders", "bob"))
    anonKey := cacheKeyFrom(cfg, cacheContext(http.MethodGet, "/v1/my-orders", ""))
    assert.NotEqual(t, aliceKey, bobKey, "user code must be part of the key")
    assert.NotEqual(t, aliceKey, anonKey, "unauthenticated requests must not hit user entries")
}

func TestCacheKeyStrategies(t *testing.T) {
    // Under "path" the query string must not influence the key; under
    // "method_path" the method must.
    pathOnly := config.CacheConfig{Prefix: "tickets", KeyStrategy: "path"}
    a := cacheKeyFrom(pathOnly, cacheContext(http.MethodGet, "/v1/tickets?limit=5", ""))
    b := cacheKeyFrom(pathOnly, cacheContext(http.MethodGet, "/v1/tickets?limit=9", ""))
    assert.Equal(t, a, b)

    methodPath := config.CacheConfig{Prefix: "tickets", KeyStrategy: "method_path"}
    g := cacheKeyFrom(methodPath, cacheContext(http.MethodGet, "/v1/tickets", ""))
    h := cacheKeyFrom(methodPath, cacheContext(http.MethodHead, "/v1/tickets", ""))
    assert.NotEqual(t, g, h)
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": []string{"application/json"}}
    payload, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
    require.NoError(t, err)

    status, gotHdr, body, ok := decodePayload(payload)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
    assert.Equal(t, `{"ok":true}`, string(body))
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
    _, _, _, ok := decodePayload([]byte{1, 2, 3})
    assert.False(t, ok)
}
