// Package identity resolves bearer tokens to user codes through the
// external user-identity service.  The service owns authentication;
// this process only ever sees the resolved user_code.  Successful
// resolutions are cached in Redis under a hash of the token so that a
// hot token does not hit the identity service on every request.
package identity

import (
    "context"
    "crypto/sha256"
    "encoding/hex"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/redis/go-redis/v9"
)

// ErrUnauthorized is returned when the identity service rejects a token.
var ErrUnauthorized = errors.New("identity: token rejected")

// Client calls the user-identity service over HTTP.  A nil Redis client
// disables caching; resolution still works, just uncached.
type Client struct {
    baseURL string
    httpc   *http.Client
    rdb     *redis.Client
    ttl     time.Duration
}

// New returns a Client for the identity service at baseURL.  timeout
// bounds each profile call; ttl controls how long resolved user codes
// stay cached.
func New(baseURL string, timeout time.Duration, rdb *redis.Client, ttl time.Duration) *Client {
    if timeout <= 0 {
        timeout = 5 * time.Second
    }
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }
    return &Client{
        baseURL: baseURL,
        httpc:   &http.Client{Timeout: timeout},
        rdb:     rdb,
        ttl:     ttl,
    }
}

// Resolve exchanges a bearer token for the user_code it belongs to.
// It consults the Redis cache first, then falls back to the identity
// service's profile endpoint.  ErrUnauthorized is returned when the
// service answers with a non-200 status.
func (c *Client) Resolve(ctx context.Context, token string) (string, error) {
    key := cacheKey(token)
    if c.rdb != nil {
        if code, err := c.rdb.Get(ctx, key).Result(); err == nil && code != "" {
            return code, nil
        }
    }
    code, err := c.introspect(ctx, token)
    if err != nil {
        return "", err
    }
    if c.rdb != nil {
        _ = c.rdb.Set(ctx, key, code, c.ttl).Err()
    }
    return code, nil
}

func (c *Client) introspect(ctx context.Context, token string) (string, error) {
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api_user/profile", nil)
    if err != nil {
        return "", err
    }
    req.Header.Set("Authorization", "Bearer "+token)
    resp, err := c.httpc.Do(req)
    if err != nil {
        return "", err
    }
    defer func() { _ = resp.Body.Close() }()
    if resp.StatusCode != http.StatusOK {
        return "", ErrUnauthorized
    }
    var body struct {
        Login string `json:"login"`
    }
    if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
        return "", fmt.Errorf("identity: decode profile: %w", err)
    }
    if body.Login == "" {
        return "", ErrUnauthorized
    }
    return body.Login, nil
}

// cacheKey hashes the raw token so that tokens are never stored
// verbatim in Redis.
func cacheKey(token string) string {
    sum := sha256.Sum256([]byte(token))
    return "identity:" + hex.EncodeToString(sum[:])
}
