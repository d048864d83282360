package middleware

import (
    "context"
    "errors"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubResolver struct {
    code string
    err  error
}

func (s *stubResolver) Resolve(ctx context.Context, token string) (string, error) {
    return s.code, s.err
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
    t.Helper()
    tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := tok.SignedString([]byte(secret))
    require.NoError(t, err)
    return signed
}

// runUserCode sends one request through the identity middleware and
// reports the user_code the handler observed, or "" when the request
// was rejected before reaching the handler.
func runUserCode(t *testing.T, resolver Resolver, authHeader string) (string, int) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    var seen string
    h := UserCode(testSecret, resolver)(func(c echo.Context) error {
        seen, _ = c.Get("user_code").(string)
        return c.NoContent(http.StatusOK)
    })
    require.NoError(t, h(c))
    return seen, rec.Code
}

func TestUserCodeValidJWT(t *testing.T) {
    raw := signToken(t, testSecret, jwt.MapClaims{
        "sub": "alice",
        "exp": time.Now().Add(time.Hour).Unix(),
    })
    code, status := runUserCode(t, nil, "Bearer "+raw)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "alice", code)
}

func TestUserCodeLoginClaimFallback(t *testing.T) {
    raw := signToken(t, testSecret, jwt.MapClaims{
        "login": "bob",
        "exp":   time.Now().Add(time.Hour).Unix(),
    })
    code, status := runUserCode(t, nil, "Bearer "+raw)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "bob", code)
}

func TestUserCodeMissingHeader(t *testing.T) {
    _, status := runUserCode(t, nil, "")
    assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserCodeWrongSecret(t *testing.T) {
    raw := signToken(t, "other-secret", jwt.MapClaims{
        "sub": "alice",
        "exp": time.Now().Add(time.Hour).Unix(),
    })
    _, status := runUserCode(t, nil, "Bearer "+raw)
    assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserCodeExpiredJWT(t *testing.T) {
    raw := signToken(t, testSecret, jwt.MapClaims{
        "sub": "alice",
        "exp": time.Now().Add(-time.Hour).Unix(),
    })
    _, status := runUserCode(t, nil, "Bearer "+raw)
    assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserCodeOpaqueTokenResolved(t *testing.T) {
    code, status := runUserCode(t, &stubResolver{code: "carol"}, "Bearer opaque-token")
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, "carol", code)
}

func TestUserCodeResolverFailure(t *testing.T) {
    _, status := runUserCode(t, &stubResolver{err: errors.New("introspection failed")}, "Bearer opaque-token")
    assert.Equal(t, http.StatusUnauthorized, status)
}

func TestUserCodeNoResolverOpaqueToken(t *testing.T) {
    _, status := runUserCode(t, nil, "Bearer opaque-token")
    assert.Equal(t, http.StatusUnauthorized, status)
}
