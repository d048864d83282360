package middleware // middleware provides shared request processing for handlers

// identity.go resolves the Authorization header to a user_code and
// stores it in the Echo context under "user_code".  Two token shapes
// are supported: HS256 JWTs issued by the identity service, verified
// locally with the shared secret, and opaque tokens, introspected
// remotely through the identity client.  Handlers never see the raw
// token.

import (
    "context"
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// Resolver resolves an opaque bearer token to a user code.  It is
// implemented by identity.Client; a nil Resolver disables the remote
// fallback so only locally verifiable JWTs are accepted.
type Resolver interface {
    Resolve(ctx context.Context, token string) (string, error)
}

// UserCode returns a middleware that authenticates the request and
// injects the caller's user_code into the context.  Requests without a
// usable bearer token are rejected with 401.
func UserCode(secret string, resolver Resolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            if code, ok := userCodeFromJWT(secret, raw); ok {
                c.Set("user_code", code)
                return next(c)
            }
            if resolver != nil {
                code, err := resolver.Resolve(c.Request().Context(), raw)
                if err == nil && code != "" {
                    c.Set("user_code", code)
                    return next(c)
                }
            }
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
        }
    }
}

// userCodeFromJWT verifies an HS256 token with the shared secret and
// extracts the user code from the "sub" or "login" claim.
func userCodeFromJWT(secret, raw string) (string, bool) {
    if secret == "" {
        return "", false
    }
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, echo.ErrUnauthorized
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return "", false
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return "", false
    }
    if v, ok := claims["sub"].(string); ok && v != "" {
        return v, true
    }
    if v, ok := claims["login"].(string); ok && v != "" {
        return v, true
    }
    return "", false
}
