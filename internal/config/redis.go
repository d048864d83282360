package config

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient builds the shared Redis client used for rate limiting,
// response caching and the identity resolution cache.  Connection
// parameters come from the environment:
//
//   REDIS_ADDR               host:port shorthand
//   REDIS_HOST / REDIS_PORT  take precedence over REDIS_ADDR when both set
//   REDIS_PASSWORD           optional password
//   REDIS_DB                 database number (default 0)
//   REDIS_TLS                enable TLS when "true" or "1"
//
// Redis is optional for this service: when the initial ping fails the
// function returns nil and every consumer degrades gracefully (no
// caching, no rate limiting, uncached identity resolution).
func NewRedisClient() *redis.Client {
    addr := os.Getenv("REDIS_ADDR")
    if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }

    dbNum := 0
    if s := os.Getenv("REDIS_DB"); s != "" {
        if n, err := strconv.Atoi(s); err == nil {
            dbNum = n
        }
    }
    var tlsConf *tls.Config
    if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
        tlsConf = &tls.Config{InsecureSkipVerify: true}
    }

    client := redis.NewClient(&redis.Options{
        Addr:      addr,
        Password:  os.Getenv("REDIS_PASSWORD"),
        DB:        dbNum,
        TLSConfig: tlsConf,
    })

    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        return nil
    }
    return client
}
