package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The read-only database fields fall back to the
// primary connection when unset, mirroring deployments without a replica.
type Config struct {
    Env    string // application environment (e.g. "dev", "prod")
    Port   string // HTTP port to listen on
    DBUser string // database username
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name

    RODBUser string // read-only replica username (falls back to DBUser)
    RODBPass string // read-only replica password
    RODBHost string // read-only replica host (falls back to DBHost)
    RODBPort string // read-only replica port
    RODBName string // read-only replica database name

    JWTSecret          string // shared secret for locally verifiable identity tokens
    IdentityURL        string // base URL of the user-identity service; empty disables remote introspection
    IdentityTimeoutSec int    // timeout for identity service calls in seconds
    IdentityCacheMin   int    // TTL for cached token resolutions in minutes
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:       must("APP_ENV"),      // environment (dev/test/prod)
        Port:      must("APP_PORT"),     // port to bind the HTTP server
        DBUser:    must("DB_USER"),      // database user
        DBPass:    os.Getenv("DB_PASS"), // database password (empty allowed)
        DBHost:    must("DB_HOST"),      // database host
        DBPort:    must("DB_PORT"),      // database port
        DBName:    must("DB_NAME"),      // database name
        JWTSecret: must("JWT_SECRET"),   // secret for verifying identity JWTs

        IdentityURL:        os.Getenv("USER_SERVICE_URL"),         // optional remote introspection endpoint
        IdentityTimeoutSec: intOr("USER_SERVICE_TIMEOUT_SEC", 5),  // per-call timeout
        IdentityCacheMin:   intOr("USER_SERVICE_CACHE_TTL_MIN", 5), // resolution cache TTL
    }
    // Read-only replica settings default to the primary connection.
    cfg.RODBUser = getenv("RO_DB_USER", cfg.DBUser)
    cfg.RODBPass = getenv("RO_DB_PASS", cfg.DBPass)
    cfg.RODBHost = getenv("RO_DB_HOST", cfg.DBHost)
    cfg.RODBPort = getenv("RO_DB_PORT", cfg.DBPort)
    cfg.RODBName = getenv("RO_DB_NAME", cfg.DBName)
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// intOr converts an optional environment variable into an integer,
// returning the default when unset.  Invalid values are fatal.
func intOr(key string, def int) int {
    s := os.Getenv(key)
    if s == "" {
        return def
    }
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
