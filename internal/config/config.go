package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"    // time parses duration-valued variables
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. Configuration is read once at startup and
// passed into constructors; nothing in the application mutates or
// re-reads it afterwards.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing

    Cache     CacheConfig     // public response cache knobs
    LoginRate LoginRateConfig // login rate limiting knobs
}

// CacheConfig controls the Redis response cache applied to the public
// event endpoints. When Redis is unavailable the cache is skipped and
// requests fall through to the database.
type CacheConfig struct {
    Enabled bool          // CACHE_ENABLED (default true)
    TTL     time.Duration // CACHE_TTL (default 30s)
    Prefix  string        // CACHE_PREFIX (default "evcache")
}

// LoginRateConfig controls the fixed-window limiter on the login
// endpoint. Window counts are kept in Redis so limits hold across
// replicas.
type LoginRateConfig struct {
    Enabled bool          // LOGIN_RATE_ENABLED (default true)
    Limit   int           // LOGIN_RATE_LIMIT attempts per window (default 10)
    Window  time.Duration // LOGIN_RATE_WINDOW (default 1m)
    Prefix  string        // LOGIN_RATE_PREFIX (default "loginrl")
}

// Load reads configuration values from environment variables and
// returns a Config. Required variables are enforced by must() and
// missing values cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        Cache: CacheConfig{
            Enabled: envBool("CACHE_ENABLED", true),
            TTL:     envDur("CACHE_TTL", 30*time.Second),
            Prefix:  envStr("CACHE_PREFIX", "evcache"),
        },
        LoginRate: LoginRateConfig{
            Enabled: envBool("LOGIN_RATE_ENABLED", true),
            Limit:   envInt("LOGIN_RATE_LIMIT", 10),
            Window:  envDur("LOGIN_RATE_WINDOW", time.Minute),
            Prefix:  envStr("LOGIN_RATE_PREFIX", "loginrl"),
        },
    }
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// The env* helpers read optional variables with defaults.

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch os.Getenv(k) {
    case "1", "true", "TRUE", "True", "yes", "on":
        return true
    case "0", "false", "FALSE", "False", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    if v := os.Getenv(k); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    if v := os.Getenv(k); v != "" {
        if dur, err := time.ParseDuration(v); err == nil {
            return dur
        }
    }
    return d
}
