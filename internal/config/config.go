package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"

    "github.com/joho/godotenv"

    "github.com/iliyamo/stadium-seat-reservation/internal/database"
)

// Storage backends selectable through STORAGE.
const (
    StorageMySQL  = "mysql"
    StorageMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    LogLevel       string // DEBUG, INFO, WARN, ERROR or OFF
    Storage        string // "mysql" (default) or "memory"
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    DBMaxConns     int    // size of the connection pool
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time‑to‑live in minutes
    RefreshTTLDays int    // refresh token time‑to‑live in days
    BcryptCost     int    // bcrypt cost for password hashing
}

// LoadDotEnv reads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotEnv(files ...string) {
    if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }
}

// Load reads configuration values from environment variables and returns a
// Config.  Database variables are only required with the mysql storage.
// Missing required values cause the program to exit with a fatal log
// message.
func Load() Config {
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8080"),
        LogLevel:       envStr("LOG_LEVEL", "INFO"),
        Storage:        envStr("STORAGE", StorageMySQL),
        JWTSecret:      must("JWT_SECRET"),                // secret used for signing JWTs
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),   // TTL for access tokens in minutes
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"), // TTL for refresh tokens in days
        BcryptCost:     envInt("BCRYPT_COST", 12),         // bcrypt cost factor
        DBMaxConns:     envInt("DB_MAX_CONNS", 25),
    }
    switch cfg.Storage {
    case StorageMySQL:
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = envStr("DB_PORT", "3306")
        cfg.DBName = must("DB_NAME")
    case StorageMemory:
    default:
        log.Fatalf("invalid STORAGE %q: want %q or %q", cfg.Storage, StorageMySQL, StorageMemory)
    }
    return cfg
}

// Database returns the MySQL connection options.
func (c Config) Database() database.Options {
    return database.Options{
        User:     c.DBUser,
        Password: c.DBPass,
        Host:     c.DBHost,
        Port:     c.DBPort,
        Name:     c.DBName,
        MaxConns: c.DBMaxConns,
    }
}

// AccessTTL is AccessTTLMin as a duration.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is RefreshTTLDays as a duration.
func (c Config) RefreshTTL() time.Duration {
    return time.Duration(c.RefreshTTLDays) * 24 * time.Hour
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
