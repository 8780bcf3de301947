package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// env helpers fall back to the default when the variable is unset or
// does not parse.

func envStr(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(key string, def bool) bool {
    v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
    switch v {
    case "yes", "on":
        return true
    case "no", "off":
        return false
    }
    if b, err := strconv.ParseBool(v); err == nil {
        return b
    }
    return def
}

func envInt(key string, def int) int {
    if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
        return n
    }
    return def
}

func envDur(key string, def time.Duration) time.Duration {
    if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
        return d
    }
    return def
}
