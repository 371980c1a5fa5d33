package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the showtime listing cache.  When Enabled
// is false or no Redis client is configured, caching is disabled.  Methods
// lists the HTTP methods whose responses are cached; any successful request
// with another method on a cached route group purges the group's entries
// when InvalidateOnWrite is set.
type CacheConfig struct {
    Enabled           bool
    Methods           map[string]bool
    TTL               time.Duration
    KeyStrategy       string
    Prefix            string
    MaxBodyBytes      int
    InvalidateOnWrite bool
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:           envBool("CACHE_ENABLED", true),
        Methods:           parseMethods(getenv("CACHE_METHODS", "GET")),
        TTL:               envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:       getenv("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:            getenv("CACHE_PREFIX", "cache:showtimes"),
        MaxBodyBytes:      envInt("CACHE_MAX_BODY_BYTES", 1<<20),
        InvalidateOnWrite: envBool("CACHE_INVALIDATE_ON_WRITE", true),
    }
}

func parseMethods(s string) map[string]bool {
    m := map[string]bool{}
    for _, p := range strings.Split(s, ",") {
        p = strings.TrimSpace(strings.ToUpper(p))
        if p != "" {
            m[p] = true
        }
    }
    return m
}
