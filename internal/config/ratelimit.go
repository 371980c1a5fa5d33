package config

import "time"

// RateLimitConfig configures the Redis token bucket placed in front of the
// showtime API.  Writes can be given a smaller bucket than reads.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    WriteCapacity  int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
        WriteCapacity:  envInt("RATE_LIMIT_WRITE_CAPACITY", 0),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "rl:showtimes"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }
    if b := envInt("RATE_LIMIT_BURST", -1); b > 0 { def.Capacity = b }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.WriteCapacity < 1 || def.WriteCapacity > def.Capacity { def.WriteCapacity = def.Capacity }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

// CapacityFor returns the bucket size for an HTTP method.
func (c RateLimitConfig) CapacityFor(method string) int {
    switch method {
    case "GET", "HEAD", "OPTIONS":
        return c.Capacity
    }
    return c.WriteCapacity
}
