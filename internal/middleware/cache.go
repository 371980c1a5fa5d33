package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/cinema-showtime-scheduler/internal/config"
)

// captureWriter forwards the response to the client and keeps a copy of
// up to limit bytes.  size counts every byte written, so size > limit
// means the copy is truncated.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }

func (cw *captureWriter) Write(b []byte) (int, error) {
    keep := b
    if cw.limit > 0 {
        remain := cw.limit - int64(cw.buf.Len())
        if remain < 0 {
            remain = 0
        }
        if int64(len(keep)) > remain {
            keep = keep[:remain]
        }
    }
    cw.buf.Write(keep)
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds a stable key honoring prefix and strategy.  The
// concrete request path is used rather than the route pattern so that
// /showtimes/1 and /showtimes/2 never share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    method := r.Method
    route := r.URL.Path
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", route)
    case "method_route":
        parts = append(parts, "method", method, "route", route)
    case "method_route_query":
        parts = append(parts, "method", method, "route", route, "q", query)
    default: // "route_query"
        parts = append(parts, "route", route, "q", query)
    }

    tail := strings.Join(parts[1:], ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) || hlen < 0 {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

// NewRedisCache caches successful responses for the configured methods and
// replays them byte for byte, headers included.  When InvalidateOnWrite is
// set, any other successful request passing through the middleware drops
// every entry under the prefix so a listing never outlives a mutation by
// more than the request that caused it.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 { ttl = 5 * time.Minute }

    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                err := next(c)
                if cfg.InvalidateOnWrite && err == nil && c.Response().Status < http.StatusBadRequest {
                    if n, perr := invalidate(context.Background(), rdb, cfg.Prefix); perr != nil {
                        log.WithError(perr).Warn("cache: purge failed")
                    } else if n > 0 {
                        log.WithField("keys", n).Debug("cache: purged after write")
                    }
                }
                return err
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)
            genKey := generationKey(cfg.Prefix)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        // X-Cache is set below; Echo computes Content-Length.
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, "X-Cache") { continue }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: remember the generation before the handler reads the
            // store; a write landing meanwhile bumps it and the fill is dropped.
            gen, gerr := rdb.Get(ctx, genKey).Result()
            if gerr == redis.Nil {
                gen, gerr = "", nil
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Truncated bodies are never stored.
            if gerr == nil && cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
                hdr := c.Response().Header().Clone()
                hdr.Del("X-Cache")
                if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                    err := storeIfGeneration.Run(context.Background(), rdb, []string{genKey, key}, gen, payload, ttl.Milliseconds()).Err()
                    if err != nil {
                        log.WithError(err).Warn("cache: store failed")
                    }
                }
            } else if gerr != nil {
                log.WithError(gerr).Warn("cache: generation read failed; not storing")
            }
            return nil
        }
    }
}

// generationKey lives outside prefix+":*" so purges never reset it.
func generationKey(prefix string) string { return prefix + "#gen" }

// storeIfGeneration writes ARGV[2] to KEYS[2] with a TTL of ARGV[3] ms only
// while KEYS[1] still holds ARGV[1] ("" meaning unset).
var storeIfGeneration = redis.NewScript(`
    local cur = redis.call('GET', KEYS[1])
    if (cur or '') ~= ARGV[1] then
        return 0
    end
    redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
    return 1
`)

// invalidate bumps the generation, so fills already in flight are
// discarded, then drops every stored entry.
func invalidate(ctx context.Context, rdb redis.UniversalClient, prefix string) (int, error) {
    if err := rdb.Incr(ctx, generationKey(prefix)).Err(); err != nil {
        return 0, err
    }
    return purgePrefix(ctx, rdb, prefix)
}

// purgePrefix deletes every key under prefix using SCAN so Redis is never
// blocked by a KEYS call.
func purgePrefix(ctx context.Context, rdb redis.UniversalClient, prefix string) (int, error) {
    var (
        cursor  uint64
        removed int
    )
    for {
        keys, next, err := rdb.Scan(ctx, cursor, prefix+":*", 200).Result()
        if err != nil {
            return removed, err
        }
        if len(keys) > 0 {
            n, err := rdb.Del(ctx, keys...).Result()
            if err != nil {
                return removed, err
            }
            removed += int(n)
        }
        if next == 0 {
            return removed, nil
        }
        cursor = next
    }
}
