package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/tripline/bus-seat-booking/internal/config"
)

// SeatMapCache caches the public seat-map response per bus+schedule in
// Redis. Entries are deleted explicitly whenever a seat mutation
// commits, so the short TTL only covers invalidations lost to Redis
// hiccups or concurrent instances.
type SeatMapCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewSeatMapCache returns the cache. A nil Redis client disables it.
func NewSeatMapCache(cfg config.CacheConfig, rdb *redis.Client) *SeatMapCache {
	return &SeatMapCache{cfg: cfg, rdb: rdb}
}

func (m *SeatMapCache) enabled() bool { return m != nil && m.cfg.Enabled && m.rdb != nil }

func (m *SeatMapCache) key(busID, scheduleID string) string {
	return fmt.Sprintf("%s:%s:%s", m.cfg.Prefix, busID, scheduleID)
}

// Invalidate drops the cached seat map of a bus+schedule. Called after
// every committed hold/booking/cancellation mutation.
func (m *SeatMapCache) Invalidate(ctx context.Context, busID, scheduleID uint64) {
	if !m.enabled() {
		return
	}
	key := m.key(strconv.FormatUint(busID, 10), strconv.FormatUint(scheduleID, 10))
	_ = m.rdb.Del(ctx, key).Err()
}

// bodyCapture forwards writes to the client while keeping a copy for
// the cache.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Middleware serves GET seat maps from Redis when a fresh entry exists
// and stores successful responses otherwise. Cache errors fall through
// to the handler.
func (m *SeatMapCache) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !m.enabled() || c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := m.key(c.Param("busId"), c.Param("scheduleId"))

			if body, err := m.rdb.Get(ctx, key).Bytes(); err == nil && len(body) > 0 {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
			}

			cw := &bodyCapture{ResponseWriter: c.Response().Writer, status: http.StatusOK}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && cw.buf.Len() > 0 {
				_ = m.rdb.Set(context.Background(), key, cw.buf.Bytes(), m.cfg.TTL).Err()
			}
			return nil
		}
	}
}
