package config

import "time"

// CacheConfig tunes the seat-map response cache. The TTL is short by
// default: entries are invalidated explicitly on every committed seat
// mutation, the TTL only bounds staleness from missed invalidations
// (e.g. a mutation committed by another instance while Redis was
// unreachable).
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads seat-map cache settings.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: envBool("SEATMAP_CACHE_ENABLED", true),
		TTL:     envDur("SEATMAP_CACHE_TTL", 10*time.Second),
		Prefix:  getenv("SEATMAP_CACHE_PREFIX", "seatmap"),
	}
}
