// internal/cache/manager.go
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/common/metrics"
)

// Manager memoizes pipeline results in Redis with per-category TTLs. The
// cache is best-effort: when the store is unreachable every Get is a miss and
// every Set is a failed no-op, so callers can always recompute.
type Manager struct {
	client *redis.Client
	cfg    config.CacheConfig
	logger logger.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
	errors  atomic.Int64
}

// Stats is a snapshot of the manager's counters.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Sets    int64   `json:"sets"`
	Deletes int64   `json:"deletes"`
	Errors  int64   `json:"errors"`
	HitRate float64 `json:"hitRate"`
}

func NewManager(client *redis.Client, cfg config.CacheConfig, log logger.Logger) *Manager {
	return &Manager{
		client: client,
		cfg:    cfg,
		logger: log.WithFields(map[string]interface{}{"component": "cache"}),
	}
}

// Key builds the deterministic fingerprint for one logical call: the md5 of
// the operation name, the positional args in order, and the keyword args in
// sorted key order. The same logical call always hashes to the same key.
func (m *Manager) Key(operation string, args []string, kwargs map[string]string) string {
	parts := make([]string, 0, 1+len(args)+len(kwargs))
	parts = append(parts, operation)
	parts = append(parts, args...)

	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+":"+kwargs[k])
	}

	sum := md5.Sum([]byte(strings.Join(parts, "|")))
	return m.cfg.KeyPrefix + ":" + operation + ":" + hex.EncodeToString(sum[:])
}

// Get returns the raw cached value. Absent, expired and store-failure cases
// are all reported as a plain miss.
func (m *Manager) Get(ctx context.Context, key string) (string, bool) {
	if !m.cfg.Enabled {
		return "", false
	}

	value, err := m.client.Get(ctx, key).Result()
	if err == redis.Nil {
		m.misses.Add(1)
		metrics.CacheOperations.WithLabelValues("get", "miss").Inc()
		return "", false
	}
	if err != nil {
		m.errors.Add(1)
		m.misses.Add(1)
		metrics.CacheOperations.WithLabelValues("get", "error").Inc()
		m.logger.Warn("cache get failed", map[string]interface{}{"key": key, "error": err})
		return "", false
	}

	m.hits.Add(1)
	metrics.CacheOperations.WithLabelValues("get", "hit").Inc()
	return value, true
}

// GetJSON unmarshals a cached JSON value into dest.
func (m *Manager) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := m.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		m.logger.Warn("cache entry not decodable, dropping", map[string]interface{}{"key": key, "error": err})
		m.Delete(ctx, key)
		return false
	}
	return true
}

// Set stores a JSON-serialized value under the category's TTL. A zero ttl
// picks the category default; a positive ttl overrides it.
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, category string) bool {
	if !m.cfg.Enabled {
		return false
	}

	if ttl <= 0 {
		ttl = m.CategoryTTL(category)
	}

	payload, err := json.Marshal(value)
	if err != nil {
		m.errors.Add(1)
		m.logger.Warn("cache value not serializable", map[string]interface{}{"key": key, "error": err})
		return false
	}

	if err := m.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		m.errors.Add(1)
		metrics.CacheOperations.WithLabelValues("set", "error").Inc()
		m.logger.Warn("cache set failed", map[string]interface{}{"key": key, "error": err})
		return false
	}

	m.sets.Add(1)
	metrics.CacheOperations.WithLabelValues("set", "ok").Inc()
	m.logger.Debug("cache set", map[string]interface{}{"key": key, "ttl": ttl.String(), "category": category})
	return true
}

// Delete removes one key.
func (m *Manager) Delete(ctx context.Context, key string) bool {
	if !m.cfg.Enabled {
		return false
	}

	n, err := m.client.Del(ctx, key).Result()
	if err != nil {
		m.errors.Add(1)
		metrics.CacheOperations.WithLabelValues("delete", "error").Inc()
		return false
	}
	if n > 0 {
		m.deletes.Add(1)
		metrics.CacheOperations.WithLabelValues("delete", "ok").Inc()
	}
	return n > 0
}

// ClearCategory deletes every key under one category prefix and returns how
// many were removed.
func (m *Manager) ClearCategory(ctx context.Context, category string) int {
	return m.ClearPattern(ctx, m.cfg.KeyPrefix+":"+category+":*")
}

// ClearPattern deletes every key matching a glob pattern via SCAN.
func (m *Manager) ClearPattern(ctx context.Context, pattern string) int {
	if !m.cfg.Enabled {
		return 0
	}

	deleted := 0
	iter := m.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := m.client.Del(ctx, iter.Val()).Err(); err == nil {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		m.errors.Add(1)
		m.logger.Warn("cache pattern clear failed", map[string]interface{}{"pattern": pattern, "error": err})
	}
	if deleted > 0 {
		m.deletes.Add(int64(deleted))
		m.logger.Info("cache entries cleared", map[string]interface{}{"pattern": pattern, "count": deleted})
	}
	return deleted
}

// CategoryTTL resolves the TTL for one category.
func (m *Manager) CategoryTTL(category string) time.Duration {
	if seconds, ok := m.cfg.TTLs[category]; ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return time.Duration(m.cfg.DefaultTTL) * time.Second
}

// IsAvailable pings the store.
func (m *Manager) IsAvailable(ctx context.Context) bool {
	if !m.cfg.Enabled || m.client == nil {
		return false
	}
	return m.client.Ping(ctx).Err() == nil
}

// Stats returns a snapshot of the counters with the derived hit rate.
func (m *Manager) Stats() Stats {
	hits := m.hits.Load()
	misses := m.misses.Load()
	stats := Stats{
		Hits:    hits,
		Misses:  misses,
		Sets:    m.sets.Load(),
		Deletes: m.deletes.Load(),
		Errors:  m.errors.Load(),
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
