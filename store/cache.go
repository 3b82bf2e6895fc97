package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"replydesk/sanitize"
)

// cacheKeyPrefix namespaces analysis entries inside the shared kv store.
const cacheKeyPrefix = "sentiment."

// envelope wraps a cached analysis with its write time so expiry can be
// checked on read. The kv store itself has no TTL concept.
type envelope struct {
	Analysis string    `json:"analysis"`
	CachedAt time.Time `json:"cached_at"`
}

// AnalysisCache maps a normalized email thread to the raw sentiment analysis
// previously obtained for it, avoiding redundant provider calls.
//
// Keys are derived deterministically from the normalized thread text
// (whitespace-collapsed, case-folded, hashed), so threads differing only in
// casing or incidental whitespace hit the same entry.
//
// A bounded LRU sits in front of the backing Store; the Store is the source
// of truth and may be durable. Writes are idempotent upserts, so races
// between two writers for the same key are harmless.
type AnalysisCache struct {
	backing Store
	front   *lru.Cache[string, envelope]
	ttl     time.Duration
	now     func() time.Time
}

// NewAnalysisCache creates a cache over backing with at most maxEntries kept
// in memory. ttl of 0 disables expiry.
func NewAnalysisCache(backing Store, maxEntries int, ttl time.Duration) (*AnalysisCache, error) {
	return newAnalysisCacheWithClock(backing, maxEntries, ttl, time.Now)
}

func newAnalysisCacheWithClock(backing Store, maxEntries int, ttl time.Duration, now func() time.Time) (*AnalysisCache, error) {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	front, err := lru.New[string, envelope](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache front: %w", err)
	}
	return &AnalysisCache{
		backing: backing,
		front:   front,
		ttl:     ttl,
		now:     now,
	}, nil
}

// Key derives the cache key for a thread. Exported so tests and callers can
// assert key equivalence for normalized variants.
//
// Example:
//
//	store.Key("Hello  World") == store.Key("hello world")
func Key(thread string) string {
	normalized := sanitize.Normalize(thread)
	sum := sha256.Sum256([]byte(normalized))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached raw analysis for thread, if present and unexpired.
// Backing store read errors are treated as misses: the cache is an
// optimization, never a reason to fail an operation.
func (c *AnalysisCache) Get(thread string) (string, bool) {
	key := Key(thread)

	if env, ok := c.front.Get(key); ok {
		if c.fresh(env) {
			return env.Analysis, true
		}
		c.front.Remove(key)
	}

	raw, ok, err := c.backing.Get(key)
	if err != nil || !ok {
		return "", false
	}
	var env envelope
	if json.Unmarshal([]byte(raw), &env) != nil || env.Analysis == "" {
		return "", false
	}
	if !c.fresh(env) {
		return "", false
	}
	c.front.Add(key, env)
	return env.Analysis, true
}

// Put stores the raw analysis for thread in both tiers.
func (c *AnalysisCache) Put(thread, rawAnalysis string) error {
	key := Key(thread)
	env := envelope{Analysis: rawAnalysis, CachedAt: c.now()}

	c.front.Add(key, env)

	encoded, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.backing.Set(key, string(encoded))
}

// fresh reports whether an envelope is inside the TTL. Zero TTL means no
// expiry.
func (c *AnalysisCache) fresh(env envelope) bool {
	if c.ttl <= 0 {
		return true
	}
	return c.now().Sub(env.CachedAt) < c.ttl
}
