// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

// cacheKeyPayload is the canonical context fingerprint. Only fields that
// change the scoring outcome participate.
type cacheKeyPayload struct {
	TimeOfDay    taste.TimeOfDay `json:"time_of_day"`
	TemperatureC float64         `json:"temperature_c"`
	Humidity     float64         `json:"humidity"`
	Mood         taste.Mood      `json:"mood"`
	Weekday      int             `json:"weekday"`
}

// cacheKey hashes the situational context into a hex digest. Two contexts
// with the same fingerprint share a cache slot.
func cacheKey(sit learning.Situation) string {
	payload := cacheKeyPayload{
		TimeOfDay: sit.TimeOfDay,
		Mood:      sit.AnticipatedMood,
		Weekday:   sit.Weekday,
	}
	if sit.Weather != nil {
		payload.TemperatureC = sit.Weather.TemperatureC
		payload.Humidity = sit.Weather.Humidity
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		// The payload is plain scalars; marshal cannot realistically
		// fail, but a degenerate key only costs a cache miss.
		return ""
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// resultCache is a TTL cache of serialized recommendation sets keyed by
// context fingerprint. Stale or undecodable payloads are misses.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	logger  zerolog.Logger
}

func newResultCache(ttl time.Duration, logger zerolog.Logger) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		logger:  logger,
	}
}

// get returns the cached recommendation set for key, or nil on miss. A
// corrupt payload is logged and dropped, never surfaced as an error.
func (c *resultCache) get(key string, now time.Time) []Recommendation {
	if key == "" {
		return nil
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}

	var recs []Recommendation
	if err := json.Unmarshal(entry.payload, &recs); err != nil {
		c.logger.Warn().Err(err).Str("cache_key", key).
			Msg("Dropping corrupt recommendation cache entry")
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil
	}
	return recs
}

// put stores a recommendation set under key. Serialization failures are
// logged and swallowed; caching never fails a request.
func (c *resultCache) put(key string, recs []Recommendation, now time.Time) {
	if key == "" {
		return
	}

	payload, err := json.Marshal(recs)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Skipping recommendation cache write")
		return
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: payload, expiresAt: now.Add(c.ttl)}
	c.mu.Unlock()
}
