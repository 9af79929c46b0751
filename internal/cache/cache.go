// Package cache keeps hot read-mostly records in memory.
//
// Tree metadata (name and owner) is read on every tree view and every
// 5-second client refresh but changes only when a tree is created, so it is
// served from a freecache segment with a short TTL. Placements and wishes are
// never cached; they must stay fresh for the single-placement guard.
package cache

import (
	"log/slog"
	"time"
	"unsafe"

	"github.com/coocood/freecache"
)

// Store is a byte-oriented key/value cache.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Delete(key string)
}

// HitRecorder is told about every lookup. *metrics.Provider satisfies it.
type HitRecorder interface {
	IncCacheHits()
	IncCacheMisses()
}

// FreeCache is a Store on top of a fixed-size freecache.Cache.
type FreeCache struct {
	cache *freecache.Cache
	ttl   int // seconds
}

// New returns a freecache-backed store of sizeMB megabytes. A non-positive
// size disables caching and returns a Store that never hits.
func New(sizeMB int, ttl time.Duration, logger *slog.Logger) Store {
	if sizeMB <= 0 {
		logger.Info("cache disabled")
		return noopStore{}
	}

	seconds := max(int(ttl.Seconds()), 1)
	logger.Info("cache initialized",
		slog.Int("sizeMB", sizeMB),
		slog.Int("ttlSeconds", seconds),
	)

	return &FreeCache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   seconds,
	}
}

// unsafeStringToBytes converts without allocating. freecache copies keys,
// so the aliasing is never observed.
func unsafeStringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *FreeCache) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get(unsafeStringToBytes(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

// Set drops the entry silently when freecache rejects it (value larger than
// a segment can hold). The caller falls through to the database next time.
func (c *FreeCache) Set(key string, value []byte) {
	_ = c.cache.Set(unsafeStringToBytes(key), value, c.ttl)
}

func (c *FreeCache) Delete(key string) {
	c.cache.Del(unsafeStringToBytes(key))
}

type noopStore struct{}

func (noopStore) Get(string) ([]byte, bool) { return nil, false }
func (noopStore) Set(string, []byte)        {}
func (noopStore) Delete(string)             {}

// instrumented counts hits and misses on an enabled store.
type instrumented struct {
	inner    Store
	recorder HitRecorder
}

// Instrument wraps s so every Get is counted. A disabled store is returned
// as is, otherwise every lookup would show up as a phantom miss.
func Instrument(s Store, recorder HitRecorder) Store {
	if _, disabled := s.(noopStore); disabled || recorder == nil {
		return s
	}
	return &instrumented{inner: s, recorder: recorder}
}

func (c *instrumented) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.recorder.IncCacheHits()
	} else {
		c.recorder.IncCacheMisses()
	}
	return val, ok
}

func (c *instrumented) Set(key string, value []byte) { c.inner.Set(key, value) }
func (c *instrumented) Delete(key string)            { c.inner.Delete(key) }
