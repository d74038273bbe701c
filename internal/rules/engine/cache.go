// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package engine implements the top-level Rule Engine orchestration from
// SPEC_FULL.md §5: the AST/constants cache, the bounded-concurrency batch
// evaluator, and the Engine that wires parse -> validate -> resolve ->
// evaluate into one call. Grounded on the teacher's
// internal/access/policy.Cache (Snapshot/Reload/IsStale atomic-swap
// discipline) and policy.Engine (single Evaluate entry point fanning out
// to a resolver and an evaluator), generalized from a LISTEN/NOTIFY-backed
// policy cache to a pure TTL + explicit-invalidation rule cache since no
// equivalent notification channel exists for rule text.
package engine

import (
	"sync"
	"time"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/resolve"
)

// Default cache sizing, named the way the teacher's cache.go names its
// defaultStalenessThreshold/defaultReconnect* constants.
const (
	defaultASTCacheSize       = 1024
	defaultASTCacheTTL        = 10 * time.Minute
	defaultConstantsCacheSize = 512
	defaultConstantsCacheTTL  = 30 * time.Second
)

type cacheEntry[V any] struct {
	value      V
	lastAccess time.Time
}

// boundedCache is a size- and time-to-idle-bounded map, evicting the
// least-recently-accessed entry once maxSize is exceeded and treating an
// entry as expired once it has gone untouched for longer than ttl.
type boundedCache[V any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*cacheEntry[V]
}

func newBoundedCache[V any](maxSize int, ttl time.Duration) *boundedCache[V] {
	return &boundedCache[V]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*cacheEntry[V]),
	}
}

func (c *boundedCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Since(e.lastAccess) > c.ttl {
		delete(c.entries, key)
		return zero, false
	}
	e.lastAccess = time.Now()
	return e.value, true
}

func (c *boundedCache[V]) Put(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry[V]{value: v, lastAccess: time.Now()}
	c.evictLocked()
}

func (c *boundedCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *boundedCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops the least-recently-accessed entry until the cache is
// back within maxSize. Called with c.mu held.
func (c *boundedCache[V]) evictLocked() {
	for len(c.entries) > c.maxSize {
		var oldestKey string
		var oldestAt time.Time
		first := true
		for k, e := range c.entries {
			if first || e.lastAccess.Before(oldestAt) {
				oldestKey, oldestAt, first = k, e.lastAccess, false
			}
		}
		if oldestKey == "" {
			return
		}
		delete(c.entries, oldestKey)
	}
}

// CacheOption configures Cache behavior, mirroring the teacher's
// CacheOption/cacheConfig functional-options pair.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	astMaxSize       int
	astTTL           time.Duration
	constantsMaxSize int
	constantsTTL     time.Duration
}

// WithASTCacheLimits overrides the parsed-RuleSet cache's size and
// time-to-idle.
func WithASTCacheLimits(maxSize int, ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.astMaxSize = maxSize
		c.astTTL = ttl
	}
}

// WithConstantsCacheLimits overrides the resolved-constants cache's size
// and time-to-idle. Per SPEC_FULL.md §5 this defaults to a shorter TTL
// than the AST cache, since constants change independently of rule text.
func WithConstantsCacheLimits(maxSize int, ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.constantsMaxSize = maxSize
		c.constantsTTL = ttl
	}
}

// Cache holds the parsed-RuleSet cache and the resolved-constants cache
// behind one handle, keyed by caller-supplied cache keys (typically a
// rule code or a content hash of the rule YAML).
type Cache struct {
	asts      *boundedCache[*dsl.RuleSet]
	constants *boundedCache[*resolve.Result]
}

// NewCache builds a Cache with the given options, or the package defaults
// if none are given.
func NewCache(opts ...CacheOption) *Cache {
	cfg := cacheConfig{
		astMaxSize:       defaultASTCacheSize,
		astTTL:           defaultASTCacheTTL,
		constantsMaxSize: defaultConstantsCacheSize,
		constantsTTL:     defaultConstantsCacheTTL,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Cache{
		asts:      newBoundedCache[*dsl.RuleSet](cfg.astMaxSize, cfg.astTTL),
		constants: newBoundedCache[*resolve.Result](cfg.constantsMaxSize, cfg.constantsTTL),
	}
}

func (c *Cache) GetRuleSet(key string) (*dsl.RuleSet, bool) {
	rs, ok := c.asts.Get(key)
	if ok {
		cacheHitsCounter.WithLabelValues("ast_hit").Inc()
	} else {
		cacheHitsCounter.WithLabelValues("ast_miss").Inc()
	}
	return rs, ok
}

func (c *Cache) PutRuleSet(key string, rs *dsl.RuleSet) {
	c.asts.Put(key, rs)
}

// InvalidateRuleSet drops a cached RuleSet, e.g. once the caller knows the
// backing rule artifact has been republished.
func (c *Cache) InvalidateRuleSet(key string) {
	c.asts.Invalidate(key)
}

func (c *Cache) GetConstants(key string) (*resolve.Result, bool) {
	r, ok := c.constants.Get(key)
	if ok {
		cacheHitsCounter.WithLabelValues("constants_hit").Inc()
	} else {
		cacheHitsCounter.WithLabelValues("constants_miss").Inc()
	}
	return r, ok
}

func (c *Cache) PutConstants(key string, r *resolve.Result) {
	c.constants.Put(key, r)
}

func (c *Cache) InvalidateConstants(key string) {
	c.constants.Invalidate(key)
}
