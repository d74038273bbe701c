// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBoundedCacheEvictsLeastRecentlyAccessed(t *testing.T) {
	c := newBoundedCache[int](2, time.Hour)
	c.Put("a", 1)
	c.Put("b", 2)
	_, _ = c.Get("a") // touch a so b is now the least-recently-accessed
	c.Put("c", 3)

	_, ok := c.Get("b")
	require.False(t, ok)
	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestBoundedCacheExpiresOnTTI(t *testing.T) {
	c := newBoundedCache[int](10, time.Millisecond)
	c.Put("a", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestBoundedCacheInvalidate(t *testing.T) {
	c := newBoundedCache[int](10, time.Hour)
	c.Put("a", 1)
	c.Invalidate("a")
	_, ok := c.Get("a")
	require.False(t, ok)
}

func TestCacheTracksASTsAndConstantsSeparately(t *testing.T) {
	cache := NewCache()
	cache.PutRuleSet("rule-1", nil)
	_, ok := cache.GetRuleSet("rule-1")
	require.True(t, ok)
	_, ok = cache.GetConstants("rule-1")
	require.False(t, ok)
}
