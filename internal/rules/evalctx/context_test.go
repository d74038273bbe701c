// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package evalctx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/value"
)

func TestLookupPriorityComputedShadowsInput(t *testing.T) {
	ctx := New(map[string]value.Value{"age": value.Int(30)}, nil)
	ctx.SetComputed("age", value.Int(99))

	v, ok := ctx.Lookup("age", dsl.ClassUnknown)
	require.True(t, ok)
	d, ok := v.AsDecimal()
	require.True(t, ok)
	want, _ := value.Int(99).AsDecimal()
	require.True(t, d.Equal(want))
}

func TestLookupMissingReturnsFalse(t *testing.T) {
	ctx := New(nil, nil)
	_, ok := ctx.Lookup("nothing", dsl.ClassUnknown)
	require.False(t, ok)
}

func TestRecursionDepthGuard(t *testing.T) {
	ctx := New(nil, nil)
	var err error
	for i := 0; i < MaxRecursionDepth; i++ {
		err = ctx.Enter()
		require.NoError(t, err)
	}
	err = ctx.Enter()
	require.Error(t, err)
}

func TestCircuitBreakerMessageLastWriteWins(t *testing.T) {
	ctx := New(nil, nil)
	ctx.TripCircuitBreaker("first")
	ctx.TripCircuitBreaker("second")
	broken, msg := ctx.CircuitBroken()
	require.True(t, broken)
	require.Equal(t, "second", msg)
}
