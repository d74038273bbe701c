// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package value_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/value"
)

func TestTruthy(t *testing.T) {
	assert.False(t, value.Null().Truthy())
	assert.False(t, value.Bool(false).Truthy())
	assert.True(t, value.Bool(true).Truthy())
	assert.False(t, value.Int(0).Truthy())
	assert.True(t, value.Int(1).Truthy())
	assert.False(t, value.Text("").Truthy())
	assert.True(t, value.Text("x").Truthy())
	assert.True(t, value.List(nil).Truthy())
}

func TestEqualNumericTextCoercion(t *testing.T) {
	assert.True(t, value.Equal(value.Int(5), value.Text("5")))
	assert.True(t, value.Equal(value.Text("5.0"), value.Int(5)))
	assert.False(t, value.Equal(value.Text("abc"), value.Int(5)))
}

func TestEqualNullOnlyEqualsNull(t *testing.T) {
	assert.True(t, value.Equal(value.Null(), value.Null()))
	assert.False(t, value.Equal(value.Null(), value.Text("")))
}

func TestDecimalArithmeticExact(t *testing.T) {
	a, _ := value.CoerceDecimal(value.Float(0.4))
	b, _ := value.CoerceDecimal(value.Float(1.25))
	got := a.Mul(b)
	want, err := decimal.NewFromString("0.5")
	require.NoError(t, err)
	assert.True(t, got.Equal(want), "expected exact decimal 0.5, got %s", got)
}

func TestPositiveInfinitySentinel(t *testing.T) {
	assert.True(t, value.PositiveInfinity.IsInfinity())
	assert.Equal(t, "Infinity", value.Stringify(value.PositiveInfinity))
}

func TestMapFromGoDeterministicOrder(t *testing.T) {
	v := value.MapFromGo(map[string]any{"b": 1, "a": 2})
	_, order, ok := v.AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, order)
}
