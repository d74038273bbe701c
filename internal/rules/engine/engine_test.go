// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/store"
	"github.com/holomush/ruleforge/internal/rules/value"
)

const approvalYAML = `
name: simpleApproval
inputs: [creditScore, annualIncome]
constants:
  - name: MIN_CREDIT_SCORE
    type: NUMBER
    value: 650
when:
  - creditScore at_least MIN_CREDIT_SCORE
  - annualIncome at_least 50000
then:
  - set eligible to true
else:
  - set eligible to false
`

func TestEngineEvaluateEndToEnd(t *testing.T) {
	cs := store.NewMemoryConstantStore()
	e := New(cs, NewCache(), nil)

	resp, report, err := e.Evaluate(context.Background(), "simple-approval", []byte(approvalYAML), map[string]value.Value{
		"creditScore":  value.Int(700),
		"annualIncome": value.Int(80000),
	})
	require.NoError(t, err)
	require.NotNil(t, report)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
	require.True(t, resp.Output["eligible"].Truthy())
}

func TestEngineEvaluateReusesCachedRuleSet(t *testing.T) {
	cs := store.NewMemoryConstantStore()
	cache := NewCache()
	e := New(cs, cache, nil)

	_, _, err := e.Evaluate(context.Background(), "cached-rule", []byte(approvalYAML), map[string]value.Value{
		"creditScore":  value.Int(700),
		"annualIncome": value.Int(80000),
	})
	require.NoError(t, err)

	_, ok := cache.GetRuleSet("cached-rule")
	require.True(t, ok)

	// A second call against the same cache key should hit the cache rather
	// than re-parsing; the only way to observe that from the outside is
	// that a corrupted raw document doesn't cause a parse failure.
	resp, _, err := e.Evaluate(context.Background(), "cached-rule", []byte("not: valid: : yaml"), map[string]value.Value{
		"creditScore":  value.Int(700),
		"annualIncome": value.Int(80000),
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

func TestEngineLintReportsFatalOnBadInputName(t *testing.T) {
	cs := store.NewMemoryConstantStore()
	e := New(cs, nil, nil)

	src := `
name: badInputs
inputs: [CreditScore]
when:
  - creditScore at_least 700
then:
  - set eligible to true
`
	_, diags, _, err := e.Lint([]byte(src))
	require.NoError(t, err)
	found := false
	for _, d := range diags {
		if d.Code == "NAME_001" {
			found = true
		}
	}
	require.True(t, found, "expected a NAME_001 diagnostic for the non-camelCase input")
}
