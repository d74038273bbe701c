// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
	"github.com/holomush/ruleforge/internal/rules/value"
)

const simpleApprovalYAML = `
name: simpleApproval
inputs: [creditScore, annualIncome]
when:
  - creditScore at_least 700
  - annualIncome at_least 50000
then:
  - set eligible to true
  - set tier to "STANDARD"
else:
  - set eligible to false
`

func mustParse(t *testing.T, src string) *dsl.RuleSet {
	t.Helper()
	rs, diags := dsl.ParseRuleSet([]byte(src))
	require.Empty(t, diags)
	require.NotNil(t, rs)
	return rs
}

func TestEvalRuleSetSimpleApproval(t *testing.T) {
	rs := mustParse(t, simpleApprovalYAML)
	ec := evalctx.New(map[string]value.Value{
		"creditScore":   value.Int(720),
		"annualIncome":  value.Int(75000),
	}, nil)

	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
	require.True(t, resp.Output["eligible"].Truthy())
	s, _ := resp.Output["tier"].AsText()
	require.Equal(t, "STANDARD", s)
}

func TestEvalRuleSetConstantLookup(t *testing.T) {
	src := `
name: constantApproval
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
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{
		"creditScore":  value.Int(660),
		"annualIncome": value.Int(75000),
	}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
}

func TestEvalDivisionByZeroIsFatal(t *testing.T) {
	src := `
name: divByZero
inputs: [x]
when:
  - x at_least 0
then:
  - calculate result as x / 0
`
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{"x": value.Int(5)}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.False(t, resp.Success)
	require.Contains(t, resp.Error, "DIVISION_BY_ZERO")
}

func TestEvalCircuitBreakerHaltsFurtherActions(t *testing.T) {
	src := `
name: circuitBreakerTest
inputs: [risk]
when:
  - risk at_least 0
then:
  - set tier to "X"
  - circuit_breaker: {trigger: true, message: "risk too high"}
  - set tier to "Y"
`
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{"risk": value.Int(1)}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.CircuitBreakerTriggered)
	require.Equal(t, "risk too high", resp.CircuitBreakerMessage)
	s, _ := resp.Output["tier"].AsText()
	require.Equal(t, "X", s)
}

func TestEvalBetweenLiteralBounds(t *testing.T) {
	src := `
name: betweenTest
inputs: [score]
when:
  - score between 1 and 10
then:
  - set inRange to true
else:
  - set inRange to false
`
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{"score": value.Int(5)}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
	require.True(t, resp.Output["inRange"].Truthy())
}

func TestEvalBetweenNonLiteralBounds(t *testing.T) {
	src := `
name: betweenRefTest
inputs: [score, lo, hi]
when:
  - score between lo and hi
then:
  - set inRange to true
else:
  - set inRange to false
`
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{
		"score": value.Int(5),
		"lo":    value.Int(1),
		"hi":    value.Int(10),
	}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
	require.True(t, resp.Output["inRange"].Truthy())
}

func TestEvalInListNonLiteralBounds(t *testing.T) {
	src := `
name: inListRefTest
inputs: [tier, allowedA, allowedB]
when:
  - tier in_list [allowedA, allowedB]
then:
  - set allowed to true
else:
  - set allowed to false
`
	rs := mustParse(t, src)
	ec := evalctx.New(map[string]value.Value{
		"tier":     value.Text("GOLD"),
		"allowedA": value.Text("GOLD"),
		"allowedB": value.Text("SILVER"),
	}, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	require.True(t, resp.ConditionResult)
	require.True(t, resp.Output["allowed"].Truthy())
}

func TestEvalArithmeticWithConstantExact(t *testing.T) {
	src := `
name: riskFactor
inputs: []
constants:
  - name: RISK_MULTIPLIER
    type: NUMBER
    value: 1.25
when:
  - "true"
then:
  - calculate debt_to_income as 0.4
  - calculate risk_factor as debt_to_income * RISK_MULTIPLIER
`
	rs := mustParse(t, src)
	ec := evalctx.New(nil, nil)
	resp := EvalRuleSet(context.Background(), ec, rs)
	require.True(t, resp.Success)
	d, ok := resp.Output["risk_factor"].AsDecimal()
	require.True(t, ok)
	require.Equal(t, "0.5", d.String())
}
