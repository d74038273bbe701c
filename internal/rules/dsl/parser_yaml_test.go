// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

const simpleApprovalYAML = `
name: simple-approval
description: approve if credit and income clear the bar
inputs:
  - creditScore
  - annualIncome
when:
  - creditScore at_least 700
  - annualIncome at_least 50000
then:
  - set eligible to true
  - set tier to "STANDARD"
else:
  - set eligible to false
`

func TestParseRuleSetSimplifiedForm(t *testing.T) {
	rs, diags := dsl.ParseRuleSet([]byte(simpleApprovalYAML))
	require.NotNil(t, rs)
	for _, d := range diags {
		require.NotEqual(t, dsl.SeverityFatal, d.Severity, "unexpected fatal diagnostic: %+v", d)
	}
	assert.Equal(t, "simple-approval", rs.Name)
	assert.Equal(t, dsl.FormWhenThenElse, rs.Form)
	require.Len(t, rs.When, 2)
	require.Len(t, rs.Then, 2)
	require.Len(t, rs.Else, 1)
	assert.Equal(t, dsl.CondComparison, rs.When[0].Kind)
	assert.Equal(t, dsl.OpGe, rs.When[0].CompareOp)
}

const structuredYAML = `
name: structured-rule
inputs: [creditScore]
conditions:
  if:
    and:
      - compare: {left: creditScore, op: at_least, right: 700}
  then:
    - set eligible to true
  else:
    - set eligible to false
`

func TestParseRuleSetStructuredForm(t *testing.T) {
	rs, diags := dsl.ParseRuleSet([]byte(structuredYAML))
	require.NotNil(t, rs)
	for _, d := range diags {
		require.NotEqual(t, dsl.SeverityFatal, d.Severity, "unexpected fatal diagnostic: %+v", d)
	}
	assert.Equal(t, dsl.FormConditions, rs.Form)
	require.NotNil(t, rs.Condition)
	assert.Equal(t, dsl.CondLogical, rs.Condition.Kind)
	assert.Equal(t, dsl.LogicalAnd, rs.Condition.LogicalOp)
}

const rulesListYAML = `
name: multi-rule
inputs: [creditScore]
rules:
  - name: gate
    when: [creditScore at_least 700]
    then: [set eligible to true]
`

func TestParseRuleSetRulesListForm(t *testing.T) {
	rs, diags := dsl.ParseRuleSet([]byte(rulesListYAML))
	require.NotNil(t, rs)
	for _, d := range diags {
		require.NotEqual(t, dsl.SeverityFatal, d.Severity, "unexpected fatal diagnostic: %+v", d)
	}
	assert.Equal(t, dsl.FormRulesList, rs.Form)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, "gate", rs.Rules[0].Name)
}

func TestParseRuleSetRejectsUpperSnakeInput(t *testing.T) {
	_, diags := dsl.ParseRuleSet([]byte(`
name: bad-input
inputs: [CREDIT_SCORE]
when: [CREDIT_SCORE at_least 700]
then: [set eligible to true]
`))
	foundFatal := false
	for _, d := range diags {
		if d.Code == "NAME_001" {
			foundFatal = true
		}
	}
	assert.True(t, foundFatal, "expected NAME_001 diagnostic for UPPER_SNAKE input")
}
