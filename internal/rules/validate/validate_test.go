// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/validate"
)

func mustParse(t *testing.T, yamlText string) *dsl.RuleSet {
	t.Helper()
	rs, diags := dsl.ParseRuleSet([]byte(yamlText))
	for _, d := range diags {
		require.NotEqual(t, dsl.SeverityFatal, d.Severity, "unexpected fatal parse diagnostic: %+v", d)
	}
	require.NotNil(t, rs)
	return rs
}

func TestValidateOrderOfOperationsError(t *testing.T) {
	rs := mustParse(t, `
name: order-violation
inputs: [annualIncome, totalDebt]
when:
  - debt_to_income less_than 0.4
then:
  - calculate debt_to_income as totalDebt / annualIncome
`)
	report := validate.Run(rs)
	var found bool
	for _, i := range report.Issues {
		if i.Code == "DEP_002" {
			found = true
		}
	}
	assert.True(t, found, "expected a DEP_002 order-of-operations issue")
	assert.True(t, report.HasFatal())
}

func TestValidateCleanRulePasses(t *testing.T) {
	rs := mustParse(t, `
name: simple-approval
description: approve on credit and income
inputs: [creditScore, annualIncome]
when:
  - creditScore at_least 700
  - annualIncome at_least 50000
then:
  - set eligible to true
  - set tier to "STANDARD"
else:
  - set eligible to false
output:
  eligible: eligible
  tier: tier
`)
	report := validate.Run(rs)
	assert.False(t, report.HasFatal())
	assert.Equal(t, 100, report.Score)
}

func TestValidateContradictoryBounds(t *testing.T) {
	rs := mustParse(t, `
name: contradiction-rule
inputs: [x]
when:
  - x greater_than 10
  - x less_than 5
then:
  - set eligible to true
`)
	report := validate.Run(rs)
	var found bool
	for _, i := range report.Issues {
		if i.Code == "LOG_003" {
			found = true
		}
	}
	assert.True(t, found, "expected a LOG_003 contradiction issue")
}
