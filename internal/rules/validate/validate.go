// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import "github.com/holomush/ruleforge/internal/rules/dsl"

// passFunc is the shape shared by all six ordered passes.
type passFunc func(*dsl.RuleSet) []Issue

// Run executes the six validator passes in the fixed order naming,
// syntax shape, dependency/order, circular dependency, logic, best
// practices, and derives the deterministic quality score from the
// accumulated issues.
func Run(rs *dsl.RuleSet) *Report {
	passes := []passFunc{naming, syntaxShape, dependency, circular, logic, bestPractices}

	report := &Report{}
	for _, pass := range passes {
		report.Issues = append(report.Issues, pass(rs)...)
	}
	report.Score = computeScore(report.Issues)
	return report
}
