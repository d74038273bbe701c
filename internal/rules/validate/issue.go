// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package validate runs the six ordered validator passes from SPEC_FULL.md
// §4.3 over a parsed dsl.RuleSet: naming, syntax shape, dependency/order,
// circular dependency, logic, and best practices. Each pass is grounded on
// the teacher's internal/access/policy/compiler.go recursive-descent AST
// walkers (collectAttrRefs, detectConditionWarnings), generalized from
// single-policy ABAC checks to whole-RuleSet checks across three surface
// forms.
package validate

import "github.com/holomush/ruleforge/internal/rules/dsl"

// Severity mirrors dsl.DiagnosticSeverity but is spelled out locally so
// this package's public API doesn't force callers to import dsl just for
// the severity enum.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Issue is one validator finding: a stable code (e.g. "DEP_002"), a
// severity, a location, a human message, an optional longer description,
// and an optional suggested rewrite.
type Issue struct {
	Code        string
	Severity    Severity
	Location    dsl.SourceLocation
	Message     string
	Description string
	Suggestion  string
}

// Report is the full output of running the validator pipeline: every
// collected Issue plus the deterministic quality score derived from them.
type Report struct {
	Issues []Issue
	Score  int
}

// scoreWeights are the severity-weighted point deductions used to derive
// the [0,100] quality score; deterministic and independent of issue
// order, per §4.3.
var scoreWeights = map[Severity]int{
	SeverityCritical: 25,
	SeverityError:    10,
	SeverityWarning:  3,
	SeverityInfo:     1,
}

func computeScore(issues []Issue) int {
	score := 100
	for _, i := range issues {
		score -= scoreWeights[i.Severity]
	}
	if score < 0 {
		return 0
	}
	return score
}

func (r *Report) HasFatal() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
