// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

// syntaxShape is validator pass 2: name length, description and inputs
// present, risk-level enum constrained, the declared form's body
// non-empty, and outputs declared — fields already type-checked by the
// parser, re-verified here as the pass that a quality-score consumer can
// point a user at directly.
func syntaxShape(rs *dsl.RuleSet) []Issue {
	var issues []Issue

	if len(rs.Name) < 3 {
		issues = append(issues, Issue{Code: "SYN_001", Severity: SeverityCritical, Message: "name must be at least 3 characters"})
	}
	if rs.Description == "" {
		issues = append(issues, Issue{Code: "SYN_010", Severity: SeverityWarning, Message: "description is recommended"})
	}
	if len(rs.Inputs) == 0 {
		issues = append(issues, Issue{Code: "SYN_004", Severity: SeverityCritical, Message: "inputs must be non-empty"})
	}
	switch rs.Metadata.RiskLevel {
	case "", dsl.RiskLow, dsl.RiskMedium, dsl.RiskHigh, dsl.RiskCritical:
	default:
		issues = append(issues, Issue{
			Code: "SYN_003", Severity: SeverityError,
			Message: fmt.Sprintf("riskLevel %q must be one of LOW, MEDIUM, HIGH, CRITICAL", rs.Metadata.RiskLevel),
		})
	}

	switch rs.Form {
	case dsl.FormWhenThenElse:
		if len(rs.When) == 0 {
			issues = append(issues, Issue{Code: "SYN_011", Severity: SeverityCritical, Message: "when form declared but when-list is empty"})
		}
		if len(rs.Then) == 0 && len(rs.Else) == 0 {
			issues = append(issues, Issue{Code: "SYN_012", Severity: SeverityError, Message: "rule produces no actions on either branch"})
		}
	case dsl.FormConditions:
		if rs.Condition == nil {
			issues = append(issues, Issue{Code: "SYN_008", Severity: SeverityCritical, Message: "conditions.if is required"})
		}
	case dsl.FormRulesList:
		if len(rs.Rules) == 0 {
			issues = append(issues, Issue{Code: "SYN_013", Severity: SeverityCritical, Message: "rules list is empty"})
		}
	}

	if len(rs.Output) == 0 {
		issues = append(issues, Issue{Code: "SYN_014", Severity: SeverityWarning, Message: "no declared outputs; the full computed-variable set will still be returned"})
	}

	return issues
}
