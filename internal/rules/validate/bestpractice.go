// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

const (
	minNameLength    = 3
	maxListLiteral   = 500
	hotPathFunctions = "matches,not_matches"
)

// bestPractices is validator pass 6: name length, description present,
// high-cost operations (regex) inside conditions, extreme list sizes.
func bestPractices(rs *dsl.RuleSet) []Issue {
	var issues []Issue

	if len(rs.Name) > 0 && len(rs.Name) < minNameLength {
		issues = append(issues, Issue{Code: "BP_001", Severity: SeverityInfo, Message: "rule name is very short"})
	}
	if rs.Description == "" {
		issues = append(issues, Issue{Code: "BP_002", Severity: SeverityInfo, Message: "add a description for operator readability"})
	}
	if rs.Version != "" {
		if _, err := semver.NewVersion(rs.Version); err != nil {
			issues = append(issues, Issue{
				Code: "BP_005", Severity: SeverityWarning,
				Message: fmt.Sprintf("version %q is not a valid semantic version: %v", rs.Version, err),
			})
		}
	}

	var inspect func(c *dsl.Condition)
	inspect = func(c *dsl.Condition) {
		if c == nil {
			return
		}
		switch c.Kind {
		case dsl.CondComparison:
			if c.CompareOp == dsl.OpMatches || c.CompareOp == dsl.OpNotMatches {
				issues = append(issues, Issue{
					Code: "BP_003", Severity: SeverityWarning,
					Location: c.Loc,
					Message:  "regex comparison in a hot evaluation path; consider precomputing or caching the pattern",
				})
			}
			if c.CompareRight != nil && c.CompareRight.Kind == dsl.ExprLiteral {
				if list, ok := c.CompareRight.Literal.AsList(); ok && len(list) > maxListLiteral {
					issues = append(issues, Issue{
						Code: "BP_004", Severity: SeverityWarning,
						Location: c.Loc,
						Message:  fmt.Sprintf("inline list literal has %d elements; consider a constant-store lookup instead", len(list)),
					})
				}
			}
		case dsl.CondLogical:
			for _, child := range c.Children {
				inspect(child)
			}
		}
	}
	for _, c := range rs.When {
		inspect(c)
	}
	inspect(rs.Condition)
	for _, sr := range rs.Rules {
		inspect(sr.Condition)
	}

	return issues
}
