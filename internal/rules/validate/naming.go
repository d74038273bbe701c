// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

// naming is validator pass 1: every VariableRef, Set/Calculate target,
// and declared input is checked against its classification regex.
func naming(rs *dsl.RuleSet) []Issue {
	var issues []Issue

	for _, input := range rs.Inputs {
		if dsl.Classify(input) != dsl.ClassInput {
			issues = append(issues, Issue{
				Code: "NAME_001", Severity: SeverityCritical,
				Message:    fmt.Sprintf("declared input %q is not camelCase", input),
				Suggestion: fmt.Sprintf("rename %q to camelCase", input),
			})
		}
	}
	for _, c := range rs.Constants {
		if dsl.Classify(c.Name) != dsl.ClassConstant {
			issues = append(issues, Issue{
				Code: "NAME_002", Severity: SeverityCritical,
				Location:   c.Loc,
				Message:    fmt.Sprintf("inline constant %q is not UPPER_SNAKE", c.Name),
				Suggestion: fmt.Sprintf("rename %q to UPPER_SNAKE", c.Name),
			})
		}
	}

	checkTarget := func(target string, loc dsl.SourceLocation) {
		if !dsl.IsValidActionTarget(target) {
			issues = append(issues, Issue{
				Code: "NAME_003", Severity: SeverityCritical,
				Location:   loc,
				Message:    fmt.Sprintf("action target %q must be snake_case", target),
				Suggestion: fmt.Sprintf("rename %q to snake_case", target),
			})
		}
	}
	var walkActions func([]*dsl.Action)
	walkActions = func(actions []*dsl.Action) {
		for _, a := range actions {
			switch a.Kind {
			case dsl.ActionSet, dsl.ActionCalculate:
				checkTarget(a.Target, a.Loc)
			case dsl.ActionConditional:
				walkActions(a.ThenActions)
				walkActions(a.ElseActions)
			}
		}
	}
	walkActions(rs.Then)
	walkActions(rs.Else)
	for _, sr := range rs.Rules {
		walkActions(sr.Then)
		walkActions(sr.Else)
	}

	// Every VariableRef's classification must match its lexical form;
	// this is enforced at parse time (dsl.Classify is computed once and
	// never recomputed), so a mismatch here would indicate an AST built
	// outside the parser. Re-check defensively since the validator is the
	// documented place this invariant is guaranteed.
	dsl.WalkRuleSet(rs, dsl.VisitorFunc(func(ref *dsl.Expression) {
		if dsl.Classify(ref.RefName) != ref.RefClass {
			issues = append(issues, Issue{
				Code: "NAME_004", Severity: SeverityError,
				Location: ref.Loc,
				Message:  fmt.Sprintf("variable %q classification does not match its lexical form", ref.RefName),
			})
		}
	}))

	return issues
}
