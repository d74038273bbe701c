// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package validate

import (
	"fmt"
	"strings"

	"github.com/holomush/ruleforge/internal/rules/dsl"
)

// circular is validator pass 4: build a DAG keyed by snake_case target
// with an edge target→ref for every snake_case reference in the
// producing expression, then depth-first visit reporting cycles with the
// full cycle path.
func circular(rs *dsl.RuleSet) []Issue {
	declaredInputs := map[string]bool{}
	for _, in := range rs.Inputs {
		declaredInputs[in] = true
	}
	edges := map[string][]string{}

	// A ClassInput ref still counts as a computed-name edge if it isn't
	// one of the rule-set's declared inputs: a single-word lowercase name
	// like "tier" is lexically ambiguous between camelCase input and
	// trivial snake_case computed (see dsl.Classify), and only the
	// declared-inputs list disambiguates it.
	collect := func(target string, expr *dsl.Expression) {
		dsl.WalkExpression(expr, dsl.VisitorFunc(func(ref *dsl.Expression) {
			switch ref.RefClass {
			case dsl.ClassComputed:
				edges[target] = append(edges[target], ref.RefName)
			case dsl.ClassInput:
				if !declaredInputs[ref.RefName] {
					edges[target] = append(edges[target], ref.RefName)
				}
			}
		}))
	}
	var walkActions func([]*dsl.Action)
	walkActions = func(actions []*dsl.Action) {
		for _, a := range actions {
			switch a.Kind {
			case dsl.ActionSet, dsl.ActionCalculate:
				collect(a.Target, a.Value)
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

	var issues []Issue
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var path []string

	var visit func(node string) []string
	visit = func(node string) []string {
		color[node] = gray
		path = append(path, node)
		for _, next := range edges[node] {
			switch color[next] {
			case gray:
				// Found the cycle: the path from next's first occurrence
				// to here, plus next again to close the loop.
				for i, n := range path {
					if n == next {
						cycle := append(append([]string{}, path[i:]...), next)
						return cycle
					}
				}
			case white:
				if cyc := visit(next); cyc != nil {
					return cyc
				}
			}
		}
		path = path[:len(path)-1]
		color[node] = black
		return nil
	}

	for node := range edges {
		if color[node] == white {
			if cyc := visit(node); cyc != nil {
				issues = append(issues, Issue{
					Code: "CYC_001", Severity: SeverityCritical,
					Message: fmt.Sprintf("circular dependency: %s", strings.Join(cyc, " -> ")),
				})
				break
			}
		}
	}
	return issues
}
