// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// yamlParser walks a decoded YAML document (a tree of map[string]any,
// []any, and scalars) by recursive descent, converting the
// compare/and/or/not/arithmetic/function map keys and the when/then/else/
// rules shapes into the shared AST — generalizing the teacher's
// compiler.go attribute-reference walkers from "collect references" to
// "build AST". Every independent entry point (one when-string, one
// structured condition node, one action string) reports into the same
// Collector so a single bad entry never aborts the rest of the document.
type yamlParser struct {
	diag *Collector
	name string // rule name, used as the synthetic filename for ParseExpr
}

// ParseRuleSet parses a rule document's raw YAML bytes into a RuleSet.
// Returns the (possibly partial) RuleSet alongside every diagnostic
// collected; callers must check the returned diagnostics for a
// SeverityFatal entry before running validators or the evaluator.
func ParseRuleSet(raw []byte) (*RuleSet, []Diagnostic) {
	var doc map[string]any
	diag := NewCollector()
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		diag.Addf("PARSE_001", SeverityFatal, SourceLocation{}, "invalid YAML document: %s", err)
		return nil, diag.Diagnostics()
	}
	yp := &yamlParser{diag: diag}
	rs := yp.parseDocument(doc)
	return rs, diag.Diagnostics()
}

func (yp *yamlParser) parseDocument(doc map[string]any) *RuleSet {
	rs := &RuleSet{}

	rs.Name, _ = doc["name"].(string)
	if len(rs.Name) < 3 {
		yp.diag.Addf("SYN_001", SeverityFatal, SourceLocation{}, "rule name %q must be at least 3 characters", rs.Name)
	}
	yp.name = rs.Name
	if yp.name == "" {
		yp.name = "<rule>"
	}
	rs.Description, _ = doc["description"].(string)
	if desc, ok := doc["description"]; !ok || desc == nil {
		yp.diag.Addf("SYN_010", SeverityWarning, SourceLocation{}, "description is recommended but absent")
	}
	if v, ok := doc["version"]; ok {
		rs.Version = fmt.Sprintf("%v", v)
	}

	rs.Metadata = yp.parseMetadata(doc["metadata"])
	rs.Inputs = yp.parseInputs(doc["inputs"])
	rs.Constants = yp.parseConstants(doc["constants"])
	rs.Output = yp.parseOutput(doc["output"])
	rs.CircuitBreaker = yp.parseCircuitBreakerConfig(doc["circuit_breaker"])

	yp.parsePrimaryForm(doc, rs)
	return rs
}

func (yp *yamlParser) parseMetadata(raw any) Metadata {
	m := Metadata{}
	mp, ok := raw.(map[string]any)
	if !ok {
		return m
	}
	if tags, ok := mp["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				m.Tags = append(m.Tags, s)
			} else {
				yp.diag.Addf("SYN_002", SeverityError, SourceLocation{}, "metadata.tags must be a list of strings")
			}
		}
	}
	m.Author, _ = mp["author"].(string)
	m.Category, _ = mp["category"].(string)
	if pr, ok := mp["priority"]; ok {
		m.Priority = toInt(pr)
	}
	if rl, ok := mp["riskLevel"].(string); ok {
		switch RiskLevel(rl) {
		case RiskLow, RiskMedium, RiskHigh, RiskCritical:
			m.RiskLevel = RiskLevel(rl)
		default:
			yp.diag.Addf("SYN_003", SeverityError, SourceLocation{},
				"metadata.riskLevel %q must be one of LOW, MEDIUM, HIGH, CRITICAL", rl)
		}
	}
	return m
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (yp *yamlParser) parseInputs(raw any) []string {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		yp.diag.Addf("SYN_004", SeverityFatal, SourceLocation{}, "inputs must be a non-empty list")
		return nil
	}
	inputs := make([]string, 0, len(items))
	for _, it := range items {
		name, ok := it.(string)
		if !ok {
			continue
		}
		if Classify(name) != ClassInput {
			yp.diag.Add(Diagnostic{
				Code: "NAME_001", Severity: SeverityFatal,
				Message:    fmt.Sprintf("input %q is not camelCase", name),
				Suggestion: fmt.Sprintf("rename %q to camelCase in inputs", name),
			})
			continue
		}
		inputs = append(inputs, name)
	}
	return inputs
}

func (yp *yamlParser) parseConstants(raw any) []InlineConstant {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]InlineConstant, 0, len(items))
	for _, it := range items {
		cm, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name, _ := cm["name"].(string)
		if Classify(name) != ClassConstant {
			yp.diag.Add(Diagnostic{
				Code: "NAME_002", Severity: SeverityFatal,
				Message: fmt.Sprintf("constant %q is not UPPER_SNAKE", name),
			})
			continue
		}
		vt, _ := cm["type"].(string)
		out = append(out, InlineConstant{
			Name:        name,
			ValueType:   vt,
			Value:       value.FromGo(cm["value"]),
			Description: fmt.Sprintf("%v", cm["description"]),
		})
	}
	return out
}

func (yp *yamlParser) parseOutput(raw any) map[string]string {
	om, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(om))
	for k, v := range om {
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}

func (yp *yamlParser) parseCircuitBreakerConfig(raw any) *CircuitBreakerConfig {
	cm, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	cfg := &CircuitBreakerConfig{}
	cfg.Enabled, _ = cm["enabled"].(bool)
	if condText, ok := cm["condition"].(string); ok && condText != "" {
		cfg.Condition = yp.parseConditionString(condText)
	}
	cfg.Message, _ = cm["message"].(string)
	if th, ok := cm["threshold"]; ok {
		v := value.FromGo(th)
		cfg.Threshold = &v
	}
	if tw, ok := cm["timeWindowMs"]; ok {
		cfg.TimeWindowMs = toInt(tw)
	}
	return cfg
}

// parsePrimaryForm dispatches on whichever of when/conditions/rules is
// present, recording a SYN_006 warning diagnostic (not a fatal parse
// error) if more than one is — §6: "Only one of when/conditions/
// rules may be primary; mixing yields a validator warning."
func (yp *yamlParser) parsePrimaryForm(doc map[string]any, rs *RuleSet) {
	_, hasWhen := doc["when"]
	_, hasConditions := doc["conditions"]
	_, hasRules := doc["rules"]

	switch {
	case hasRules:
		rs.Form = FormRulesList
		rs.Rules = yp.parseRulesList(doc["rules"])
	case hasConditions:
		rs.Form = FormConditions
		yp.parseConditionsBlock(doc["conditions"], rs)
	case hasWhen:
		rs.Form = FormWhenThenElse
		rs.When = yp.parseWhenList(doc["when"])
		rs.Then = yp.parseActionList(doc["then"])
		rs.Else = yp.parseActionList(doc["else"])
	default:
		yp.diag.Addf("SYN_005", SeverityFatal, SourceLocation{},
			"document must declare one of 'when', 'conditions', or 'rules'")
	}

	if (boolToInt(hasWhen) + boolToInt(hasConditions) + boolToInt(hasRules)) > 1 {
		yp.diag.Addf("SYN_006", SeverityWarning, SourceLocation{},
			"document mixes 'when'/'conditions'/'rules'; only the primary form is evaluated")
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- simplified form: when[]/then/else ---

func (yp *yamlParser) parseWhenList(raw any) []*Condition {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	conds := make([]*Condition, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			continue
		}
		conds = append(conds, yp.parseConditionString(s))
	}
	return conds
}

// parseConditionString parses one simplified-form when-entry, such as
// `creditScore at_least MIN_CREDIT_SCORE`. Because word operators are
// themselves comparison operators at the Parser's comparison precedence
// level, this is just an expression parse that happens to produce a
// boolean-valued BinaryOp or a bare truthy expression.
func (yp *yamlParser) parseConditionString(s string) *Condition {
	expr, err := ParseExpr(yp.name, s)
	if err != nil {
		yp.recordParseError(err)
		return nil
	}
	return exprToCondition(expr)
}

// exprToCondition reclassifies a parsed expression as a Condition: a
// top-level comparison BinaryOp becomes CondComparison; a top-level
// and/or BinaryOp becomes CondLogical; anything else is a bare
// ExpressionCondition evaluated for truthiness.
func exprToCondition(expr *Expression) *Condition {
	if expr == nil {
		return nil
	}
	if expr.Kind == ExprBinaryOp {
		switch expr.BinOp {
		case OpAnd:
			return NewLogical(LogicalAnd, []*Condition{exprToCondition(expr.Left), exprToCondition(expr.Right)}, expr.Loc)
		case OpOr:
			return NewLogical(LogicalOr, []*Condition{exprToCondition(expr.Left), exprToCondition(expr.Right)}, expr.Loc)
		default:
			return NewComparison(expr.Left, NormalizeWordAlias(expr.BinOp), expr.Right, expr.Loc)
		}
	}
	if expr.Kind == ExprUnaryOp && expr.UnOp == OpNot {
		return NewLogical(LogicalNot, []*Condition{exprToCondition(expr.Operand)}, expr.Loc)
	}
	return NewExpressionCondition(expr, expr.Loc)
}

func (yp *yamlParser) recordParseError(err error) {
	if pe, ok := err.(*ParseError); ok {
		yp.diag.Add(Diagnostic{Code: "PARSE_002", Severity: SeverityFatal, Location: pe.Loc, Message: pe.Message, Suggestion: pe.Suggestion})
		return
	}
	yp.diag.Addf("PARSE_002", SeverityFatal, SourceLocation{}, "%s", err)
}

// --- actions: shared by the simplified and structured forms ---

func (yp *yamlParser) parseActionList(raw any) []*Action {
	switch v := raw.(type) {
	case []any:
		out := make([]*Action, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				if a := yp.parseActionString(s); a != nil {
					out = append(out, a)
				}
			} else if m, ok := it.(map[string]any); ok {
				if a := yp.parseActionMap(m); a != nil {
					out = append(out, a)
				}
			}
		}
		return out
	case map[string]any:
		if a := yp.parseActionMap(v); a != nil {
			return []*Action{a}
		}
	}
	return nil
}

// parseActionString recognizes an action by prefix, per §4.2: "set
// <snake> to <expr>", "calculate <snake> as <expr>", "<funcname>(...)",
// or a circuit-breaker directive.
func (yp *yamlParser) parseActionString(s string) *Action {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "set "):
		return yp.parseTargetedAction(s[len("set "):], " to ", NewSetAction)
	case strings.HasPrefix(s, "calculate "):
		return yp.parseTargetedAction(s[len("calculate "):], " as ", NewCalculateAction)
	case strings.HasPrefix(s, "circuit_breaker"):
		msg := s
		if idx := strings.Index(s, ":"); idx >= 0 {
			msg = strings.TrimSpace(s[idx+1:])
			msg = strings.Trim(msg, `"'`)
		}
		return NewCircuitBreakerAction(msg, SourceLocation{})
	default:
		expr, err := ParseExpr(yp.name, s)
		if err != nil {
			yp.recordParseError(err)
			return nil
		}
		if expr.Kind != ExprFunctionCall {
			yp.diag.Addf("PARSE_003", SeverityError, expr.Loc,
				"action %q is not a recognized set/calculate/function-call/circuit_breaker form", s)
			return nil
		}
		return NewFunctionCallAction(expr, expr.Loc)
	}
}

func (yp *yamlParser) parseTargetedAction(rest, sep string, build func(string, *Expression, SourceLocation) *Action) *Action {
	idx := strings.Index(rest, sep)
	if idx < 0 {
		yp.diag.Addf("PARSE_004", SeverityFatal, SourceLocation{}, "expected %q in action %q", strings.TrimSpace(sep), rest)
		return nil
	}
	target := strings.TrimSpace(rest[:idx])
	exprText := strings.TrimSpace(rest[idx+len(sep):])
	if !IsValidActionTarget(target) {
		yp.diag.Add(Diagnostic{
			Code: "NAME_003", Severity: SeverityFatal,
			Message:    fmt.Sprintf("action target %q must be snake_case", target),
			Suggestion: fmt.Sprintf("rename %q to snake_case", target),
		})
		return nil
	}
	expr, err := ParseExpr(yp.name, exprText)
	if err != nil {
		yp.recordParseError(err)
		return nil
	}
	return build(target, expr, expr.Loc)
}

// parseActionMap handles the map-shaped action forms used inside
// structured conditions.then/else and circuit_breaker action entries,
// e.g. {set: {target: eligible, value: true}} or
// {circuit_breaker: {trigger: true, message: "..."}}.
func (yp *yamlParser) parseActionMap(m map[string]any) *Action {
	if setv, ok := m["set"].(map[string]any); ok {
		return yp.buildTargetedActionFromMap(setv, NewSetAction)
	}
	if calc, ok := m["calculate"].(map[string]any); ok {
		return yp.buildTargetedActionFromMap(calc, NewCalculateAction)
	}
	if cb, ok := m["circuit_breaker"].(map[string]any); ok {
		msg, _ := cb["message"].(string)
		return NewCircuitBreakerAction(msg, SourceLocation{})
	}
	if cond, ok := m["if"]; ok {
		c := yp.parseConditionNode(cond)
		then := yp.parseActionList(m["then"])
		els := yp.parseActionList(m["else"])
		return NewConditionalAction(c, then, els, SourceLocation{})
	}
	if fn, ok := m["function"].(map[string]any); ok {
		name, _ := fn["name"].(string)
		args := yp.parseArgList(fn["args"])
		return NewFunctionCallAction(NewFunctionCall(name, args, SourceLocation{}), SourceLocation{})
	}
	yp.diag.Addf("PARSE_005", SeverityError, SourceLocation{}, "unrecognized action map shape")
	return nil
}

func (yp *yamlParser) buildTargetedActionFromMap(m map[string]any, build func(string, *Expression, SourceLocation) *Action) *Action {
	target, _ := m["target"].(string)
	if !IsValidActionTarget(target) {
		yp.diag.Add(Diagnostic{Code: "NAME_003", Severity: SeverityFatal, Message: fmt.Sprintf("action target %q must be snake_case", target)})
		return nil
	}
	expr := yp.parseExpressionNode(m["value"])
	if expr == nil {
		return nil
	}
	return build(target, expr, expr.Loc)
}

func (yp *yamlParser) parseArgList(raw any) []*Expression {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]*Expression, 0, len(items))
	for _, it := range items {
		if e := yp.parseExpressionNode(it); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// parseExpressionNode parses an arbitrary YAML scalar/string as an
// expression (strings go through the expression parser; other scalars
// lift directly to a Literal).
func (yp *yamlParser) parseExpressionNode(raw any) *Expression {
	if s, ok := raw.(string); ok {
		expr, err := ParseExpr(yp.name, s)
		if err != nil {
			yp.recordParseError(err)
			return nil
		}
		return expr
	}
	return NewLiteral(value.FromGo(raw), SourceLocation{})
}

// --- structured form: conditions.if/then/else ---

func (yp *yamlParser) parseConditionsBlock(raw any, rs *RuleSet) {
	cm, ok := raw.(map[string]any)
	if !ok {
		yp.diag.Addf("SYN_007", SeverityFatal, SourceLocation{}, "conditions must be a map")
		return
	}
	ifNode, ok := cm["if"]
	if !ok {
		yp.diag.Addf("SYN_008", SeverityFatal, SourceLocation{}, "conditions must declare 'if'")
		return
	}
	rs.Condition = yp.parseConditionNode(ifNode)
	rs.Then = yp.parseActionList(cm["then"])
	rs.Else = yp.parseActionList(cm["else"])
}

// parseConditionNode is the recursive-descent entry point over the
// compare/and/or/not map-key shapes named in §4.2.
func (yp *yamlParser) parseConditionNode(raw any) *Condition {
	switch v := raw.(type) {
	case string:
		return yp.parseConditionString(v)
	case map[string]any:
		if cmp, ok := v["compare"].(map[string]any); ok {
			return yp.parseCompareNode(cmp)
		}
		if children, ok := v["and"].([]any); ok {
			return yp.parseLogicalChildren(LogicalAnd, children)
		}
		if children, ok := v["or"].([]any); ok {
			return yp.parseLogicalChildren(LogicalOr, children)
		}
		if child, ok := v["not"]; ok {
			c := yp.parseConditionNode(child)
			return NewLogical(LogicalNot, []*Condition{c}, SourceLocation{})
		}
		if expr, ok := v["expression"].(string); ok {
			return yp.parseConditionString(expr)
		}
		yp.diag.Addf("SYN_009", SeverityFatal, SourceLocation{}, "unrecognized condition map shape")
		return nil
	default:
		yp.diag.Addf("SYN_009", SeverityFatal, SourceLocation{}, "condition node must be a string or map")
		return nil
	}
}

func (yp *yamlParser) parseLogicalChildren(op LogicalOperator, raw []any) *Condition {
	children := make([]*Condition, 0, len(raw))
	for _, c := range raw {
		if cond := yp.parseConditionNode(c); cond != nil {
			children = append(children, cond)
		}
	}
	return NewLogical(op, children, SourceLocation{})
}

func (yp *yamlParser) parseCompareNode(cmp map[string]any) *Condition {
	left := yp.parseExpressionNode(cmp["left"])
	opStr, _ := cmp["op"].(string)
	right := yp.parseExpressionNode(cmp["right"])
	if left == nil || right == nil {
		return nil
	}
	return NewComparison(left, NormalizeWordAlias(BinaryOperator(opStr)), right, SourceLocation{})
}

// --- rules[] list form ---

func (yp *yamlParser) parseRulesList(raw any) []*SubRule {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]*SubRule, 0, len(items))
	for _, it := range items {
		rm, ok := it.(map[string]any)
		if !ok {
			continue
		}
		sr := &SubRule{}
		sr.Name, _ = rm["name"].(string)
		if cond, ok := rm["when"]; ok {
			sr.Condition = yp.parseWhenAsLogical(cond)
		} else if cond, ok := rm["if"]; ok {
			sr.Condition = yp.parseConditionNode(cond)
		}
		sr.Then = yp.parseActionList(rm["then"])
		sr.Else = yp.parseActionList(rm["else"])
		out = append(out, sr)
	}
	return out
}

func (yp *yamlParser) parseWhenAsLogical(raw any) *Condition {
	conds := yp.parseWhenList(raw)
	if len(conds) == 1 {
		return conds[0]
	}
	return NewLogical(LogicalAnd, conds, SourceLocation{})
}
