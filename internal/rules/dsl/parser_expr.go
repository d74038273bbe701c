// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

import (
	"fmt"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// MaxRecursionDepth bounds expression-parsing (and, mirrored in
// internal/rules/evalctx, expression-evaluation) nesting, per §9's
// "reject deeper nesting as INTERNAL/TOO_COMPLEX rather than risking stack
// overflow."
const MaxRecursionDepth = 50

// ParseError is a single parse-time failure with position and an optional
// suggested rewrite, matching §7's "messages name the offending variable
// and the expected form; suggestions offer concrete rewrites."
type ParseError struct {
	Loc        SourceLocation
	Message    string
	Suggestion string
}

func (e *ParseError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Loc, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Loc, e.Message)
}

type exprParser struct {
	lex   *Lexer
	depth int
}

// ParseExpr parses a single inline expression string via Pratt-style
// precedence climbing, per §4.2's precedence table (low to high):
// null-coalesce, or, and, not, comparison, additive, multiplicative,
// exponent (right-assoc), unary minus, call/index/member access.
func ParseExpr(filename, text string) (*Expression, error) {
	lx, err := NewLexer(filename, text)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	p := &exprParser{lex: lx}
	expr, err := p.parseNullCoalesce()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind != TokEOF {
		return nil, &ParseError{
			Loc:     tok.Loc,
			Message: fmt.Sprintf("unexpected trailing token %q", tok.Lexeme),
		}
	}
	return expr, nil
}

func (p *exprParser) enter() error {
	p.depth++
	if p.depth > MaxRecursionDepth {
		return &ParseError{Message: "expression nesting exceeds maximum depth"}
	}
	return nil
}

func (p *exprParser) leave() { p.depth-- }

func (p *exprParser) parseNullCoalesce() (*Expression, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if tok.Kind != TokNullCoalesce {
			return left, nil
		}
		_, _ = p.lex.Next()
		right, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		left = NewBinaryOp(OpNullCoalesce, left, right, tok.Loc)
	}
}

func (p *exprParser) parseOr() (*Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if tok.Kind != TokLogicOp || tok.Lexeme != "or" {
			return left, nil
		}
		_, _ = p.lex.Next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = NewBinaryOp(OpOr, left, right, tok.Loc)
	}
}

func (p *exprParser) parseAnd() (*Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if tok.Kind != TokLogicOp || tok.Lexeme != "and" {
			return left, nil
		}
		_, _ = p.lex.Next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = NewBinaryOp(OpAnd, left, right, tok.Loc)
	}
}

func (p *exprParser) parseNot() (*Expression, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind == TokKeywordNot {
		_, _ = p.lex.Next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return NewUnaryOp(OpNot, operand, tok.Loc), nil
	}
	return p.parseComparison()
}

func (p *exprParser) parseComparison() (*Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	switch tok.Kind {
	case TokCompareOp:
		_, _ = p.lex.Next()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(BinaryOperator(tok.Lexeme), left, right, tok.Loc), nil
	case TokWordOp:
		return p.parseWordOp(left, tok)
	default:
		return left, nil
	}
}

// unaryPredicateOps is the subset of word operators from §6's operator
// table that take no right operand — they test a single property of the
// left operand (nullness, emptiness, format) rather than comparing it
// against a second value.
var unaryPredicateOps = map[string]bool{
	"is_empty": true, "is_not_empty": true, "is_null": true, "is_not_null": true,
	"is_numeric": true, "is_email": true, "is_phone": true, "is_date": true,
	"is_positive": true, "is_negative": true, "is_zero": true, "is_non_zero": true,
	"is_percentage": true, "is_currency": true, "is_credit_score": true,
	"is_ssn": true, "is_account_number": true, "is_routing_number": true,
	"is_business_day": true, "is_weekend": true,
}

// parseWordOp handles symbolic word operators, including the two
// compound-right-operand forms from §4.2: `between X and Y` and
// `in_list [ ... ]`.
func (p *exprParser) parseWordOp(left *Expression, opTok Token) (*Expression, error) {
	_, _ = p.lex.Next()
	op := BinaryOperator(opTok.Lexeme)

	if unaryPredicateOps[opTok.Lexeme] {
		return NewBinaryOp(op, left, nil, opTok.Loc), nil
	}

	switch opTok.Lexeme {
	case "within_range", "outside_range":
		right, err := p.parseListLiteralOrRef()
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(op, left, right, opTok.Loc), nil
	case "between":
		low, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		andTok, err := p.lex.Next()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if andTok.Kind != TokLogicOp || andTok.Lexeme != "and" {
			return nil, &ParseError{Loc: andTok.Loc, Message: "expected 'and' in between expression"}
		}
		high, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		right := NewFunctionCall("__pair", []*Expression{low, high}, opTok.Loc)
		return NewBinaryOp(op, left, right, opTok.Loc), nil
	case "in_list", "not_in_list":
		right, err := p.parseListLiteralOrRef()
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(op, left, right, opTok.Loc), nil
	default:
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(op, left, right, opTok.Loc), nil
	}
}

// parseListLiteralOrRef parses either a bracketed list literal or a
// single additive expression (typically a VariableRef to a list-valued
// constant or input).
func (p *exprParser) parseListLiteralOrRef() (*Expression, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind == TokLBracket {
		return p.parsePrimary()
	}
	return p.parseAdditive()
}

func (p *exprParser) parseAdditive() (*Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if tok.Kind != TokArithOp || (tok.Lexeme != "+" && tok.Lexeme != "-") {
			return left, nil
		}
		_, _ = p.lex.Next()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = NewBinaryOp(BinaryOperator(tok.Lexeme), left, right, tok.Loc)
	}
}

func (p *exprParser) parseMultiplicative() (*Expression, error) {
	left, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if tok.Kind != TokArithOp || (tok.Lexeme != "*" && tok.Lexeme != "/" && tok.Lexeme != "%") {
			return left, nil
		}
		_, _ = p.lex.Next()
		right, err := p.parseExponent()
		if err != nil {
			return nil, err
		}
		left = NewBinaryOp(BinaryOperator(tok.Lexeme), left, right, tok.Loc)
	}
}

// parseExponent is right-associative: a ^ b ^ c == a ^ (b ^ c).
func (p *exprParser) parseExponent() (*Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind != TokArithOp || tok.Lexeme != "^" {
		return left, nil
	}
	_, _ = p.lex.Next()
	right, err := p.parseExponent()
	if err != nil {
		return nil, err
	}
	return NewBinaryOp(OpPow, left, right, tok.Loc), nil
}

func (p *exprParser) parseUnary() (*Expression, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind == TokArithOp && tok.Lexeme == "-" {
		_, _ = p.lex.Next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnaryOp(OpNeg, operand, tok.Loc), nil
	}
	return p.parsePostfix()
}

// parsePostfix handles call, index, and member-access suffixes, including
// folding a chain of `.` accesses into a single JsonPath node once the
// base is a VariableRef or another JsonPath — matching §4.6's evaluator
// contract that JsonPath resolves "dot-and-bracket paths over Map/List
// values."
func (p *exprParser) parsePostfix() (*Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	var path string
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		switch tok.Kind {
		case TokDot:
			_, _ = p.lex.Next()
			ident, err := p.lex.Next()
			if err != nil {
				return nil, &ParseError{Message: err.Error()}
			}
			if ident.Kind != TokIdentifier && ident.Kind != TokWordOp {
				return nil, &ParseError{Loc: ident.Loc, Message: "expected field name after '.'"}
			}
			if path != "" {
				path += "."
			}
			path += ident.Lexeme
		case TokLBracket:
			_, _ = p.lex.Next()
			idx, err := p.parseNullCoalesce()
			if err != nil {
				return nil, err
			}
			closeTok, err := p.lex.Next()
			if err != nil {
				return nil, &ParseError{Message: err.Error()}
			}
			if closeTok.Kind != TokRBracket {
				return nil, &ParseError{Loc: closeTok.Loc, Message: "expected ']'"}
			}
			if idx.Kind == ExprLiteral {
				if path != "" {
					path += "."
				}
				path += "[" + value.Stringify(idx.Literal) + "]"
				continue
			}
			return nil, &ParseError{Loc: tok.Loc, Message: "only literal indices are supported in bracket access"}
		default:
			if path != "" {
				return NewJsonPath(expr, path, expr.Loc), nil
			}
			return expr, nil
		}
	}
}

func (p *exprParser) parsePrimary() (*Expression, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	switch tok.Kind {
	case TokNumber:
		v, err := value.DecimalFromString(tok.Lexeme)
		if err != nil {
			return nil, &ParseError{Loc: tok.Loc, Message: err.Error()}
		}
		return NewLiteral(v, tok.Loc), nil
	case TokString:
		return NewLiteral(value.Text(tok.Lexeme), tok.Loc), nil
	case TokBoolean:
		return NewLiteral(value.Bool(tok.Lexeme == "true"), tok.Loc), nil
	case TokNull:
		return NewLiteral(value.Null(), tok.Loc), nil
	case TokLParen:
		inner, err := p.parseNullCoalesce()
		if err != nil {
			return nil, err
		}
		closeTok, err := p.lex.Next()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if closeTok.Kind != TokRParen {
			// Open Question (a): both unmatched '(' and unmatched ')' are
			// hard errors — see SPEC_FULL.md §9.
			return nil, &ParseError{Loc: tok.Loc, Message: "unmatched '('"}
		}
		return inner, nil
	case TokLBracket:
		return p.parseListLiteral(tok)
	case TokIdentifier:
		return p.parseIdentOrCall(tok)
	case TokRParen:
		return nil, &ParseError{Loc: tok.Loc, Message: "unmatched ')'"}
	default:
		return nil, &ParseError{Loc: tok.Loc, Message: fmt.Sprintf("unexpected token %q", tok.Lexeme)}
	}
}

func (p *exprParser) parseListLiteral(open Token) (*Expression, error) {
	items := make([]*Expression, 0, 4)
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind != TokRBracket {
		for {
			item, err := p.parseNullCoalesce()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
			sep, err := p.lex.Peek()
			if err != nil {
				return nil, &ParseError{Message: err.Error()}
			}
			if sep.Kind != TokComma {
				break
			}
			_, _ = p.lex.Next()
		}
	}
	closeTok, err := p.lex.Next()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if closeTok.Kind != TokRBracket {
		return nil, &ParseError{Loc: open.Loc, Message: "unmatched '['"}
	}
	// A literal list of literal expressions collapses to a Value list so
	// downstream consumers (the in_list/between builtins) see a plain
	// value.Value rather than needing to re-evaluate each element.
	allLiteral := true
	vals := make([]value.Value, len(items))
	for i, it := range items {
		if it.Kind != ExprLiteral {
			allLiteral = false
			break
		}
		vals[i] = it.Literal
	}
	if allLiteral {
		return NewLiteral(value.List(vals), open.Loc), nil
	}
	return NewFunctionCall("__list", items, open.Loc), nil
}

func (p *exprParser) parseIdentOrCall(ident Token) (*Expression, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	if tok.Kind == TokLParen {
		_, _ = p.lex.Next()
		args := make([]*Expression, 0, 4)
		peek, err := p.lex.Peek()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if peek.Kind != TokRParen {
			for {
				arg, err := p.parseNullCoalesce()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				sep, err := p.lex.Peek()
				if err != nil {
					return nil, &ParseError{Message: err.Error()}
				}
				if sep.Kind != TokComma {
					break
				}
				_, _ = p.lex.Next()
			}
		}
		closeTok, err := p.lex.Next()
		if err != nil {
			return nil, &ParseError{Message: err.Error()}
		}
		if closeTok.Kind != TokRParen {
			return nil, &ParseError{Loc: ident.Loc, Message: "unmatched '(' in function call"}
		}
		return NewFunctionCall(ident.Lexeme, args, ident.Loc), nil
	}
	class := Classify(ident.Lexeme)
	if class == ClassReserved {
		return nil, &ParseError{
			Loc:        ident.Loc,
			Message:    fmt.Sprintf("%q is a reserved word and cannot be used as a variable name", ident.Lexeme),
			Suggestion: "choose a different identifier",
		}
	}
	return NewVariableRef(ident.Lexeme, class, ident.Loc), nil
}
