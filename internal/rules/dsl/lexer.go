// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// TokenKind enumerates the lexeme categories from §4.1. Identifier tokens
// that spell a reserved word operator are retokenized as WordOp by the
// Lexer before being handed to the parser, per §4.1's retokenization rule.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdentifier
	TokNumber
	TokString
	TokBoolean
	TokNull
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokComma
	TokDot
	TokArithOp
	TokNullCoalesce
	TokCompareOp
	TokWordOp
	TokLogicOp
	TokKeywordAs
	TokKeywordTo
	TokKeywordAnd
	TokKeywordNot
)

// Token is one lexeme with its source location.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Loc    SourceLocation
}

// ruleLexer is the token table, built with participle's lexer.SimpleRule
// exactly as the teacher's internal/access/policy/dsl.dslLexer is built:
// longer patterns before shorter ones sharing a prefix, identifiers last.
var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"[^"]*"|'[^']*'`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?`},
	{Name: "NullCoalesce", Pattern: `\?\?`},
	{Name: "OpGe", Pattern: `>=`},
	{Name: "OpLe", Pattern: `<=`},
	{Name: "OpEq", Pattern: `==`},
	{Name: "OpNe", Pattern: `!=`},
	{Name: "OpGt", Pattern: `>`},
	{Name: "OpLt", Pattern: `<`},
	{Name: "OpAndSym", Pattern: `&&`},
	{Name: "OpOrSym", Pattern: `\|\|`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "LBracket", Pattern: `\[`},
	{Name: "RBracket", Pattern: `\]`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Dot", Pattern: `\.`},
	{Name: "ArithOp", Pattern: `[+\-*/%^]`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

// LexicalError carries the offending position and rune, per §4.1: the
// lexer never silently skips a byte.
type LexicalError struct {
	Loc  SourceLocation
	Text string
}

func (e *LexicalError) Error() string {
	return "lexical error at " + e.Loc.String() + ": " + e.Text
}

// Lexer tokenizes a single inline expression string, handed imperatively
// to the Parser for Pratt-style precedence climbing. It wraps
// participle/v2/lexer's token stream (built from ruleLexer above) rather
// than participle's declarative grammar builder — see SPEC_FULL.md §4.2
// for why the precedence table is easier to drive by hand than to encode
// as nested participle struct types.
type Lexer struct {
	inner lexer.Lexer
	peeked *Token
}

// NewLexer builds a Lexer over text, identified as filename in error
// positions (typically the rule name or a synthetic "<expr>").
func NewLexer(filename, text string) (*Lexer, error) {
	inner, err := ruleLexer.LexString(filename, text)
	if err != nil {
		return nil, err
	}
	return &Lexer{inner: inner}, nil
}

func toLoc(p lexer.Position) SourceLocation {
	return SourceLocation{Line: p.Line, Column: p.Column}
}

// Next returns the next token, retokenizing identifiers that spell a word
// operator, a boolean/null literal, or a bare logical/keyword word.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		t := *l.peeked
		l.peeked = nil
		return t, nil
	}
	return l.next()
}

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	t, err := l.next()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &t
	return t, nil
}

func (l *Lexer) next() (Token, error) {
	raw, err := l.inner.Next()
	if err != nil {
		return Token{}, err
	}
	loc := toLoc(raw.Pos)
	if raw.EOF() {
		return Token{Kind: TokEOF, Loc: loc}, nil
	}
	sym := ruleLexer.Symbols()
	switch raw.Type {
	case sym["String"]:
		return Token{Kind: TokString, Lexeme: unquote(raw.Value), Loc: loc}, nil
	case sym["Number"]:
		return Token{Kind: TokNumber, Lexeme: raw.Value, Loc: loc}, nil
	case sym["NullCoalesce"]:
		return Token{Kind: TokNullCoalesce, Lexeme: raw.Value, Loc: loc}, nil
	case sym["OpGe"], sym["OpLe"], sym["OpEq"], sym["OpNe"], sym["OpGt"], sym["OpLt"]:
		return Token{Kind: TokCompareOp, Lexeme: raw.Value, Loc: loc}, nil
	case sym["OpAndSym"]:
		return Token{Kind: TokLogicOp, Lexeme: "and", Loc: loc}, nil
	case sym["OpOrSym"]:
		return Token{Kind: TokLogicOp, Lexeme: "or", Loc: loc}, nil
	case sym["LParen"]:
		return Token{Kind: TokLParen, Lexeme: raw.Value, Loc: loc}, nil
	case sym["RParen"]:
		return Token{Kind: TokRParen, Lexeme: raw.Value, Loc: loc}, nil
	case sym["LBracket"]:
		return Token{Kind: TokLBracket, Lexeme: raw.Value, Loc: loc}, nil
	case sym["RBracket"]:
		return Token{Kind: TokRBracket, Lexeme: raw.Value, Loc: loc}, nil
	case sym["Comma"]:
		return Token{Kind: TokComma, Lexeme: raw.Value, Loc: loc}, nil
	case sym["Dot"]:
		return Token{Kind: TokDot, Lexeme: raw.Value, Loc: loc}, nil
	case sym["ArithOp"]:
		return Token{Kind: TokArithOp, Lexeme: raw.Value, Loc: loc}, nil
	case sym["Ident"]:
		return classifyIdentToken(raw.Value, loc), nil
	default:
		return Token{}, &LexicalError{Loc: loc, Text: raw.Value}
	}
}

func classifyIdentToken(text string, loc SourceLocation) Token {
	switch text {
	case "true", "false":
		return Token{Kind: TokBoolean, Lexeme: text, Loc: loc}
	case "null":
		return Token{Kind: TokNull, Lexeme: text, Loc: loc}
	case "and", "or":
		return Token{Kind: TokLogicOp, Lexeme: text, Loc: loc}
	case "not":
		return Token{Kind: TokKeywordNot, Lexeme: text, Loc: loc}
	case "as":
		return Token{Kind: TokKeywordAs, Lexeme: text, Loc: loc}
	case "to":
		return Token{Kind: TokKeywordTo, Lexeme: text, Loc: loc}
	}
	if IsWordOperator(text) {
		return Token{Kind: TokWordOp, Lexeme: text, Loc: loc}
	}
	return Token{Kind: TokIdentifier, Lexeme: text, Loc: loc}
}

// unquote strips the surrounding quotes from a String token lexeme.
// Per §4.1, backslash escapes are not interpreted — the only job here is
// removing the delimiter; embedded opposite-kind quotes pass through
// untouched.
func unquote(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	return raw[1 : len(raw)-1]
}
