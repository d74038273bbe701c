// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dsl

import "regexp"

// Classification tags which lookup tier a name belongs to, per the data
// model's naming rules. The classification is computed once at parse time
// from the name's lexical form and never recomputed.
type Classification int

const (
	ClassUnknown Classification = iota
	ClassInput
	ClassConstant
	ClassComputed
	ClassReserved
)

func (c Classification) String() string {
	switch c {
	case ClassInput:
		return "input"
	case ClassConstant:
		return "constant"
	case ClassComputed:
		return "computed"
	case ClassReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

var (
	inputPattern    = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	constantPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
	computedPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// reservedWords is the keyword set that may never be used as a variable
// name, modeled directly on the teacher's dsl.reservedWords/IsReservedWord
// pair but populated with this language's keywords and word operators.
var reservedWords = map[string]bool{
	"and": true, "or": true, "not": true,
	"true": true, "false": true, "null": true,
	"if": true, "then": true, "else": true,
	"as": true, "to": true,
	"at_least": true, "greater_than": true, "less_than": true, "equals": true,
	"between": true, "in_list": true, "not_in_list": true,
	"contains": true, "starts_with": true, "ends_with": true,
	"matches": true, "not_matches": true,
	"is_empty": true, "is_not_empty": true, "is_null": true, "is_not_null": true,
	"is_numeric": true, "is_email": true, "is_phone": true, "is_date": true,
	"length_equals": true, "length_greater_than": true, "length_less_than": true,
	"within_range": true, "outside_range": true,
	"is_positive": true, "is_negative": true, "is_zero": true, "is_non_zero": true,
	"is_percentage": true, "is_currency": true, "is_credit_score": true,
	"is_ssn": true, "is_account_number": true, "is_routing_number": true,
	"is_business_day": true, "is_weekend": true,
	"age_at_least": true, "age_less_than": true,
}

// IsReservedWord reports whether word is a DSL keyword or word-operator,
// ineligible for use as a variable name regardless of its lexical shape.
func IsReservedWord(word string) bool {
	return reservedWords[word]
}

// IsWordOperator reports whether ident should be retokenized as a WordOp
// rather than an Identifier, per §4.1's "identifiers that match a word
// operator are retokenized" rule.
func IsWordOperator(word string) bool {
	switch word {
	case "at_least", "greater_than", "less_than", "equals",
		"between", "in_list", "not_in_list",
		"contains", "starts_with", "ends_with", "matches", "not_matches",
		"is_empty", "is_not_empty", "is_null", "is_not_null",
		"is_numeric", "is_email", "is_phone", "is_date",
		"length_equals", "length_greater_than", "length_less_than",
		"within_range", "outside_range",
		"is_positive", "is_negative", "is_zero", "is_non_zero",
		"is_percentage", "is_currency", "is_credit_score",
		"is_ssn", "is_account_number", "is_routing_number",
		"is_business_day", "is_weekend",
		"age_at_least", "age_less_than":
		return true
	default:
		return false
	}
}

// Classify determines which lookup tier name belongs to. Reserved words
// take priority over lexical shape so that, e.g., "not" is never mistaken
// for a computed name even though it matches the computed pattern.
func Classify(name string) Classification {
	if IsReservedWord(name) {
		return ClassReserved
	}
	switch {
	case constantPattern.MatchString(name):
		return ClassConstant
	case computedPattern.MatchString(name) && containsUnderscore(name):
		return ClassComputed
	case inputPattern.MatchString(name):
		return ClassInput
	default:
		return ClassUnknown
	}
}

// IsValidActionTarget reports whether name is acceptable as a set/calculate
// target. A single-word lowercase name like "tier" or "eligible" is valid
// trivial snake_case with no internal underscore to show for it, so it
// classifies as ClassInput rather than ClassComputed even though the data
// model treats it as a producible computed name; action targets therefore
// accept either tier and reject only constants and reserved words.
func IsValidActionTarget(name string) bool {
	switch Classify(name) {
	case ClassComputed, ClassInput:
		return true
	default:
		return false
	}
}

func containsUnderscore(s string) bool {
	for _, r := range s {
		if r == '_' {
			return true
		}
	}
	return false
}
