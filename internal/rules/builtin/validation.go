package builtin

import (
	"context"
	"regexp"

	"github.com/holomush/ruleforge/internal/rules/value"
)

var (
	digitsOnly  = regexp.MustCompile(`^[0-9]+$`)
	emailRegex  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	stripSeparators = regexp.MustCompile(`[-\s]`)
)

// routingWeights is the position-weighted checksum table from I5:
// sum_i d_i * w_i mod 10 == 0.
var routingWeights = [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}

func ValidSSN(s string) bool {
	digits := stripSeparators.ReplaceAllString(s, "")
	return len(digits) == 9 && digitsOnly.MatchString(digits)
}

func ValidRoutingNumber(s string) bool {
	digits := stripSeparators.ReplaceAllString(s, "")
	if len(digits) != 9 || !digitsOnly.MatchString(digits) {
		return false
	}
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * routingWeights[i]
	}
	return sum%10 == 0
}

func ValidAccountNumber(s string) bool {
	digits := stripSeparators.ReplaceAllString(s, "")
	return len(digits) >= 8 && len(digits) <= 17 && digitsOnly.MatchString(digits)
}

func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

func ValidPhone(s string) bool {
	digits := regexp.MustCompile(`[-\s().+]`).ReplaceAllString(s, "")
	return len(digits) >= 10 && len(digits) <= 15 && digitsOnly.MatchString(digits)
}

func ValidCreditScore(v value.Value) bool {
	d, ok := value.CoerceDecimal(v)
	if !ok || !d.IsInteger() {
		return false
	}
	n := d.IntPart()
	return n >= 300 && n <= 850
}

func asText(v value.Value) (string, bool) {
	if s, ok := v.AsText(); ok {
		return s, true
	}
	return "", false
}

func init() {
	Register(Builtin{Name: "is_credit_score_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		return value.Bool(ValidCreditScore(args[0])), nil
	}})
	Register(Builtin{Name: "is_ssn_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		s, ok := asText(args[0])
		return value.Bool(ok && ValidSSN(s)), nil
	}})
	Register(Builtin{Name: "is_routing_number_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		s, ok := asText(args[0])
		return value.Bool(ok && ValidRoutingNumber(s)), nil
	}})
	Register(Builtin{Name: "is_account_number_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		s, ok := asText(args[0])
		return value.Bool(ok && ValidAccountNumber(s)), nil
	}})
	Register(Builtin{Name: "is_email_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		s, ok := asText(args[0])
		return value.Bool(ok && ValidEmail(s)), nil
	}})
	Register(Builtin{Name: "is_phone_fn", MinArity: 1, MaxArity: 1, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		s, ok := asText(args[0])
		return value.Bool(ok && ValidPhone(s)), nil
	}})
}

// these *_fn registrations let the registry serve direct function-call
// syntax under the suffixed names (e.g. `is_ssn_fn(accountHolderSSN)`
// inside a `calculate` expression). The bare names (`is_ssn`,
// `is_routing_number`, ...) lex as word operators, so writing one as a
// call, e.g. `is_ssn(accountHolderSSN)`, is a parse error. The
// word-operator comparison path in comparison.go calls the exported
// Valid* helpers directly rather than going through the registry, since
// it already has typed left/right Values in hand.
