package builtin

import (
	"regexp"
	"strings"
	"time"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// CompareWordOp evaluates one of §6's word-form comparison operators.
// right is nil for the unary predicates (is_empty, is_numeric, ...).
// The evaluator calls this for every BinaryOp whose operator is not one
// of the six symbolic comparison operators (==, !=, >, >=, <, <=), which
// it evaluates directly against value.Equal and decimal ordering.
func CompareWordOp(op string, left value.Value, right *value.Value) (bool, error) {
	switch op {
	case "contains":
		return textOrListContains(left, mustDeref(right))
	case "starts_with":
		l, lok := asText(left)
		r, rok := asText(mustDeref(right))
		if !lok || !rok {
			return false, typeError(op, 1, "Text")
		}
		return strings.HasPrefix(l, r), nil
	case "ends_with":
		l, lok := asText(left)
		r, rok := asText(mustDeref(right))
		if !lok || !rok {
			return false, typeError(op, 1, "Text")
		}
		return strings.HasSuffix(l, r), nil
	case "in_list":
		return listMembership(left, mustDeref(right), true)
	case "not_in_list":
		ok, err := listMembership(left, mustDeref(right), true)
		return !ok, err
	case "between":
		return betweenBounds(left, mustDeref(right))
	case "within_range":
		return rangeBounds(left, mustDeref(right), true)
	case "outside_range":
		return rangeBounds(left, mustDeref(right), false)
	case "matches":
		return regexMatch(left, mustDeref(right))
	case "not_matches":
		ok, err := regexMatch(left, mustDeref(right))
		return !ok, err
	case "is_empty":
		return isEmpty(left), nil
	case "is_not_empty":
		return !isEmpty(left), nil
	case "is_null":
		return left.IsNull(), nil
	case "is_not_null":
		return !left.IsNull(), nil
	case "is_numeric":
		_, ok := value.CoerceDecimal(left)
		return ok, nil
	case "is_email":
		s, ok := asText(left)
		return ok && ValidEmail(s), nil
	case "is_phone":
		s, ok := asText(left)
		return ok && ValidPhone(s), nil
	case "is_date":
		_, _, ok := left.AsTime()
		return ok, nil
	case "length_equals":
		return lengthCompare(left, mustDeref(right), 0)
	case "length_greater_than":
		return lengthCompare(left, mustDeref(right), 1)
	case "length_less_than":
		return lengthCompare(left, mustDeref(right), -1)
	case "is_positive":
		d, ok := value.CoerceDecimal(left)
		return ok && d.IsPositive(), nil
	case "is_negative":
		d, ok := value.CoerceDecimal(left)
		return ok && d.IsNegative(), nil
	case "is_zero":
		d, ok := value.CoerceDecimal(left)
		return ok && d.IsZero(), nil
	case "is_non_zero":
		d, ok := value.CoerceDecimal(left)
		return ok && !d.IsZero(), nil
	case "is_percentage":
		d, ok := value.CoerceDecimal(left)
		if !ok {
			return false, nil
		}
		zero, _ := value.Int(0).AsDecimal()
		hundred, _ := value.Int(100).AsDecimal()
		return d.GreaterThanOrEqual(zero) && d.LessThanOrEqual(hundred), nil
	case "is_currency":
		_, ok := value.CoerceDecimal(left)
		return ok, nil
	case "is_credit_score":
		return ValidCreditScore(left), nil
	case "is_ssn":
		s, ok := asText(left)
		return ok && ValidSSN(s), nil
	case "is_account_number":
		s, ok := asText(left)
		return ok && ValidAccountNumber(s), nil
	case "is_routing_number":
		s, ok := asText(left)
		return ok && ValidRoutingNumber(s), nil
	case "is_business_day":
		return isBusinessDay(left)
	case "is_weekend":
		ok, err := isBusinessDay(left)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case "age_at_least":
		return ageCompare(left, mustDeref(right), 1)
	case "age_less_than":
		return ageCompare(left, mustDeref(right), -1)
	default:
		return false, newError("UNKNOWN_FUNCTION", "unsupported comparison operator: %s", op)
	}
}

func mustDeref(v *value.Value) value.Value {
	if v == nil {
		return value.Null()
	}
	return *v
}

func isEmpty(v value.Value) bool {
	switch v.Kind() {
	case value.KindText:
		s, _ := v.AsText()
		return s == ""
	case value.KindList:
		l, _ := v.AsList()
		return len(l) == 0
	case value.KindMap:
		m, _, _ := v.AsMap()
		return len(m) == 0
	case value.KindNull:
		return true
	default:
		return false
	}
}

func textOrListContains(left, right value.Value) (bool, error) {
	if left.Kind() == value.KindList {
		return listMembership(left, right, false)
	}
	l, lok := asText(left)
	r, rok := asText(right)
	if !lok || !rok {
		return false, typeError("contains", 1, "Text or List")
	}
	return strings.Contains(l, r), nil
}

// listMembership checks needle against haystack's elements, matching by
// value.Equal. needleFirst controls argument order for readability at
// call sites (in_list passes left=needle, right=haystack).
func listMembership(a, b value.Value, needleFirst bool) (bool, error) {
	needle, haystack := a, b
	if !needleFirst {
		needle, haystack = b, a
	}
	items, ok := haystack.AsList()
	if !ok {
		return false, typeError("in_list", 2, "List")
	}
	for _, item := range items {
		if value.Equal(needle, item) {
			return true, nil
		}
	}
	return false, nil
}

func betweenBounds(left, pair value.Value) (bool, error) {
	items, ok := pair.AsList()
	if !ok || len(items) != 2 {
		return false, newError("TYPE", "between requires a 2-element bound")
	}
	d, ok := value.CoerceDecimal(left)
	lo, lok := value.CoerceDecimal(items[0])
	hi, hok := value.CoerceDecimal(items[1])
	if !ok || !lok || !hok {
		return false, typeError("between", 1, "numeric")
	}
	return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi), nil
}

func rangeBounds(left, pair value.Value, within bool) (bool, error) {
	ok, err := betweenBounds(left, pair)
	if err != nil {
		return false, err
	}
	if within {
		return ok, nil
	}
	return !ok, nil
}

func regexMatch(left, pattern value.Value) (bool, error) {
	l, lok := asText(left)
	p, pok := asText(pattern)
	if !lok || !pok {
		return false, typeError("matches", 1, "Text")
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return false, newError("REGEX", "invalid pattern %q: %v", p, err)
	}
	return re.MatchString(l), nil
}

func lengthCompare(left, right value.Value, sign int) (bool, error) {
	n, ok := lengthOf(left)
	if !ok {
		return false, typeError("length_*", 1, "Text, List, or Map")
	}
	want, ok := value.CoerceDecimal(right)
	if !ok {
		return false, typeError("length_*", 2, "numeric")
	}
	got := value.Int(int64(n))
	gd, _ := got.AsDecimal()
	switch {
	case sign == 0:
		return gd.Equal(want), nil
	case sign > 0:
		return gd.GreaterThan(want), nil
	default:
		return gd.LessThan(want), nil
	}
}

func lengthOf(v value.Value) (int, bool) {
	switch v.Kind() {
	case value.KindText:
		s, _ := v.AsText()
		return len(s), true
	case value.KindList:
		l, _ := v.AsList()
		return len(l), true
	case value.KindMap:
		m, _, _ := v.AsMap()
		return len(m), true
	default:
		return 0, false
	}
}

func isBusinessDay(v value.Value) (bool, error) {
	t, _, ok := v.AsTime()
	if !ok {
		return false, typeError("is_business_day", 1, "DateTime")
	}
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday, nil
}

func ageCompare(birthdate, years value.Value, sign int) (bool, error) {
	t, _, ok := birthdate.AsTime()
	if !ok {
		return false, typeError("age_*", 1, "DateTime")
	}
	want, ok := value.CoerceDecimal(years)
	if !ok {
		return false, typeError("age_*", 2, "numeric")
	}
	age := ageInYears(t, time.Now().UTC())
	got := value.Int(int64(age))
	gd, _ := got.AsDecimal()
	if sign > 0 {
		return gd.GreaterThanOrEqual(want), nil
	}
	return gd.LessThan(want), nil
}
