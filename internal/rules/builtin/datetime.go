package builtin

import (
	"context"
	"strings"
	"time"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// dateLayouts is the parse-attempt order from §4.7: ISO yyyy-MM-dd, then
// US MM/dd/yyyy, then dd-MM-yyyy.
var dateLayouts = []string{"2006-01-02", "01/02/2006", "02-01-2006"}

// ParseDate tries each of dateLayouts in order, returning DATE_FORMAT on
// exhaustion.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newError("DATE_FORMAT", "unrecognized date format: %q", s)
}

func asTime(v value.Value) (time.Time, bool, error) {
	if t, dateOnly, ok := v.AsTime(); ok {
		return t, dateOnly, nil
	}
	if s, ok := asText(v); ok {
		t, err := ParseDate(s)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}
	return time.Time{}, false, typeError("date builtin", 1, "DateTime or parseable date text")
}

func ageInYears(birth, asOf time.Time) int {
	years := asOf.Year() - birth.Year()
	if asOf.Month() < birth.Month() || (asOf.Month() == birth.Month() && asOf.Day() < birth.Day()) {
		years--
	}
	return years
}

func init() {
	Register(Builtin{Name: "days_between", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		a, _, err := asTime(args[0])
		if err != nil {
			return value.Null(), err
		}
		b, _, err := asTime(args[1])
		if err != nil {
			return value.Null(), err
		}
		days := int64(b.Sub(a).Hours() / 24)
		return value.Int(days), nil
	}})
	Register(Builtin{Name: "months_between", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		a, _, err := asTime(args[0])
		if err != nil {
			return value.Null(), err
		}
		b, _, err := asTime(args[1])
		if err != nil {
			return value.Null(), err
		}
		months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
		return value.Int(int64(months)), nil
	}})
	Register(Builtin{Name: "years_between", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		a, _, err := asTime(args[0])
		if err != nil {
			return value.Null(), err
		}
		b, _, err := asTime(args[1])
		if err != nil {
			return value.Null(), err
		}
		return value.Int(int64(ageInYears(a, b))), nil
	}})
	Register(Builtin{Name: "age_in_years", MinArity: 1, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		birth, _, err := asTime(args[0])
		if err != nil {
			return value.Null(), err
		}
		asOf := time.Now().UTC()
		if len(args) == 2 {
			asOf, _, err = asTime(args[1])
			if err != nil {
				return value.Null(), err
			}
		}
		return value.Int(int64(ageInYears(birth, asOf))), nil
	}})
	Register(Builtin{Name: "now", MinArity: 0, MaxArity: 0, Fn: func(_ context.Context, _ []value.Value) (value.Value, error) {
		return value.DateTime(time.Now().UTC()), nil
	}})
	Register(Builtin{Name: "format_date", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		t, _, err := asTime(args[0])
		if err != nil {
			return value.Null(), err
		}
		pattern, ok := asText(args[1])
		if !ok {
			return value.Null(), typeError("format_date", 2, "Text")
		}
		return value.Text(t.Format(goLayoutFromPattern(pattern))), nil
	}})
}

// goLayoutFromPattern translates a subset of the common Java/ICU-style
// date pattern letters (yyyy, MM, dd, HH, mm, ss) into Go's reference
// layout, since rule authors write patterns in that familiar style.
func goLayoutFromPattern(pattern string) string {
	replacer := strings.NewReplacer(
		"yyyy", "2006", "MM", "01", "dd", "02",
		"HH", "15", "mm", "04", "ss", "05",
	)
	return replacer.Replace(pattern)
}
