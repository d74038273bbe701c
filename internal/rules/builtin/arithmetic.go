package builtin

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/holomush/ruleforge/internal/rules/value"
)

func init() {
	Register(Builtin{Name: "add", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("add", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Add(b), nil
	})})
	Register(Builtin{Name: "subtract", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("subtract", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Sub(b), nil
	})})
	Register(Builtin{Name: "multiply", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("multiply", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Mul(b), nil
	})})
	Register(Builtin{Name: "divide", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("divide", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, newError("DIVISION_BY_ZERO", "divide: division by zero")
		}
		return a.DivRound(b, 10), nil
	})})
	Register(Builtin{Name: "modulo", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("modulo", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		if b.IsZero() {
			return decimal.Zero, newError("DIVISION_BY_ZERO", "modulo: division by zero")
		}
		return a.Mod(b), nil
	})})
	Register(Builtin{Name: "power", MinArity: 2, MaxArity: 2, Fn: wrapBinaryDecimal("power", func(a, b decimal.Decimal) (decimal.Decimal, error) {
		return a.Pow(b), nil
	})})
	Register(Builtin{Name: "abs", MinArity: 1, MaxArity: 1, Fn: wrapUnaryDecimal("abs", func(a decimal.Decimal) (decimal.Decimal, error) {
		return a.Abs(), nil
	})})
	Register(Builtin{Name: "floor", MinArity: 1, MaxArity: 1, Fn: wrapUnaryDecimal("floor", func(a decimal.Decimal) (decimal.Decimal, error) {
		return a.RoundFloor(0), nil
	})})
	Register(Builtin{Name: "ceil", MinArity: 1, MaxArity: 1, Fn: wrapUnaryDecimal("ceil", func(a decimal.Decimal) (decimal.Decimal, error) {
		return a.RoundCeil(0), nil
	})})
	Register(Builtin{Name: "round", MinArity: 1, MaxArity: 2, Fn: roundFn})
	Register(Builtin{Name: "min", MinArity: 2, MaxArity: -1, Fn: minMaxFn(true)})
	Register(Builtin{Name: "max", MinArity: 2, MaxArity: -1, Fn: minMaxFn(false)})
}

func wrapBinaryDecimal(name string, f func(a, b decimal.Decimal) (decimal.Decimal, error)) Fn {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		a, ok := value.CoerceDecimal(args[0])
		if !ok {
			return value.Null(), typeError(name, 1, "a decimal or numeric text")
		}
		b, ok := value.CoerceDecimal(args[1])
		if !ok {
			return value.Null(), typeError(name, 2, "a decimal or numeric text")
		}
		r, err := f(a, b)
		if err != nil {
			return value.Null(), err
		}
		return value.Decimal(r), nil
	}
}

func wrapUnaryDecimal(name string, f func(a decimal.Decimal) (decimal.Decimal, error)) Fn {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		a, ok := value.CoerceDecimal(args[0])
		if !ok {
			return value.Null(), typeError(name, 1, "a decimal or numeric text")
		}
		r, err := f(a)
		if err != nil {
			return value.Null(), err
		}
		return value.Decimal(r), nil
	}
}

// roundFn implements round(v, [scale]) with HALF_UP rounding, per §9's
// "HALF_UP for round" rule. scale defaults to 0.
func roundFn(_ context.Context, args []value.Value) (value.Value, error) {
	v, ok := value.CoerceDecimal(args[0])
	if !ok {
		return value.Null(), typeError("round", 1, "a decimal or numeric text")
	}
	scale := int32(0)
	if len(args) == 2 {
		s, ok := value.CoerceDecimal(args[1])
		if !ok {
			return value.Null(), typeError("round", 2, "an integer scale")
		}
		scale = int32(s.IntPart())
	}
	return value.Decimal(v.Round(scale)), nil
}

func minMaxFn(wantMin bool) Fn {
	return func(_ context.Context, args []value.Value) (value.Value, error) {
		best, ok := value.CoerceDecimal(args[0])
		if !ok {
			return value.Null(), typeError("min/max", 1, "a decimal or numeric text")
		}
		for i := 1; i < len(args); i++ {
			d, ok := value.CoerceDecimal(args[i])
			if !ok {
				return value.Null(), typeError("min/max", i+1, "a decimal or numeric text")
			}
			if (wantMin && d.LessThan(best)) || (!wantMin && d.GreaterThan(best)) {
				best = d
			}
		}
		return value.Decimal(best), nil
	}
}
