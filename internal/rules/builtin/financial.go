package builtin

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// decimalsOf coerces every arg to Decimal, failing fast with a typed
// error naming the offending position.
func decimalsOf(name string, args []value.Value) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(args))
	for i, a := range args {
		d, ok := value.CoerceDecimal(a)
		if !ok {
			return nil, typeError(name, i+1, "a decimal or numeric text")
		}
		out[i] = d
	}
	return out, nil
}

// Ratio divides numerator by denominator, returning the PositiveInfinity
// sentinel on a zero denominator rather than raising DIVISION_BY_ZERO —
// §4.6: "financial ratios on a zero denominator return positive infinity
// sentinel ... rather than erroring." Exported so the evaluator's derived
// financial-ratio variables (internal/rules/eval) share this rule.
func Ratio(numerator, denominator decimal.Decimal) value.Value {
	if denominator.IsZero() {
		return value.PositiveInfinity
	}
	return value.Decimal(numerator.DivRound(denominator, 10))
}

func init() {
	Register(Builtin{Name: "npv", MinArity: 2, MaxArity: -1, Fn: npvFn})
	Register(Builtin{Name: "irr", MinArity: 2, MaxArity: -1, Fn: irrFn})
	Register(Builtin{Name: "pmt", MinArity: 3, MaxArity: 5, Fn: pmtFn})
	Register(Builtin{Name: "pv", MinArity: 3, MaxArity: 3, Fn: pvFn})
	Register(Builtin{Name: "fv", MinArity: 3, MaxArity: 3, Fn: fvFn})
	Register(Builtin{Name: "compound_interest", MinArity: 3, MaxArity: 4, Fn: compoundInterestFn})
	Register(Builtin{Name: "simple_interest", MinArity: 3, MaxArity: 3, Fn: simpleInterestFn})
	Register(Builtin{Name: "loan_payment", MinArity: 3, MaxArity: 3, Fn: loanPaymentFn})
	Register(Builtin{Name: "ratio", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		ds, err := decimalsOf("ratio", args)
		if err != nil {
			return value.Null(), err
		}
		return Ratio(ds[0], ds[1]), nil
	}})
}

// npv(rate, cf0, cf1, ...) — sum cf_t / (1+rate)^t.
func npvFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("npv", args)
	if err != nil {
		return value.Null(), err
	}
	rate := ds[0]
	cashflows := ds[1:]
	one := decimal.NewFromInt(1)
	total := decimal.Zero
	discountBase := one.Add(rate)
	for t, cf := range cashflows {
		discount := discountBase.Pow(decimal.NewFromInt(int64(t)))
		total = total.Add(ratioOrZero(cf, discount))
	}
	return value.Decimal(total), nil
}

func ratioOrZero(num, denom decimal.Decimal) decimal.Decimal {
	if denom.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(denom, 10)
}

// irrFn finds the rate where npv(rate, cashflows...) == 0 via
// Newton-Raphson, 100-iteration cap, 1e-6 tolerance, per §4.7 — falls
// back to float64 internally, documented as precision-lossy per §9.
func irrFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("irr", args)
	if err != nil {
		return value.Null(), err
	}
	cfs := make([]float64, len(ds))
	for i, d := range ds {
		f, _ := d.Float64()
		cfs[i] = f
	}

	npv := func(rate float64) float64 {
		sum := 0.0
		for t, cf := range cfs {
			sum += cf / math.Pow(1+rate, float64(t))
		}
		return sum
	}
	dnpv := func(rate float64) float64 {
		sum := 0.0
		for t, cf := range cfs {
			if t == 0 {
				continue
			}
			sum += -float64(t) * cf / math.Pow(1+rate, float64(t+1))
		}
		return sum
	}

	rate := 0.1
	const tolerance = 1e-6
	const maxIter = 100
	converged := false
	for i := 0; i < maxIter; i++ {
		f := npv(rate)
		if math.Abs(f) < tolerance {
			converged = true
			break
		}
		d := dnpv(rate)
		if d == 0 {
			break
		}
		rate -= f / d
	}
	if !converged {
		return value.Null(), newError("INTERNAL", "irr: did not converge within %d iterations", maxIter)
	}
	return value.Float(rate), nil
}

// pmtFn computes the level payment amortizing pv over nper periods at
// rate, optionally targeting a future value fv and paying at period
// start (type=1) vs period end (type=0, default).
func pmtFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("pmt", args)
	if err != nil {
		return value.Null(), err
	}
	rate, nper, pv := ds[0], ds[1], ds[2]
	fv := decimal.Zero
	payAtStart := false
	if len(ds) >= 4 {
		fv = ds[3]
	}
	if len(ds) == 5 {
		payAtStart = !ds[4].IsZero()
	}

	if rate.IsZero() {
		return value.Decimal(pv.Add(fv).Neg().DivRound(nper, 10)), nil
	}
	rf, _ := rate.Float64()
	nf, _ := nper.Float64()
	pvf, _ := pv.Float64()
	fvf, _ := fv.Float64()
	pow := math.Pow(1+rf, nf)
	pmt := -(pvf*pow + fvf) * rf / (pow - 1)
	if payAtStart {
		pmt /= 1 + rf
	}
	return value.Float(pmt), nil
}

func pvFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("pv", args)
	if err != nil {
		return value.Null(), err
	}
	rate, nper, pmt := ds[0], ds[1], ds[2]
	rf, _ := rate.Float64()
	nf, _ := nper.Float64()
	pmtf, _ := pmt.Float64()
	if rf == 0 {
		return value.Float(-pmtf * nf), nil
	}
	pow := math.Pow(1+rf, nf)
	return value.Float(-pmtf * (pow - 1) / (rf * pow)), nil
}

func fvFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("fv", args)
	if err != nil {
		return value.Null(), err
	}
	rate, nper, pmt := ds[0], ds[1], ds[2]
	rf, _ := rate.Float64()
	nf, _ := nper.Float64()
	pmtf, _ := pmt.Float64()
	if rf == 0 {
		return value.Float(-pmtf * nf), nil
	}
	pow := math.Pow(1+rf, nf)
	return value.Float(-pmtf * (pow - 1) / rf), nil
}

// compound_interest(p, r, t, [n]) — n compounding periods per year,
// default 1 (annual).
func compoundInterestFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("compound_interest", args)
	if err != nil {
		return value.Null(), err
	}
	p, r, t := ds[0], ds[1], ds[2]
	n := decimal.NewFromInt(1)
	if len(ds) == 4 {
		n = ds[3]
	}
	one := decimal.NewFromInt(1)
	base := one.Add(r.DivRound(n, 10))
	exponent := n.Mul(t)
	total := p.Mul(base.Pow(exponent))
	return value.Decimal(total.Sub(p)), nil
}

func simpleInterestFn(_ context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("simple_interest", args)
	if err != nil {
		return value.Null(), err
	}
	p, r, t := ds[0], ds[1], ds[2]
	return value.Decimal(p.Mul(r).Mul(t)), nil
}

// loan_payment(principal, annualRate, termMonths) is a convenience alias
// over pmt with a monthly-rate, monthly-term convention.
func loanPaymentFn(ctx context.Context, args []value.Value) (value.Value, error) {
	ds, err := decimalsOf("loan_payment", args)
	if err != nil {
		return value.Null(), err
	}
	principal, annualRate, termMonths := ds[0], ds[1], ds[2]
	monthlyRate := annualRate.DivRound(decimal.NewFromInt(12), 10)
	result, err := pmtFn(ctx, []value.Value{
		value.Decimal(monthlyRate), value.Decimal(termMonths), value.Decimal(principal.Neg()),
	})
	return result, err
}
