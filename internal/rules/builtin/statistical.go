package builtin

import (
	"context"
	"math"

	"github.com/holomush/ruleforge/internal/rules/value"
)

// zScoreTable covers the three standard confidence levels named in
// §4.7 exactly; anything else falls back to the erf-inverse
// approximation below.
var zScoreTable = map[string]float64{
	"0.9":  1.2815515655446004,
	"0.90": 1.2815515655446004,
	"0.95": 1.6448536269514722,
	"0.99": 2.3263478740408408,
}

// erfInv approximates the inverse error function via the Winitzki
// rational approximation, used when the requested confidence level is
// not one of the three tabulated standard values. Documented as
// precision-lossy per §9.
func erfInv(x float64) float64 {
	const a = 0.147
	ln1mx2 := math.Log(1 - x*x)
	t1 := 2/(math.Pi*a) + ln1mx2/2
	t2 := ln1mx2 / a
	return math.Copysign(math.Sqrt(math.Sqrt(t1*t1-t2)-t1), x)
}

func zScoreFor(confidence float64) float64 {
	key := trimConfidenceKey(confidence)
	if z, ok := zScoreTable[key]; ok {
		return z
	}
	return math.Sqrt2 * erfInv(2*confidence-1)
}

func trimConfidenceKey(c float64) string {
	switch {
	case math.Abs(c-0.90) < 1e-9:
		return "0.90"
	case math.Abs(c-0.95) < 1e-9:
		return "0.95"
	case math.Abs(c-0.99) < 1e-9:
		return "0.99"
	default:
		return ""
	}
}

func meanOf(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddevOf(xs []float64, mean float64) float64 {
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func floatsOf(name string, vals []value.Value) ([]float64, error) {
	out := make([]float64, len(vals))
	for i, v := range vals {
		d, ok := value.CoerceDecimal(v)
		if !ok {
			return nil, typeError(name, i+1, "numeric")
		}
		f, _ := d.Float64()
		out[i] = f
	}
	return out, nil
}

// splitOnSeparator partitions args at the first Text-valued argument,
// per §4.7's "separator is a distinguished String argument that
// partitions the call."
func splitOnSeparator(args []value.Value) (before, after []value.Value, sep string, ok bool) {
	for i, a := range args {
		if s, isText := a.AsText(); isText {
			return args[:i], args[i+1:], s, true
		}
	}
	return nil, nil, "", false
}

func init() {
	Register(Builtin{Name: "var", MinArity: 3, MaxArity: 4, Fn: varFn})
	Register(Builtin{Name: "sharpe_ratio", MinArity: 2, MaxArity: 2, Fn: sharpeRatioFn})
	Register(Builtin{Name: "volatility", MinArity: 1, MaxArity: -1, Fn: volatilityFn})
	Register(Builtin{Name: "correlation", MinArity: 3, MaxArity: -1, Fn: correlationFn})
	Register(Builtin{Name: "beta", MinArity: 3, MaxArity: -1, Fn: betaFn})
}

// var(portfolio, conf, vol, [horizon]) — parametric Value-at-Risk:
// portfolio * z(conf) * vol * sqrt(horizon).
func varFn(_ context.Context, args []value.Value) (value.Value, error) {
	fs, err := floatsOf("var", args)
	if err != nil {
		return value.Null(), err
	}
	portfolio, conf, vol := fs[0], fs[1], fs[2]
	horizon := 1.0
	if len(fs) == 4 {
		horizon = fs[3]
	}
	z := zScoreFor(conf)
	return value.Float(portfolio * z * vol * math.Sqrt(horizon)), nil
}

func sharpeRatioFn(_ context.Context, args []value.Value) (value.Value, error) {
	fs, err := floatsOf("sharpe_ratio", args)
	if err != nil {
		return value.Null(), err
	}
	returns := fs[:len(fs)-1]
	riskFreeRate := fs[len(fs)-1]
	mean := meanOf(returns)
	sd := stddevOf(returns, mean)
	if sd == 0 {
		return value.PositiveInfinity, nil
	}
	return value.Float((mean - riskFreeRate) / sd), nil
}

func volatilityFn(_ context.Context, args []value.Value) (value.Value, error) {
	fs, err := floatsOf("volatility", args)
	if err != nil {
		return value.Null(), err
	}
	if len(fs) < 2 {
		return value.Float(0), nil
	}
	mean := meanOf(fs)
	return value.Float(stddevOf(fs, mean)), nil
}

// correlation(series1..., separator, series2...) — Pearson correlation
// coefficient between the two series either side of the separator.
func correlationFn(_ context.Context, args []value.Value) (value.Value, error) {
	before, after, _, ok := splitOnSeparator(args)
	if !ok {
		return value.Null(), newError("ARITY", "correlation requires a String separator argument")
	}
	s1, err := floatsOf("correlation", before)
	if err != nil {
		return value.Null(), err
	}
	s2, err := floatsOf("correlation", after)
	if err != nil {
		return value.Null(), err
	}
	if len(s1) != len(s2) || len(s1) < 2 {
		return value.Null(), newError("ARITY", "correlation series must be equal length and at least 2 points")
	}
	return value.Float(pearson(s1, s2)), nil
}

func pearson(x, y []float64) float64 {
	mx, my := meanOf(x), meanOf(y)
	var num, dx2, dy2 float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	denom := math.Sqrt(dx2 * dy2)
	if denom == 0 {
		return 0
	}
	return num / denom
}

// beta(assetReturns..., separator, marketReturns...) — covariance(a,m) /
// variance(m), analogous to correlation's separator-partitioned call.
func betaFn(_ context.Context, args []value.Value) (value.Value, error) {
	before, after, _, ok := splitOnSeparator(args)
	if !ok {
		return value.Null(), newError("ARITY", "beta requires a String separator argument")
	}
	asset, err := floatsOf("beta", before)
	if err != nil {
		return value.Null(), err
	}
	market, err := floatsOf("beta", after)
	if err != nil {
		return value.Null(), err
	}
	if len(asset) != len(market) || len(asset) < 2 {
		return value.Null(), newError("ARITY", "beta series must be equal length and at least 2 points")
	}
	ma, mm := meanOf(asset), meanOf(market)
	var cov, varM float64
	for i := range asset {
		da := asset[i] - ma
		dm := market[i] - mm
		cov += da * dm
		varM += dm * dm
	}
	if varM == 0 {
		return value.PositiveInfinity, nil
	}
	return value.Float(cov / varM), nil
}
