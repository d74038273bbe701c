package builtin

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/holomush/ruleforge/internal/rules/value"
)

const earthRadiusKm = 6371.0

// parseLatLng accepts a "lat,lng" string, {lat,lng} Map, or [lat,lng]
// List, per §4.7's distance_between argument contract.
func parseLatLng(v value.Value) (lat, lng float64, ok bool) {
	switch v.Kind() {
	case value.KindText:
		s, _ := v.AsText()
		parts := strings.Split(s, ",")
		if len(parts) != 2 {
			return 0, 0, false
		}
		la, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return la, lo, true
	case value.KindMap:
		m, _, _ := v.AsMap()
		laV, lok := m["lat"]
		loV, gok := m["lng"]
		if !lok || !gok {
			return 0, 0, false
		}
		laD, ok1 := value.CoerceDecimal(laV)
		loD, ok2 := value.CoerceDecimal(loV)
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		la, _ := laD.Float64()
		lo, _ := loD.Float64()
		return la, lo, true
	case value.KindList:
		items, _ := v.AsList()
		if len(items) != 2 {
			return 0, 0, false
		}
		laD, ok1 := value.CoerceDecimal(items[0])
		loD, ok2 := value.CoerceDecimal(items[1])
		if !ok1 || !ok2 {
			return 0, 0, false
		}
		la, _ := laD.Float64()
		lo, _ := loD.Float64()
		return la, lo, true
	default:
		return 0, 0, false
	}
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func init() {
	Register(Builtin{Name: "distance_between", MinArity: 2, MaxArity: 2, Fn: func(_ context.Context, args []value.Value) (value.Value, error) {
		lat1, lng1, ok1 := parseLatLng(args[0])
		lat2, lng2, ok2 := parseLatLng(args[1])
		if !ok1 || !ok2 {
			return value.Null(), typeError("distance_between", 1, `"lat,lng" text, {lat,lng} map, or [lat,lng] list`)
		}
		return value.Float(haversineKm(lat1, lng1, lat2, lng2)), nil
	}})
}
