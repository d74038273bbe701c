// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package eval

import (
	"github.com/holomush/ruleforge/internal/rules/builtin"
	"github.com/holomush/ruleforge/internal/rules/dsl"
	"github.com/holomush/ruleforge/internal/rules/evalctx"
	"github.com/holomush/ruleforge/internal/rules/value"
)

// derivedVariable describes one of the closed set of snake_case names
// from §4.6 that resolve by computation rather than lookup: a fixed
// tuple of canonical input names and the ratio relationship between
// them. Names were not pinned down in the distillation; this tuple is
// this implementation's concrete choice, recorded in DESIGN.md.
type derivedVariable struct {
	numeratorInputs   []string
	denominatorInputs []string
}

var derivedVariables = map[string]derivedVariable{
	"loan_to_income": {
		numeratorInputs:   []string{"loanAmount"},
		denominatorInputs: []string{"annualIncome"},
	},
	"debt_to_income": {
		numeratorInputs:   []string{"monthlyDebtPayments"},
		denominatorInputs: []string{"monthlyIncome"},
	},
	"credit_utilization": {
		numeratorInputs:   []string{"currentCreditBalance"},
		denominatorInputs: []string{"totalCreditLimit"},
	},
	"loan_to_value": {
		numeratorInputs:   []string{"loanAmount"},
		denominatorInputs: []string{"propertyValue"},
	},
	"payment_to_income": {
		numeratorInputs:   []string{"monthlyPayment"},
		denominatorInputs: []string{"monthlyIncome"},
	},
	"total_debt_service": {
		numeratorInputs:   []string{"monthlyDebtPayments", "monthlyPayment"},
		denominatorInputs: []string{"monthlyIncome"},
	},
}

// isDerivedVariable reports whether name is one of the closed set.
func isDerivedVariable(name string) bool {
	_, ok := derivedVariables[name]
	return ok
}

// evalDerivedVariable computes name's value from its fixed input tuple,
// returning Null if any required input is missing — per §4.6: "returns
// Null if any are missing, and never caches."
func evalDerivedVariable(ec *evalctx.Context, name string) value.Value {
	dv := derivedVariables[name]
	num, ok := sumInputs(ec, dv.numeratorInputs)
	if !ok {
		return value.Null()
	}
	denom, ok := sumInputs(ec, dv.denominatorInputs)
	if !ok {
		return value.Null()
	}
	d, _ := num.AsDecimal()
	e, _ := denom.AsDecimal()
	return builtin.Ratio(d, e)
}

func sumInputs(ec *evalctx.Context, names []string) (value.Value, bool) {
	total, _ := value.Int(0).AsDecimal()
	for _, name := range names {
		v, ok := ec.Lookup(name, dsl.ClassInput)
		if !ok {
			return value.Null(), false
		}
		d, ok := value.CoerceDecimal(v)
		if !ok {
			return value.Null(), false
		}
		total = total.Add(d)
	}
	return value.Decimal(total), true
}
