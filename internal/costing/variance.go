package costing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Expected holds the budgeted figures of a project.
type Expected struct {
	Material      float64
	Labor         float64
	Equipment     float64
	ContractValue float64
}

// ExpectedTotal sums the budgeted figures.
func ExpectedTotal(e Expected) float64 {
	return e.Material + e.Labor + e.Equipment + e.ContractValue
}

// Variance is the share of the expected cost left unspent, in percent
// rounded to one decimal. Negative means over budget. It is 0 when nothing
// was expected or either figure is not finite.
func Variance(expected, actual float64) float64 {
	if expected == 0 || !finite(expected) || !finite(actual) {
		return 0
	}
	exp := decimal.NewFromFloat(expected)
	v := exp.Sub(decimal.NewFromFloat(actual)).Div(exp).Mul(decimal.NewFromInt(100))
	return v.Round(1).InexactFloat64()
}

// VarianceStatus classifies a variance percentage.
type VarianceStatus string

const (
	UnderBudget VarianceStatus = "under_budget"
	OnBudget    VarianceStatus = "on_budget"
	OverBudget  VarianceStatus = "over_budget"
	NoBudget    VarianceStatus = "no_budget"
)

func ClassifyVariance(pct float64) VarianceStatus {
	switch {
	case pct > 0:
		return UnderBudget
	case pct < 0:
		return OverBudget
	default:
		return OnBudget
	}
}

// Share is one category of a cost breakdown.
type Share struct {
	Category string
	Amount   float64
	Percent  float64
}

// Breakdown splits total cost into its categories with percentages rounded
// to one decimal. It returns nil when the total is 0 or any figure is not
// finite.
func Breakdown(c Costs, contract float64) []Share {
	if c.Total == 0 || !finite(c.Total, c.Material, c.Labor, c.Equipment, contract) {
		return nil
	}
	parts := []Share{
		{Category: "material", Amount: c.Material},
		{Category: "labor", Amount: c.Labor},
		{Category: "equipment", Amount: c.Equipment},
		{Category: "contract", Amount: contract},
	}
	total := decimal.NewFromFloat(c.Total)
	for i := range parts {
		parts[i].Percent = decimal.NewFromFloat(parts[i].Amount).
			Div(total).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
	}
	return parts
}

// Financials summarizes posted invoices and payments.
type Financials struct {
	Invoiced    float64
	Paid        float64
	Outstanding float64
}

// PostedAmount is an invoice or payment amount with its posting flag.
type PostedAmount struct {
	Amount float64
	Posted bool
}

// SumPosted adds the posted amounts.
func SumPosted(items []PostedAmount) float64 {
	var total float64
	for _, it := range items {
		if it.Posted {
			total += it.Amount
		}
	}
	return total
}

func Summarize(invoices, payments []PostedAmount) Financials {
	f := Financials{
		Invoiced: SumPosted(invoices),
		Paid:     SumPosted(payments),
	}
	f.Outstanding = f.Invoiced - f.Paid
	return f
}

// Round2 rounds a monetary amount to cents. Non-finite values are returned
// unchanged.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
