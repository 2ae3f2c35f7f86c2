package stress

import (
	"math"

	"liquidity_stress/pkg/core/fundamentals"
)

const (
	// divisorEpsilon is the smallest denominator SafeDivide accepts.
	divisorEpsilon = 1e-12

	// DefaultCapexToRevenue stands in for capex when the filer reported none.
	DefaultCapexToRevenue = 0.03
)

// SafeDivide returns a/b, or NaN when b is zero or within 1e-12 of it.
func SafeDivide(a, b float64) float64 {
	if b != 0 && math.Abs(b) > divisorEpsilon {
		return a / b
	}
	return math.NaN()
}

// ApplyShock runs one scenario against the base snapshot. It never fails;
// undefined ratios come back as NaN.
func ApplyShock(base fundamentals.BaseInputs, shock ShockParameters) ScenarioResult {
	revenue := base.Revenue * (1 - shock.RevenueShock)

	// Margin shock subtracts percentage points from the base margin.
	baseMargin := SafeDivide(base.EBITDAProxy, base.Revenue)
	ebitda := floorZero(revenue * (baseMargin - shock.MarginShock))

	baseRate := SafeDivide(base.InterestExpense, base.TotalDebt)
	interest := base.TotalDebt * floorZero(baseRate+shock.RateShock)

	// Working-capital hit is sized off base revenue, not shocked revenue.
	wcHit := shock.WorkingCapitalShock * base.Revenue

	ocf := base.OperatingCF
	if ocf == 0 {
		ocf = base.NetIncome
	}
	ocf -= wcHit

	capex := base.Capex
	if capex == 0 {
		capex = -DefaultCapexToRevenue * base.Revenue
	}
	capex *= 1 + shock.CapexShock

	fcf := ocf + capex
	cashEnd := base.Cash - shock.CashDraw + fcf

	currentAssets := base.CurrentAssets - wcHit
	currentLiabilities := base.CurrentLiabilities + wcHit

	netDebt := floorZero(base.TotalDebt - cashEnd)

	return ScenarioResult{
		Revenue:          revenue,
		EBITDA:           ebitda,
		Interest:         interest,
		FCF:              fcf,
		CashEnd:          cashEnd,
		CurrentRatio:     SafeDivide(currentAssets, currentLiabilities),
		NetDebtToEBITDA:  SafeDivide(netDebt, ebitda),
		EBITDAToInterest: SafeDivide(ebitda, interest),
	}
}

// RunScenarios applies each scenario in order with the same cash draw.
func RunScenarios(base fundamentals.BaseInputs, scenarios []Scenario, cashDraw float64) []Outcome {
	out := make([]Outcome, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, Outcome{
			Scenario: sc,
			Result:   ApplyShock(base, sc.WithCashDraw(cashDraw)),
		})
	}
	return out
}

// floorZero clamps at zero. NaN clamps to zero as well, so an undefined base
// margin or borrowing rate yields zero EBITDA or zero interest.
func floorZero(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
