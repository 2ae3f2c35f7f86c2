// Package covenant checks stressed scenario metrics against lender covenant limits.
package covenant

import (
	"math"

	"liquidity_stress/pkg/core/stress"
)

// Default thresholds offered by the CLI prompts.
const (
	DefaultMaxLeverage     = 4.0
	DefaultMinCoverage     = 3.0
	DefaultMinCurrentRatio = 1.1
	DefaultMinCash         = 0.0
)

// Thresholds is one set of covenant limits applied to every scenario.
type Thresholds struct {
	MaxLeverage     float64 `json:"max_leverage"`      // Net Debt / EBITDA ceiling
	MinCoverage     float64 `json:"min_coverage"`      // EBITDA / Interest floor
	MinCurrentRatio float64 `json:"min_current_ratio"` // Current Ratio floor
	MinCash         float64 `json:"min_cash"`          // ending cash floor
}

// DefaultThresholds returns the CLI defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxLeverage:     DefaultMaxLeverage,
		MinCoverage:     DefaultMinCoverage,
		MinCurrentRatio: DefaultMinCurrentRatio,
		MinCash:         DefaultMinCash,
	}
}

// Report is the pass/fail outcome for one scenario.
type Report struct {
	LeveragePass     bool `json:"leverage_pass"`
	CoveragePass     bool `json:"coverage_pass"`
	CurrentRatioPass bool `json:"current_ratio_pass"`
	CashPass         bool `json:"cash_pass"`
	OverallPass      bool `json:"overall_pass"`
}

// Evaluate tests each covenant. A metric that is NaN or infinite fails its rule.
//
// OverallPass re-tests all four metrics instead of combining the four flags.
// Keep both paths in step when editing a rule.
func Evaluate(r stress.ScenarioResult, th Thresholds) Report {
	lev := r.NetDebtToEBITDA
	cov := r.EBITDAToInterest
	cr := r.CurrentRatio
	cash := r.CashEnd

	return Report{
		LeveragePass:     defined(lev) && lev <= th.MaxLeverage,
		CoveragePass:     defined(cov) && cov >= th.MinCoverage,
		CurrentRatioPass: defined(cr) && cr >= th.MinCurrentRatio,
		CashPass:         defined(cash) && cash >= th.MinCash,
		OverallPass: defined(lev) && defined(cov) && defined(cr) && defined(cash) &&
			lev <= th.MaxLeverage && cov >= th.MinCoverage && cr >= th.MinCurrentRatio && cash >= th.MinCash,
	}
}

func defined(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Flag is a labelled pass/fail column.
type Flag struct {
	Label string
	Pass  bool
}

// Flags lists the report columns in table order.
func (r Report) Flags() []Flag {
	return []Flag{
		{"Leverage Pass", r.LeveragePass},
		{"Coverage Pass", r.CoveragePass},
		{"Current Ratio Pass", r.CurrentRatioPass},
		{"Cash Pass", r.CashPass},
		{"Overall Pass", r.OverallPass},
	}
}
