// Package stress propagates fixed shock scenarios through a base-year snapshot.
package stress

import (
	"encoding/json"
	"math"
)

// ShockParameters is the full shock vector for one scenario run.
type ShockParameters struct {
	RevenueShock        float64 `json:"revenue_shock" yaml:"revenue_shock"`               // fractional revenue decline
	MarginShock         float64 `json:"margin_shock" yaml:"margin_shock"`                 // absolute EBITDA-margin reduction
	RateShock           float64 `json:"rate_shock" yaml:"rate_shock"`                     // absolute add-on to implied borrowing rate
	WorkingCapitalShock float64 `json:"working_capital_shock" yaml:"working_capital_shock"` // fraction of base revenue consumed
	CapexShock          float64 `json:"capex_shock" yaml:"capex_shock"`                   // fractional change to capex magnitude
	CashDraw            float64 `json:"cash_draw" yaml:"-"`                               // one-time draw, same for every scenario
}

// Scenario is a named shock preset. CashDraw on the embedded parameters is
// ignored; the run-level draw is applied instead.
type Scenario struct {
	Name   string          `json:"name" yaml:"name"`
	Shocks ShockParameters `json:"shocks" yaml:"shocks"`
}

// WithCashDraw returns the scenario's shock vector with the run-level cash draw.
func (s Scenario) WithCashDraw(cashDraw float64) ShockParameters {
	p := s.Shocks
	p.CashDraw = cashDraw
	return p
}

// ScenarioResult holds the derived metrics for one scenario. Ratios whose
// denominator is zero or near zero are NaN.
type ScenarioResult struct {
	Revenue          float64
	EBITDA           float64
	Interest         float64
	FCF              float64
	CashEnd          float64
	CurrentRatio     float64
	NetDebtToEBITDA  float64
	EBITDAToInterest float64
}

// Metric is a labelled ScenarioResult column.
type Metric struct {
	Label string
	Value float64
}

// Metrics lists the result columns in report order.
func (r ScenarioResult) Metrics() []Metric {
	return []Metric{
		{"Revenue", r.Revenue},
		{"EBITDA", r.EBITDA},
		{"Interest", r.Interest},
		{"FCF", r.FCF},
		{"Cash End", r.CashEnd},
		{"Current Ratio", r.CurrentRatio},
		{"Net Debt / EBITDA", r.NetDebtToEBITDA},
		{"EBITDA / Interest", r.EBITDAToInterest},
	}
}

// MarshalJSON writes undefined metrics as null since JSON has no NaN.
func (r ScenarioResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Revenue          *float64 `json:"revenue"`
		EBITDA           *float64 `json:"ebitda"`
		Interest         *float64 `json:"interest"`
		FCF              *float64 `json:"fcf"`
		CashEnd          *float64 `json:"cash_end"`
		CurrentRatio     *float64 `json:"current_ratio"`
		NetDebtToEBITDA  *float64 `json:"net_debt_to_ebitda"`
		EBITDAToInterest *float64 `json:"ebitda_to_interest"`
	}{
		Revenue:          finiteOrNil(r.Revenue),
		EBITDA:           finiteOrNil(r.EBITDA),
		Interest:         finiteOrNil(r.Interest),
		FCF:              finiteOrNil(r.FCF),
		CashEnd:          finiteOrNil(r.CashEnd),
		CurrentRatio:     finiteOrNil(r.CurrentRatio),
		NetDebtToEBITDA:  finiteOrNil(r.NetDebtToEBITDA),
		EBITDAToInterest: finiteOrNil(r.EBITDAToInterest),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Outcome pairs a scenario with its result.
type Outcome struct {
	Scenario Scenario       `json:"scenario"`
	Result   ScenarioResult `json:"result"`
}
