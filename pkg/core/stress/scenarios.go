package stress

import (
	"fmt"
	"math"
	"strings"
)

// Preset scenario names.
const (
	ScenarioBase   = "Base"
	ScenarioMild   = "Mild"
	ScenarioSevere = "Severe"
)

// DefaultScenarios returns the built-in presets in report order.
func DefaultScenarios() []Scenario {
	return []Scenario{
		{Name: ScenarioBase},
		{Name: ScenarioMild, Shocks: ShockParameters{
			RevenueShock: 0.05, MarginShock: 0.02, RateShock: 0.01, WorkingCapitalShock: 0.01, CapexShock: 0.05,
		}},
		{Name: ScenarioSevere, Shocks: ShockParameters{
			RevenueShock: 0.15, MarginShock: 0.05, RateShock: 0.02, WorkingCapitalShock: 0.03, CapexShock: 0.10,
		}},
	}
}

// ValidateScenarios checks names are present and unique and every shock is finite.
func ValidateScenarios(scenarios []Scenario) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios defined")
	}
	seen := make(map[string]bool, len(scenarios))
	for i, sc := range scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return fmt.Errorf("scenario %d has no name", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return fmt.Errorf("duplicate scenario name %q", name)
		}
		seen[key] = true

		s := sc.Shocks
		for _, f := range []struct {
			label string
			v     float64
		}{
			{"revenue_shock", s.RevenueShock},
			{"margin_shock", s.MarginShock},
			{"rate_shock", s.RateShock},
			{"working_capital_shock", s.WorkingCapitalShock},
			{"capex_shock", s.CapexShock},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
				return fmt.Errorf("scenario %q: %s must be finite", name, f.label)
			}
		}
	}
	return nil
}
