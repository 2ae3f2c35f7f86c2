package facts

import (
	"sort"
	"strconv"
)

// SelectAnnualValue picks the most recent annual observation for tag.
//
// Candidates are annual observations with a numeric value. The winner has the
// greatest (End, Filed) pair; among exact ties the last one in source order wins.
// The fiscal year comes from the observation itself or, failing that, from the
// first four characters of End. When neither yields a year the selection is void.
func SelectAnnualValue(series Series, tag string) (Selection, bool) {
	annual := make([]Observation, 0, len(series[tag]))
	for _, obs := range series[tag] {
		if obs.IsAnnual() {
			annual = append(annual, obs)
		}
	}
	if len(annual) == 0 {
		return Selection{}, false
	}

	sort.SliceStable(annual, func(i, j int) bool {
		if annual[i].End != annual[j].End {
			return annual[i].End < annual[j].End
		}
		return annual[i].Filed < annual[j].Filed
	})
	latest := annual[len(annual)-1]

	fy, ok := fiscalYearOf(latest)
	if !ok {
		return Selection{}, false
	}

	return Selection{
		FiscalYear: fy,
		Value:      *latest.Value,
		End:        latest.End,
		Filed:      latest.Filed,
	}, true
}

// ValueOrZero returns the selected annual value for tag, or 0.0 when there is none.
func ValueOrZero(series Series, tag string) float64 {
	sel, ok := SelectAnnualValue(series, tag)
	if !ok {
		return 0.0
	}
	return sel.Value
}

func fiscalYearOf(obs Observation) (int, bool) {
	if obs.FiscalYear != nil {
		return *obs.FiscalYear, true
	}
	if len(obs.End) < 4 {
		return 0, false
	}
	prefix := obs.End[:4]
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	year, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return year, true
}
