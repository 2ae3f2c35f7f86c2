// Package facts models disclosed XBRL facts and selects the annual value for a concept.
package facts

import "encoding/json"

// FiscalPeriodAnnual is the fiscal-period label SEC uses for full-year facts.
const FiscalPeriodAnnual = "FY"

// Observation is a single disclosed value for one concept.
type Observation struct {
	Value        *float64 `json:"val"`
	End          string   `json:"end"`   // Period end, e.g. "2023-12-31"
	Filed        string   `json:"filed"` // Filing date, e.g. "2024-02-16"
	FiscalPeriod string   `json:"fp"`    // "FY", "Q1".."Q3"
	FiscalYear   *int     `json:"fy,omitempty"`
	Form         string   `json:"form,omitempty"`
	Accession    string   `json:"accn,omitempty"`
}

// UnmarshalJSON decodes an observation leniently: a val or fy that is not a
// JSON number is left nil instead of failing the whole document.
func (o *Observation) UnmarshalJSON(data []byte) error {
	type plain Observation
	var raw struct {
		plain
		Value      json.RawMessage `json:"val"`
		FiscalYear json.RawMessage `json:"fy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = Observation(raw.plain)
	o.Value = nil
	o.FiscalYear = nil
	if len(raw.Value) > 0 {
		var v *float64
		if json.Unmarshal(raw.Value, &v) == nil {
			o.Value = v
		}
	}
	if len(raw.FiscalYear) > 0 {
		var y *int
		if json.Unmarshal(raw.FiscalYear, &y) == nil {
			o.FiscalYear = y
		}
	}
	return nil
}

// IsAnnual reports whether the observation covers a full fiscal year and carries a number.
func (o Observation) IsAnnual() bool {
	return o.FiscalPeriod == FiscalPeriodAnnual && o.Value != nil
}

// Series maps a concept tag (e.g. "Revenues") to its observations in source order.
type Series map[string][]Observation

// Add appends observations for a tag.
func (s Series) Add(tag string, obs ...Observation) {
	s[tag] = append(s[tag], obs...)
}

// Company is the typed result of a companyfacts fetch.
type Company struct {
	CIK        string `json:"cik"` // zero-padded to 10 digits
	EntityName string `json:"entity_name"`
	Facts      Series `json:"facts"`
}

// Selection is the resolved annual value for a concept.
type Selection struct {
	FiscalYear int
	Value      float64
	End        string
	Filed      string
}
