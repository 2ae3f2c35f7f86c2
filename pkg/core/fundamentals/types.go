// Package fundamentals normalizes disclosed XBRL facts into a single base-year snapshot.
package fundamentals

import "fmt"

// =============================================================================
// US-GAAP CONCEPT TAGS
// =============================================================================

const (
	TagRevenues           = "Revenues"
	TagAssets             = "Assets"
	TagNetIncome          = "NetIncomeLoss"
	TagInterestExpense    = "InterestExpense"
	TagIncomeTaxExpense   = "IncomeTaxExpenseBenefit"
	TagCash               = "CashAndCashEquivalentsAtCarryingValue"
	TagCurrentAssets      = "AssetsCurrent"
	TagCurrentLiabilities = "LiabilitiesCurrent"
	TagLongTermDebt       = "LongTermDebtNoncurrent"
	TagShortTermDebt      = "DebtCurrent"
	TagTotalDebt          = "Debt"
	TagOperatingCashFlow  = "NetCashProvidedByUsedInOperatingActivities"
	TagCapex              = "PaymentsToAcquirePropertyPlantAndEquipment"
	TagOperatingIncome    = "OperatingIncomeLoss"
	TagDepreciationAmort  = "DepreciationDepletionAndAmortization"
)

// fiscalYearTags are tried in order to pin the snapshot's fiscal year.
var fiscalYearTags = []string{TagRevenues, TagAssets}

// =============================================================================
// BASE INPUTS
// =============================================================================

// BaseInputs is the canonical fundamentals snapshot for the latest fiscal year.
// Absent concepts are 0.0; Capex is negative for cash outflows.
type BaseInputs struct {
	Ticker     string `json:"ticker"`
	CIK        string `json:"cik"`
	EntityName string `json:"entity_name"`

	FiscalYear         int     `json:"fiscal_year"`
	Revenue            float64 `json:"revenue"`
	NetIncome          float64 `json:"net_income"`
	InterestExpense    float64 `json:"interest_expense"`
	TaxExpense         float64 `json:"tax_expense"`
	Cash               float64 `json:"cash"`
	CurrentAssets      float64 `json:"current_assets"`
	CurrentLiabilities float64 `json:"current_liabilities"`
	LongTermDebt       float64 `json:"long_term_debt"`
	ShortTermDebt      float64 `json:"short_term_debt"`
	TotalDebt          float64 `json:"total_debt"`
	OperatingCF        float64 `json:"operating_cf"`
	Capex              float64 `json:"capex"`
	EBITDAProxy        float64 `json:"ebitda_proxy"`
}

// LineItem is a labelled monetary field, used by report writers.
type LineItem struct {
	Label string
	Value float64
}

// LineItems lists the monetary fields in display order.
func (b BaseInputs) LineItems() []LineItem {
	return []LineItem{
		{"Revenue", b.Revenue},
		{"Net Income", b.NetIncome},
		{"Interest Expense", b.InterestExpense},
		{"Tax Expense", b.TaxExpense},
		{"Cash", b.Cash},
		{"Current Assets", b.CurrentAssets},
		{"Current Liabilities", b.CurrentLiabilities},
		{"Long-Term Debt", b.LongTermDebt},
		{"Short-Term Debt", b.ShortTermDebt},
		{"Total Debt", b.TotalDebt},
		{"Operating Cash Flow", b.OperatingCF},
		{"Capex", b.Capex},
		{"EBITDA Proxy", b.EBITDAProxy},
	}
}

// DataError means the fiscal year could not be resolved from any primary concept.
type DataError struct {
	Ticker string
	Tags   []string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("could not determine latest fiscal year for %s (tried %v)", e.Ticker, e.Tags)
}
