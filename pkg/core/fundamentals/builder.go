package fundamentals

import (
	"context"
	"fmt"
	"strings"

	"liquidity_stress/pkg/core/facts"
)

// IdentifierResolver maps a trading symbol to a 10-digit CIK.
type IdentifierResolver interface {
	ResolveCIK(ctx context.Context, ticker string) (string, error)
}

// FactsFetcher retrieves the disclosed facts for a CIK.
type FactsFetcher interface {
	FetchFacts(ctx context.Context, cik string) (*facts.Company, error)
}

// Builder assembles BaseInputs from the two SEC collaborators.
type Builder struct {
	resolver IdentifierResolver
	fetcher  FactsFetcher
}

// NewBuilder creates a Builder. The ingest.EDGARClient satisfies both interfaces.
func NewBuilder(resolver IdentifierResolver, fetcher FactsFetcher) *Builder {
	return &Builder{resolver: resolver, fetcher: fetcher}
}

// Build resolves the symbol, fetches its facts and normalizes them.
// Lookup and network errors from the collaborators are returned wrapped;
// an unresolvable fiscal year returns *DataError.
func (b *Builder) Build(ctx context.Context, symbol string) (BaseInputs, error) {
	ticker := strings.ToUpper(strings.TrimSpace(symbol))

	cik, err := b.resolver.ResolveCIK(ctx, ticker)
	if err != nil {
		return BaseInputs{}, fmt.Errorf("resolve ticker %s: %w", ticker, err)
	}

	company, err := b.fetcher.FetchFacts(ctx, cik)
	if err != nil {
		return BaseInputs{}, fmt.Errorf("fetch company facts for CIK %s: %w", cik, err)
	}

	return BuildFromFacts(ticker, company)
}

// BuildFromFacts normalizes already-fetched facts into BaseInputs.
func BuildFromFacts(ticker string, company *facts.Company) (BaseInputs, error) {
	var series facts.Series
	base := BaseInputs{Ticker: ticker}
	if company != nil {
		series = company.Facts
		base.CIK = company.CIK
		base.EntityName = company.EntityName
	}

	fy, ok := latestFiscalYear(series)
	if !ok {
		return BaseInputs{}, &DataError{Ticker: ticker, Tags: fiscalYearTags}
	}
	base.FiscalYear = fy

	val := func(tag string) float64 { return facts.ValueOrZero(series, tag) }

	base.Revenue = val(TagRevenues)
	base.NetIncome = val(TagNetIncome)
	base.InterestExpense = val(TagInterestExpense)
	base.TaxExpense = val(TagIncomeTaxExpense)

	base.Cash = val(TagCash)
	base.CurrentAssets = val(TagCurrentAssets)
	base.CurrentLiabilities = val(TagCurrentLiabilities)

	base.LongTermDebt = val(TagLongTermDebt)
	base.ShortTermDebt = val(TagShortTermDebt)
	base.TotalDebt = val(TagTotalDebt)
	if base.TotalDebt <= 0 {
		base.TotalDebt = floorZero(base.LongTermDebt + base.ShortTermDebt)
	}

	base.OperatingCF = val(TagOperatingCashFlow)

	// Filers report capex as a positive payment; store it as an outflow.
	base.Capex = val(TagCapex)
	if base.Capex > 0 {
		base.Capex = -base.Capex
	}

	ebit := val(TagOperatingIncome)
	da := val(TagDepreciationAmort)
	if ebit != 0 || da != 0 {
		base.EBITDAProxy = ebit + da
	} else {
		base.EBITDAProxy = floorZero(base.NetIncome + base.InterestExpense + base.TaxExpense)
	}

	return base, nil
}

func latestFiscalYear(series facts.Series) (int, bool) {
	for _, tag := range fiscalYearTags {
		if sel, ok := facts.SelectAnnualValue(series, tag); ok {
			return sel.FiscalYear, true
		}
	}
	return 0, false
}

func floorZero(v float64) float64 {
	if v > 0 {
		return v
	}
	return 0
}
