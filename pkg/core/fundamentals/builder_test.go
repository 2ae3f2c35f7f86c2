package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidity_stress/pkg/core/facts"
	"liquidity_stress/pkg/core/ingest"
)

type fakeSEC struct {
	ciks      map[string]string
	company   *facts.Company
	fetchErr  error
	fetchedID string
}

func (f *fakeSEC) ResolveCIK(_ context.Context, ticker string) (string, error) {
	if cik, ok := f.ciks[ticker]; ok {
		return cik, nil
	}
	return "", &ingest.LookupError{Ticker: ticker}
}

func (f *fakeSEC) FetchFacts(_ context.Context, cik string) (*facts.Company, error) {
	f.fetchedID = cik
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.company, nil
}

func annual(year int, v float64) facts.Observation {
	end := fmt.Sprintf("%04d-12-31", year)
	return facts.Observation{Value: &v, End: end, Filed: end, FiscalPeriod: "FY", FiscalYear: &year}
}

func seriesOf(year int, values map[string]float64) facts.Series {
	s := facts.Series{}
	for tag, v := range values {
		s.Add(tag, annual(year, v))
	}
	return s
}

func TestBuild_FullSnapshot(t *testing.T) {
	sec := &fakeSEC{
		ciks: map[string]string{"ACME": "0000000042"},
		company: &facts.Company{CIK: "0000000042", EntityName: "Acme Corp", Facts: seriesOf(2023, map[string]float64{
			TagRevenues:           100,
			TagNetIncome:          8,
			TagInterestExpense:    5,
			TagIncomeTaxExpense:   2,
			TagCash:               10,
			TagCurrentAssets:      40,
			TagCurrentLiabilities: 30,
			TagLongTermDebt:       35,
			TagShortTermDebt:      15,
			TagTotalDebt:          50,
			TagOperatingCashFlow:  15,
			TagCapex:              3,
			TagOperatingIncome:    14,
			TagDepreciationAmort:  6,
		})},
	}

	base, err := NewBuilder(sec, sec).Build(context.Background(), " acme ")
	require.NoError(t, err)

	assert.Equal(t, "0000000042", sec.fetchedID)
	assert.Equal(t, "ACME", base.Ticker)
	assert.Equal(t, "Acme Corp", base.EntityName)
	assert.Equal(t, 2023, base.FiscalYear)
	assert.Equal(t, 50.0, base.TotalDebt)
	assert.Equal(t, -3.0, base.Capex)
	assert.Equal(t, 20.0, base.EBITDAProxy)
	assert.Equal(t, 15.0, base.OperatingCF)
}

func TestBuildFromFacts_TotalDebtFallback(t *testing.T) {
	company := &facts.Company{Facts: seriesOf(2022, map[string]float64{
		TagRevenues:      10,
		TagTotalDebt:     0,
		TagLongTermDebt:  30,
		TagShortTermDebt: 10,
	})}

	base, err := BuildFromFacts("X", company)
	require.NoError(t, err)
	assert.Equal(t, 40.0, base.TotalDebt)
}

func TestBuildFromFacts_TotalDebtFallbackFloorsAtZero(t *testing.T) {
	company := &facts.Company{Facts: seriesOf(2022, map[string]float64{
		TagRevenues:      10,
		TagLongTermDebt:  -5,
		TagShortTermDebt: 1,
	})}

	base, err := BuildFromFacts("X", company)
	require.NoError(t, err)
	assert.Equal(t, 0.0, base.TotalDebt)
}

func TestBuildFromFacts_EBITDAFallbackToNetIncome(t *testing.T) {
	company := &facts.Company{Facts: seriesOf(2022, map[string]float64{
		TagRevenues:         10,
		TagNetIncome:        4,
		TagInterestExpense:  1,
		TagIncomeTaxExpense: 2,
	})}
	base, err := BuildFromFacts("X", company)
	require.NoError(t, err)
	assert.Equal(t, 7.0, base.EBITDAProxy)

	lossMaker := &facts.Company{Facts: seriesOf(2022, map[string]float64{
		TagRevenues:  10,
		TagNetIncome: -20,
	})}
	base, err = BuildFromFacts("X", lossMaker)
	require.NoError(t, err)
	assert.Equal(t, 0.0, base.EBITDAProxy)
}

func TestBuildFromFacts_CapexAbsentStaysZero(t *testing.T) {
	base, err := BuildFromFacts("X", &facts.Company{Facts: seriesOf(2021, map[string]float64{TagRevenues: 1})})
	require.NoError(t, err)
	assert.Equal(t, 0.0, base.Capex)
	assert.Equal(t, 0.0, base.Cash)
}

func TestBuildFromFacts_FiscalYearFromAssets(t *testing.T) {
	base, err := BuildFromFacts("BANK", &facts.Company{Facts: seriesOf(2020, map[string]float64{TagAssets: 1000})})
	require.NoError(t, err)
	assert.Equal(t, 2020, base.FiscalYear)
	assert.Equal(t, 0.0, base.Revenue)
}

func TestBuildFromFacts_NoFiscalYear(t *testing.T) {
	_, err := BuildFromFacts("EMPTY", &facts.Company{Facts: seriesOf(2020, map[string]float64{TagCash: 5})})

	var derr *DataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "EMPTY", derr.Ticker)
}

func TestBuild_LookupFailurePropagates(t *testing.T) {
	sec := &fakeSEC{ciks: map[string]string{}}

	_, err := NewBuilder(sec, sec).Build(context.Background(), "ZZZZ")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingest.ErrNotFound))
	assert.Empty(t, sec.fetchedID, "facts must not be fetched when lookup fails")
}

func TestBuild_FetchFailurePropagates(t *testing.T) {
	netErr := &ingest.NetworkError{Step: "company facts", URL: "http://x", StatusCode: 503}
	sec := &fakeSEC{ciks: map[string]string{"ACME": "0000000042"}, fetchErr: netErr}

	_, err := NewBuilder(sec, sec).Build(context.Background(), "ACME")
	var nerr *ingest.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, 503, nerr.StatusCode)
}
