package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liquidity_stress/pkg/core/covenant"
	"liquidity_stress/pkg/core/fundamentals"
	"liquidity_stress/pkg/core/ingest"
	"liquidity_stress/pkg/core/stress"
)

// --- Mocks ---

type MockBuilder struct {
	BuildFunc func(ctx context.Context, symbol string) (fundamentals.BaseInputs, error)
	calls     []string
}

func (m *MockBuilder) Build(ctx context.Context, symbol string) (fundamentals.BaseInputs, error) {
	m.calls = append(m.calls, symbol)
	if m.BuildFunc != nil {
		return m.BuildFunc(ctx, symbol)
	}
	return sampleBase(), nil
}

func sampleBase() fundamentals.BaseInputs {
	return fundamentals.BaseInputs{
		Ticker:             "TEST",
		CIK:                "0000000001",
		FiscalYear:         2023,
		Revenue:            100,
		EBITDAProxy:        20,
		TotalDebt:          50,
		InterestExpense:    5,
		Cash:               10,
		OperatingCF:        15,
		Capex:              -3,
		CurrentAssets:      40,
		CurrentLiabilities: 30,
	}
}

// --- Tests ---

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name          string
		req           Request
		buildErr      error
		expectedError string
		expectedRows  []string
		allPass       bool
	}{
		{
			name:         "Success - presets",
			req:          Request{Ticker: "TEST", Thresholds: covenant.DefaultThresholds()},
			expectedRows: []string{"Base", "Mild", "Severe"},
			allPass:      false,
		},
		{
			name: "Success - custom deck",
			req: Request{
				Ticker:     "TEST",
				Thresholds: covenant.DefaultThresholds(),
				Scenarios:  []stress.Scenario{{Name: "Flat"}},
			},
			expectedRows: []string{"Flat"},
			allPass:      true,
		},
		{
			name:          "Edge Case - invalid deck",
			req:           Request{Ticker: "TEST", Scenarios: []stress.Scenario{{Name: ""}}},
			expectedError: "invalid scenarios",
		},
		{
			name:          "Edge Case - NaN cash draw",
			req:           Request{Ticker: "TEST", CashDraw: math.NaN()},
			expectedError: "invalid cash draw",
		},
		{
			name:          "Failure - lookup",
			req:           Request{Ticker: "NOPE"},
			buildErr:      &ingest.LookupError{Ticker: "NOPE"},
			expectedError: "build base inputs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &MockBuilder{}
			if tt.buildErr != nil {
				b.BuildFunc = func(ctx context.Context, symbol string) (fundamentals.BaseInputs, error) {
					return fundamentals.BaseInputs{}, tt.buildErr
				}
			}

			res, err := NewRunner(b, nil).Run(context.Background(), tt.req)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				if tt.buildErr != nil {
					assert.True(t, errors.Is(err, ingest.ErrNotFound))
				}
				return
			}
			require.NoError(t, err)

			var names []string
			for _, row := range res.Rows {
				names = append(names, row.Scenario.Name)
			}
			assert.Equal(t, tt.expectedRows, names)
			assert.Equal(t, tt.allPass, res.AllPass())
			assert.NotEmpty(t, res.RunID.String())
			assert.False(t, res.GeneratedAt.IsZero())
		})
	}
}

func TestRunner_CovenantsMatchEvaluator(t *testing.T) {
	th := covenant.DefaultThresholds()
	res, err := NewRunner(&MockBuilder{}, nil).Run(context.Background(), Request{Ticker: "TEST", Thresholds: th, CashDraw: 2})
	require.NoError(t, err)

	assert.Equal(t, 2.0, res.CashDraw)
	assert.Equal(t, th, res.Thresholds)
	for _, row := range res.Rows {
		assert.Equal(t, covenant.Evaluate(row.Result, th), row.Covenants, row.Scenario.Name)
	}

	mild := res.Rows[1]
	assert.InDelta(t, 18.85, mild.Result.CashEnd, 1e-9)
	assert.True(t, mild.Covenants.OverallPass)
}

func TestRunner_UnknownBuildErrorIsNotNotFound(t *testing.T) {
	b := &MockBuilder{BuildFunc: func(ctx context.Context, symbol string) (fundamentals.BaseInputs, error) {
		return fundamentals.BaseInputs{}, &fundamentals.DataError{Ticker: symbol}
	}}

	_, err := NewRunner(b, nil).Run(context.Background(), Request{Ticker: "ODD"})
	require.Error(t, err)

	var dataErr *fundamentals.DataError
	assert.True(t, errors.As(err, &dataErr))
	assert.False(t, errors.Is(err, ingest.ErrNotFound))
	assert.Equal(t, []string{"ODD"}, b.calls)
}

func TestRunner_AssessSkipsBuilder(t *testing.T) {
	b := &MockBuilder{}
	res, err := NewRunner(b, nil).Assess(sampleBase(), Request{Thresholds: covenant.DefaultThresholds()})
	require.NoError(t, err)

	assert.Empty(t, b.calls)
	assert.Len(t, res.Rows, 3)
	assert.Equal(t, "TEST", res.Base.Ticker)
}
