package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"liquidity_stress/pkg/core/covenant"
	"liquidity_stress/pkg/core/fundamentals"
	"liquidity_stress/pkg/core/stress"
)

// BaseBuilder produces the base-year snapshot for a ticker.
// fundamentals.Builder is the production implementation.
type BaseBuilder interface {
	Build(ctx context.Context, symbol string) (fundamentals.BaseInputs, error)
}

// Request describes one analysis run.
type Request struct {
	Ticker     string
	Thresholds covenant.Thresholds
	CashDraw   float64
	// Scenarios overrides the presets when non-empty.
	Scenarios []stress.Scenario
}

// Row is one scenario line of the final table.
type Row struct {
	Scenario  stress.Scenario       `json:"scenario"`
	Result    stress.ScenarioResult `json:"result"`
	Covenants covenant.Report       `json:"covenants"`
}

// Result is the output of one run.
type Result struct {
	RunID       uuid.UUID               `json:"run_id"`
	Base        fundamentals.BaseInputs `json:"base"`
	Thresholds  covenant.Thresholds     `json:"thresholds"`
	CashDraw    float64                 `json:"cash_draw"`
	Rows        []Row                   `json:"rows"`
	GeneratedAt time.Time               `json:"generated_at"`
}

// AllPass reports whether every scenario passed every covenant.
func (r *Result) AllPass() bool {
	for _, row := range r.Rows {
		if !row.Covenants.OverallPass {
			return false
		}
	}
	return len(r.Rows) > 0
}

// Runner manages the end-to-end flow:
// ticker lookup -> facts fetch -> base inputs -> scenarios -> covenants.
type Runner struct {
	builder BaseBuilder
	logger  *slog.Logger
	now     func() time.Time
}

// NewRunner creates a Runner. A nil logger uses slog.Default().
func NewRunner(builder BaseBuilder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		builder: builder,
		logger:  logger.With(slog.String("component", "pipeline")),
		now:     time.Now,
	}
}

// Run executes one analysis. Errors carry the step that failed; model
// arithmetic itself never errors.
func (p *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	scenarios, err := req.scenarios()
	if err != nil {
		return nil, err
	}

	runID := uuid.New()
	log := p.logger.With(slog.String("run_id", runID.String()), slog.String("ticker", req.Ticker))
	start := p.now()

	log.Info("building base inputs")
	base, err := p.builder.Build(ctx, req.Ticker)
	if err != nil {
		log.Error("base inputs failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("build base inputs: %w", err)
	}
	log.Info("base inputs ready",
		slog.String("cik", base.CIK),
		slog.Int("fiscal_year", base.FiscalYear),
		slog.Float64("revenue", base.Revenue),
		slog.Float64("ebitda_proxy", base.EBITDAProxy))

	res := p.assess(runID, base, req, scenarios, log)
	log.Info("run complete",
		slog.Int("scenarios", len(res.Rows)),
		slog.Bool("all_pass", res.AllPass()),
		slog.Duration("elapsed", p.now().Sub(start)))
	return res, nil
}

// Assess runs the scenarios and covenant checks on a base snapshot the
// caller already holds. req.Ticker is informational here.
func (p *Runner) Assess(base fundamentals.BaseInputs, req Request) (*Result, error) {
	scenarios, err := req.scenarios()
	if err != nil {
		return nil, err
	}
	runID := uuid.New()
	log := p.logger.With(slog.String("run_id", runID.String()), slog.String("ticker", base.Ticker))
	return p.assess(runID, base, req, scenarios, log), nil
}

func (p *Runner) assess(runID uuid.UUID, base fundamentals.BaseInputs, req Request, scenarios []stress.Scenario, log *slog.Logger) *Result {
	outcomes := stress.RunScenarios(base, scenarios, req.CashDraw)

	rows := make([]Row, 0, len(outcomes))
	for _, o := range outcomes {
		rep := covenant.Evaluate(o.Result, req.Thresholds)
		rows = append(rows, Row{Scenario: o.Scenario, Result: o.Result, Covenants: rep})
		log.Debug("scenario evaluated",
			slog.String("scenario", o.Scenario.Name),
			slog.Bool("overall_pass", rep.OverallPass))
	}

	return &Result{
		RunID:       runID,
		Base:        base,
		Thresholds:  req.Thresholds,
		CashDraw:    req.CashDraw,
		Rows:        rows,
		GeneratedAt: p.now().UTC(),
	}
}

func (r Request) scenarios() ([]stress.Scenario, error) {
	if math.IsNaN(r.CashDraw) || math.IsInf(r.CashDraw, 0) {
		return nil, fmt.Errorf("invalid cash draw: %v", r.CashDraw)
	}
	if len(r.Scenarios) == 0 {
		return stress.DefaultScenarios(), nil
	}
	if err := stress.ValidateScenarios(r.Scenarios); err != nil {
		return nil, fmt.Errorf("invalid scenarios: %w", err)
	}
	return r.Scenarios, nil
}
