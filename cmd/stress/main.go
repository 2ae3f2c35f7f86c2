package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"liquidity_stress/pkg/core/config"
	"liquidity_stress/pkg/core/covenant"
	"liquidity_stress/pkg/core/fundamentals"
	"liquidity_stress/pkg/core/ingest"
	"liquidity_stress/pkg/core/logging"
	"liquidity_stress/pkg/core/pipeline"
	"liquidity_stress/pkg/core/report"
	"liquidity_stress/pkg/core/stress"
)

type options struct {
	configPath   string
	scenarioPath string
	xlsxPath     string
	htmlPath     string
	mdPath       string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "optional YAML config file")
	flag.StringVar(&opts.scenarioPath, "scenarios", "", "scenario deck (.yaml, .yml, .hjson or .json) replacing the presets")
	flag.StringVar(&opts.xlsxPath, "xlsx", "", "write the report workbook to this path")
	flag.StringVar(&opts.htmlPath, "html", "", "write the HTML report to this path")
	flag.StringVar(&opts.mdPath, "md", "", "write the Markdown report to this path")
	flag.Parse()

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ingest.NewEDGARClient(
		ingest.DefaultEndpoints(cfg.SEC.UserAgent),
		cfg.SEC.Timeout,
		ingest.WithRateLimit(cfg.SEC.RateLimit),
		ingest.WithLogger(logger),
	)
	builder := fundamentals.NewBuilder(client, client)

	if err := run(ctx, cfg, opts, builder, logger, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// run drives one interactive session: ticker, base inputs, covenant
// prompts, then the scenario table and any requested exports.
func run(ctx context.Context, cfg *config.Config, opts options, builder pipeline.BaseBuilder, logger *slog.Logger, in io.Reader, out io.Writer) error {
	deckPath := opts.scenarioPath
	if deckPath == "" {
		deckPath = cfg.ScenarioDeck
	}
	var scenarios []stress.Scenario
	if deckPath != "" {
		var err error
		if scenarios, err = stress.LoadDeck(deckPath); err != nil {
			return err
		}
		logger.Info("scenario deck loaded", slog.String("path", deckPath), slog.Int("scenarios", len(scenarios)))
	}

	fmt.Fprintln(out, "\n=== Liquidity & Covenant Stress Test ===")
	fmt.Fprintln(out)

	p := newPrompter(in, out)
	ticker := p.String("Ticker", "JPM")

	base, err := builder.Build(ctx, ticker)
	if err != nil {
		return fmt.Errorf("build base inputs: %w", err)
	}

	def := cfg.Covenants.Thresholds()
	th := covenant.Thresholds{
		MaxLeverage:     p.Float("Max Net Debt / EBITDA", def.MaxLeverage),
		MinCoverage:     p.Float("Min EBITDA / Interest", def.MinCoverage),
		MinCurrentRatio: p.Float("Min Current Ratio", def.MinCurrentRatio),
		MinCash:         p.Float("Minimum Cash", def.MinCash),
	}
	cashDraw := p.Float("Immediate Cash Draw", 0.0)

	res, err := pipeline.NewRunner(builder, logger).Assess(base, pipeline.Request{
		Ticker:     base.Ticker,
		Thresholds: th,
		CashDraw:   cashDraw,
		Scenarios:  scenarios,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s FY%d (CIK %s)\n\n", base.Ticker, base.FiscalYear, base.CIK)
	if err := report.WriteTable(out, res); err != nil {
		return err
	}

	return export(res, opts, out)
}

func export(res *pipeline.Result, opts options, out io.Writer) error {
	if opts.mdPath != "" {
		if err := os.WriteFile(opts.mdPath, []byte(report.Markdown(res)), 0644); err != nil {
			return fmt.Errorf("failed to write markdown report: %w", err)
		}
		fmt.Fprintf(out, "\nMarkdown report: %s\n", opts.mdPath)
	}
	if opts.htmlPath != "" {
		page, err := report.HTML(res)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.htmlPath, []byte(page), 0644); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
		fmt.Fprintf(out, "HTML report: %s\n", opts.htmlPath)
	}
	if opts.xlsxPath != "" {
		f, err := os.Create(opts.xlsxPath)
		if err != nil {
			return fmt.Errorf("failed to create workbook: %w", err)
		}
		if err := report.WriteXLSX(f, res); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		fmt.Fprintf(out, "Workbook: %s\n", opts.xlsxPath)
	}
	return nil
}
