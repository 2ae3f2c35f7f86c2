// Package report renders a stress run as a console table, Markdown, HTML or XLSX.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"liquidity_stress/pkg/core/pipeline"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber prints v with three decimals and thousands separators.
// Undefined values print as NaN.
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return numberPrinter.Sprintf("%.3f", v)
}

// FormatBool prints a covenant flag.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// Columns returns the table header: scenario, metrics, then covenant flags.
func Columns(res *pipeline.Result) []string {
	cols := []string{"Scenario"}
	if len(res.Rows) == 0 {
		return cols
	}
	for _, m := range res.Rows[0].Result.Metrics() {
		cols = append(cols, m.Label)
	}
	for _, f := range res.Rows[0].Covenants.Flags() {
		cols = append(cols, f.Label)
	}
	return cols
}

// Cells returns one formatted table line per scenario.
func Cells(res *pipeline.Result) [][]string {
	out := make([][]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		line := []string{row.Scenario.Name}
		for _, m := range row.Result.Metrics() {
			line = append(line, FormatNumber(m.Value))
		}
		for _, f := range row.Covenants.Flags() {
			line = append(line, FormatBool(f.Pass))
		}
		out = append(out, line)
	}
	return out
}

// WriteTable writes the right-aligned console table.
func WriteTable(w io.Writer, res *pipeline.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	lines := append([][]string{Columns(res)}, Cells(res)...)
	for _, line := range lines {
		if _, err := fmt.Fprintln(tw, strings.Join(line, "\t")+"\t"); err != nil {
			return fmt.Errorf("failed to write table: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
