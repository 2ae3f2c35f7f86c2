package report

import (
	"fmt"
	"strings"

	"liquidity_stress/pkg/core/pipeline"
	"liquidity_stress/pkg/core/utils"
)

// Markdown renders the run as a GitHub-flavoured Markdown document.
func Markdown(res *pipeline.Result) string {
	var b strings.Builder
	base := res.Base

	title := base.Ticker
	if base.EntityName != "" {
		title = fmt.Sprintf("%s (%s)", base.EntityName, base.Ticker)
	}
	fmt.Fprintf(&b, "# Liquidity & Covenant Stress Test: %s\n\n", escapeCell(title))
	fmt.Fprintf(&b, "CIK %s, fiscal year %d. Run `%s` generated %s.\n\n",
		base.CIK, base.FiscalYear, res.RunID, res.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("## Base Inputs\n\n| Item | Value |\n|---|---:|\n")
	for _, li := range base.LineItems() {
		fmt.Fprintf(&b, "| %s | %s |\n", li.Label, FormatNumber(li.Value))
	}

	th := res.Thresholds
	b.WriteString("\n## Covenants\n\n| Covenant | Limit |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Max Net Debt / EBITDA | %s |\n", FormatNumber(th.MaxLeverage))
	fmt.Fprintf(&b, "| Min EBITDA / Interest | %s |\n", FormatNumber(th.MinCoverage))
	fmt.Fprintf(&b, "| Min Current Ratio | %s |\n", FormatNumber(th.MinCurrentRatio))
	fmt.Fprintf(&b, "| Minimum Cash | %s |\n", FormatNumber(th.MinCash))
	fmt.Fprintf(&b, "| Immediate Cash Draw | %s |\n", FormatNumber(res.CashDraw))

	b.WriteString("\n## Scenarios\n\n")
	cols := Columns(res)
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n|")
	for i := range cols {
		if i == 0 {
			b.WriteString("---|")
		} else {
			b.WriteString("---:|")
		}
	}
	b.WriteString("\n")
	for _, line := range Cells(res) {
		line[0] = escapeCell(line[0])
		b.WriteString("| " + strings.Join(line, " | ") + " |\n")
	}

	verdict := "At least one scenario breaches a covenant."
	if res.AllPass() {
		verdict = "All scenarios pass every covenant."
	}
	fmt.Fprintf(&b, "\n**%s**\n", verdict)
	return b.String()
}

// HTML renders the Markdown report into a sanitized standalone page.
func HTML(res *pipeline.Result) (string, error) {
	body, err := utils.RenderMarkdownHTML(Markdown(res))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>Stress Test %s</title>\n", htmlEscaper.Replace(res.Base.Ticker))
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
