package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"liquidity_stress/pkg/core/pipeline"
)

const (
	SheetStress = "Stress"
	SheetBase   = "Base Inputs"
)

// WriteXLSX writes the workbook: the scenario table on "Stress" and the
// base snapshot on "Base Inputs". Undefined ratios are left blank.
func WriteXLSX(w io.Writer, res *pipeline.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetStress); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetBase); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetBase, err)
	}

	header := make([]interface{}, 0)
	for _, c := range Columns(res) {
		header = append(header, c)
	}
	if err := f.SetSheetRow(SheetStress, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range res.Rows {
		values := []interface{}{row.Scenario.Name}
		for _, m := range row.Result.Metrics() {
			values = append(values, cellValue(m.Value))
		}
		for _, fl := range row.Covenants.Flags() {
			values = append(values, fl.Pass)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetStress, cell, &values); err != nil {
			return fmt.Errorf("failed to write scenario %s: %w", row.Scenario.Name, err)
		}
	}

	base := res.Base
	meta := [][]interface{}{
		{"Ticker", base.Ticker},
		{"CIK", base.CIK},
		{"Entity", base.EntityName},
		{"Fiscal Year", base.FiscalYear},
	}
	for _, li := range base.LineItems() {
		meta = append(meta, []interface{}{li.Label, li.Value})
	}
	for i, values := range meta {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetBase, cell, &values); err != nil {
			return fmt.Errorf("failed to write base inputs: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
