package results

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

// WriteXLSX exports records to a spreadsheet with one row per file and a
// summary sheet of per-label statistics.
func WriteXLSX(path string, records []Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	labels := Labels(records)
	header := []any{KeyFilePath, "status"}
	for _, l := range labels {
		header = append(header, string(l))
	}
	header = append(header, "error_kind", "error_message")
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(resultsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range records {
		row := []any{r.FilePath}
		if r.IsError() {
			row = append(row, "error")
			for range labels {
				row = append(row, nil)
			}
			row = append(row, string(r.Err.Kind), r.Err.Message)
		} else {
			row = append(row, "ok")
			for _, l := range labels {
				if v, ok := r.Scores.Get(l); ok {
					row = append(row, v)
				} else {
					row = append(row, nil)
				}
			}
			row = append(row, nil, nil)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SetColWidth(resultsSheet, "A", "A", 48); err != nil {
		return fmt.Errorf("size columns: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summaryHeader := []any{"label", "count", "mean", "std_dev", "min", "max"}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return fmt.Errorf("write summary header: %w", err)
	}
	if err := f.SetRowStyle(summarySheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	for i, ls := range Summarize(records) {
		row := []any{string(ls.Label), ls.Count, ls.Mean, ls.StdDev, ls.Min, ls.Max}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
