package bench

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Имена листов отчёта
const (
	SheetSummary = "Summary"
	SheetSamples = "Samples"
	SheetGraphs  = "Graphs"
)

// Report is a finished benchmark ready to be written out.
type Report struct {
	Scenario  string
	Config    Config
	Result    *Result
	Summaries []Summary
}

// WriteExcel writes the report as an xlsx workbook.
func (r *Report) WriteExcel(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	// Первый лист переименовываем вместо удаления, чтобы книга не оставалась без листов
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := r.writeSummary(f, headerStyle); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSamples); err != nil {
		return err
	}
	if err := r.writeSamples(f, headerStyle); err != nil {
		return err
	}
	if len(r.Result.Graphs) > 0 {
		if _, err := f.NewSheet(SheetGraphs); err != nil {
			return err
		}
		if err := r.writeGraphs(f, headerStyle); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (r *Report) writeSummary(f *excelize.File, headerStyle int) error {
	sheet := SheetSummary
	row := 1

	f.SetCellValue(sheet, cellAddr("A", row), "Pathfinding Benchmark")
	f.MergeCell(sheet, cellAddr("A", row), cellAddr("D", row))
	row += 2

	meta := [][2]any{
		{"Scenario", r.Scenario},
		{"Repetitions", r.Config.Repetitions},
		{"Workers", r.Config.Workers},
		{"Samples", len(r.Result.Samples)},
		{"Elapsed (s)", r.Result.Elapsed.Seconds()},
	}
	for _, kv := range meta {
		f.SetCellValue(sheet, cellAddr("A", row), kv[0])
		f.SetCellValue(sheet, cellAddr("B", row), kv[1])
		row++
	}
	row++

	headers := []string{
		"Algorithm", "Queries", "Found", "Optimal",
		"Mean (ms)", "StdDev (ms)", "P50 (ms)", "P95 (ms)", "Max (ms)",
		"Mean Settled", "Mean Suboptimality",
	}
	if err := writeHeader(f, sheet, row, headers, headerStyle); err != nil {
		return err
	}
	row++

	for _, s := range r.Summaries {
		values := []any{
			s.Algorithm, s.Queries, s.Found, s.Optimal,
			s.MeanMs, s.StdDevMs, s.P50Ms, s.P95Ms, s.MaxMs,
			s.MeanSettled, s.MeanSuboptimality,
		}
		if err := f.SetSheetRow(sheet, cellAddr("A", row), &values); err != nil {
			return err
		}
		row++
	}

	return f.SetColWidth(sheet, "A", "K", 16)
}

func (r *Report) writeSamples(f *excelize.File, headerStyle int) error {
	sheet := SheetSamples
	headers := []string{
		"Map", "Query", "Start X", "Start Y", "Goal X", "Goal Y",
		"Algorithm", "Found", "Length", "Settled", "Mean (ms)",
	}
	if err := writeHeader(f, sheet, 1, headers, headerStyle); err != nil {
		return err
	}

	for i := range r.Result.Samples {
		s := &r.Result.Samples[i]
		// Для ненайденного пути длина остаётся пустой
		var length any
		if s.Found {
			length = s.Length
		}
		values := []any{
			s.Map, s.Query, s.Start.X, s.Start.Y, s.Goal.X, s.Goal.Y,
			s.Algorithm, s.Found, length, s.Settled, millis(s.MeanDuration()),
		}
		if err := f.SetSheetRow(sheet, cellAddr("A", i+2), &values); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheet, "A", "K", 14)
}

func (r *Report) writeGraphs(f *excelize.File, headerStyle int) error {
	sheet := SheetGraphs
	headers := []string{"Map", "Nodes", "Edges", "Build (ms)"}
	if err := writeHeader(f, sheet, 1, headers, headerStyle); err != nil {
		return err
	}
	for i, g := range r.Result.Graphs {
		values := []any{g.Map, g.Nodes, g.Edges, millis(g.Duration)}
		if err := f.SetSheetRow(sheet, cellAddr("A", i+2), &values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "D", 16)
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	if err := f.SetSheetRow(sheet, cellAddr("A", row), &headers); err != nil {
		return err
	}
	last, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cellAddr("A", row), cellAddr(last, row), style)
}

// cellAddr формирует адрес ячейки
func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
