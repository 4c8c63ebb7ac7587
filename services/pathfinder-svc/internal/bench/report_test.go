package bench

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"anyangle/services/pathfinder-svc/internal/search"
)

func testReport() *Report {
	samples := []Sample{
		sample("vg", 0, true, 4.5, 12, 3),
		sample("theta", 0, true, 4.75, 9, 1),
		sample("vg", 1, false, 0, 3, 1),
	}
	samples[0].Start = search.Point{X: 1, Y: 2}
	samples[0].Goal = search.Point{X: 5, Y: 6}

	res := &Result{
		Samples: samples,
		Graphs:  []GraphBuild{{Map: "m", Nodes: 8, Edges: 20, Duration: 2 * time.Millisecond}},
		Elapsed: time.Second,
	}
	return &Report{
		Scenario:  "unit",
		Config:    Config{Algorithms: []string{"vg", "theta"}, Workers: 2, Repetitions: 1},
		Result:    res,
		Summaries: Summarize(samples),
	}
}

func TestReport_WriteExcel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testReport().WriteExcel(&buf))

	// XLSX это zip архив
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSamples, SheetGraphs}, f.GetSheetList())

	title, err := f.GetCellValue(SheetSummary, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Pathfinding Benchmark", title)

	scenario, err := f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "unit", scenario)

	rows, err := f.GetRows(SheetSamples)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Map", rows[0][0])
	assert.Equal(t, []string{"m", "0", "1", "2", "5", "6", "vg", "TRUE", "4.5", "12"}, rows[1][:10])
	// Длина ненайденного пути пустая
	assert.Equal(t, "FALSE", rows[3][7])
	assert.Equal(t, "", rows[3][8])

	graphs, err := f.GetRows(SheetGraphs)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, []string{"m", "8", "20", "2"}, graphs[1])
}

func TestReport_WriteExcelWithoutGraphs(t *testing.T) {
	r := testReport()
	r.Result.Graphs = nil

	var buf bytes.Buffer
	require.NoError(t, r.WriteExcel(&buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSamples}, f.GetSheetList())
}
