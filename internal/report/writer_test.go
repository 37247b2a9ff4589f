package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kurihiro0119/issue-delivery-scorecard/internal/config"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/domain"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/logging"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/pipeline"
	"github.com/kurihiro0119/issue-delivery-scorecard/internal/source"
)

var fixedNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func calcTable() *source.Table {
	return &source.Table{
		Name:    "calc",
		Headers: []string{"id", "product", "handling_mode", "planned_completion_date", "actual_resolution_date", "approval_status", "Excluded"},
		Rows: []map[string]string{
			{"id": "1", "product": "alpha", "handling_mode": domain.HandlingDeveloper, "planned_completion_date": "2026-01-05", "actual_resolution_date": "2026-01-03", "approval_status": "closed", "Excluded": ""},
			{"id": "2", "product": "alpha", "handling_mode": domain.HandlingDeveloper, "planned_completion_date": "2026-01-01", "actual_resolution_date": "2026-01-04", "approval_status": "closed", "Excluded": ""},
			{"id": "3", "product": "beta", "handling_mode": domain.HandlingNonDeveloper, "Excluded": ""},
			{"id": "4", "product": "beta", "handling_mode": domain.HandlingDeveloper, "approval_status": domain.ApprovalStatusTerminated, "Excluded": ""},
		},
	}
}

func process(t *testing.T, calc *source.Table) *pipeline.Result {
	t.Helper()
	records, _ := source.NewParser(time.UTC, logging.Discard()).ToRecords(calc)
	p, err := pipeline.NewProcessor(&config.Config{PercentageDecimals: 2, SentinelPolicy: config.SentinelFirst},
		logging.Discard(), func() time.Time { return fixedNow })
	require.NoError(t, err)
	res, err := p.Process(context.Background(), records)
	require.NoError(t, err)
	return res
}

func openSheetRows(t *testing.T, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestWriter_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "output")
	w := NewWriter(dir, "scorecard.xlsx", false, logging.Discard())
	raw := &source.Table{Headers: []string{"id", "note"}, Rows: []map[string]string{{"id": "r1", "note": "hello"}}}
	calc := calcTable()

	path, err := w.Write(raw, calc, process(t, calc))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "scorecard.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{SheetRaw, SheetProcessed, SheetScorecard}, f.GetSheetList())
	require.NoError(t, f.Close())

	rawRows := openSheetRows(t, path, SheetRaw)
	assert.Equal(t, [][]string{{"id", "note"}, {"r1", "hello"}}, rawRows)

	processed := openSheetRows(t, path, SheetProcessed)
	require.Len(t, processed, 5)
	assert.Equal(t, []string{"id", "product", "handling_mode", "planned_completion_date", "actual_resolution_date",
		"approval_status", "Excluded", ColDeviationDays, ColDeliveryStatus, ColDeliveryStatusData}, processed[0])
	assert.Equal(t, []string{"1", "alpha", domain.HandlingDeveloper, "2026-01-05", "2026-01-03", "closed", "NO", "-2",
		string(domain.StatusOnTime), string(domain.StatusOnTime)}, processed[1])
	assert.Equal(t, "3", processed[2][7])
	assert.Equal(t, string(domain.StatusOverdue), processed[2][9])
	assert.Equal(t, domain.HandlingNonDeveloper, processed[3][7])
	assert.Equal(t, "YES", processed[4][6])

	scorecard := openSheetRows(t, path, SheetScorecard)
	require.Len(t, scorecard, 3)
	assert.Equal(t, ScorecardHeaders, scorecard[0])
	assert.Equal(t, "beta", scorecard[1][0])
	assert.Equal(t, domain.NotApplicable, scorecard[1][8])
	assert.Equal(t, []string{"alpha", "0", "1", "1", "0", "0", "2", "100", "50"}, scorecard[2])
}

func TestWriter_DatePrefix(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "scorecard.xlsx", true, logging.Discard())
	w.now = func() time.Time { return fixedNow }

	assert.Equal(t, filepath.Join(dir, "2026-01-10_scorecard.xlsx"), w.Path())

	calc := calcTable()
	path, err := w.Write(nil, calc, process(t, calc))
	require.NoError(t, err)
	assert.Equal(t, w.Path(), path)
	assert.Empty(t, openSheetRows(t, path, SheetRaw))
}

func TestWriteTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extracts", "new_issues.xlsx")
	table := &source.Table{
		Headers: []string{"seq", "description"},
		Rows:    []map[string]string{{"seq": "1", "description": "a"}, {"seq": "2", "description": "b"}},
	}

	require.NoError(t, WriteTable(path, "new issues of the week ending 2026-01-11", table))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	assert.Len(t, sheets[0], 31)

	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"seq", "description"}, {"1", "a"}, {"2", "b"}}, rows)
}
