package exporter

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/maubernardi/analisipolitiche/internal/analysis"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/loader"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

func exportFixture(t *testing.T) (*excelize.File, []model.DiscardedRow) {
	t.Helper()

	cfg := config.Snapshot{
		Tariffs: map[string]float64{
			"A03": 37.14,
			"C06": 499.88,
		},
		ExcludedEvents: []string{"Proposta"},
	}

	raw := []model.RawRow{
		{SourceLine: 2, Beneficiary: "P1", Operator: "Op X", Activity: "A03 - Colloquio", Event: "Completato", CompletionDate: "10/01/2024"},
		{SourceLine: 3, Beneficiary: "P2", Operator: "Op Y", Activity: "C06 - Tirocinio", Event: "Completato", ProposedDate: "05/02/2024"},
		{SourceLine: 4, Beneficiary: "P3", Operator: "Op X", Activity: "A03 - Colloquio", Event: "Proposta", CompletionDate: "15/01/2024"},
		{SourceLine: 5, Beneficiary: "P4", Operator: "Op Y", Activity: "Z99 - Altro", Event: "Completato", CompletionDate: "20/01/2024"},
	}

	valid, discarded := loader.Load(raw, cfg)
	require.Len(t, valid, 2)
	require.Len(t, discarded, 2)

	eng := analysis.New(valid, cfg)
	data, err := Export(eng, valid, discarded, cfg)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { wb.Close() })

	return wb, discarded
}

func TestExportSheetNames(t *testing.T) {
	wb, _ := exportFixture(t)

	assert.Equal(t, []string{
		"Riepilogo",
		"Grafici",
		"By Person-Type",
		"By Person-Type-Month",
		"Type Totals",
		"By Type-Month",
		"By Operator",
		"By Operator-Month",
		"Revenue by Month",
		"Righe Scartate",
	}, wb.GetSheetList())
}

func TestExportSummaryHeadline(t *testing.T) {
	wb, _ := exportFixture(t)

	get := func(cell string) string {
		v, err := wb.GetCellValue("Riepilogo", cell, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "OVERVIEW", get("A1"))
	assert.Equal(t, "Valid rows", get("A2"))
	assert.Equal(t, "2", get("B2"))
	assert.Equal(t, "Total revenue", get("A6"))
	revenue, err := strconv.ParseFloat(get("B6"), 64)
	require.NoError(t, err)
	assert.InDelta(t, 537.02, revenue, 0.001)
	assert.Equal(t, "Discarded rows", get("A7"))
	assert.Equal(t, "2", get("B7"))
}

func TestExportAggregationSheet(t *testing.T) {
	wb, _ := exportFixture(t)

	rows, err := wb.GetRows("By Operator", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	assert.Equal(t, []string{"Operator", "A03", "C06", "Total"}, rows[0])
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Op X", "1", "0", "1"}, rows[1])
	assert.Equal(t, []string{"Op Y", "0", "1", "1"}, rows[2])
}

func TestExportDiscardedSheet(t *testing.T) {
	wb, discarded := exportFixture(t)

	rows, err := wb.GetRows("Righe Scartate", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 1+len(discarded))

	assert.Equal(t, []string{"Line", "Beneficiary", "Operator", "Activity", "Event", "Reason"}, rows[0])

	// The event exclusion pass runs first, so the excluded row precedes the
	// unknown-code row regardless of source order.
	assert.Equal(t, "4", rows[1][0])
	assert.Equal(t, "Event excluded: Proposta", rows[1][5])
	assert.Equal(t, "5", rows[2][0])
	assert.Equal(t, "Code not in tariffs: Z99", rows[2][5])
}

func TestExportNoDiscards(t *testing.T) {
	cfg := config.Snapshot{Tariffs: map[string]float64{"A03": 37.14}}
	raw := []model.RawRow{
		{SourceLine: 2, Beneficiary: "P1", Operator: "Op X", Activity: "A03", Event: "Completato", CompletionDate: "10/01/2024"},
	}
	valid, discarded := loader.Load(raw, cfg)
	require.Empty(t, discarded)

	data, err := Export(analysis.New(valid, cfg), valid, discarded, cfg)
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	placeholder, err := wb.GetCellValue("Righe Scartate", "A2")
	require.NoError(t, err)
	assert.Equal(t, "No rows were discarded.", placeholder)
}
