// Package exporter renders an analysis run into a styled xlsx workbook.
package exporter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/maubernardi/analisipolitiche/internal/analysis"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/loader"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

const (
	summarySheet   = "Riepilogo"
	chartsSheet    = "Grafici"
	discardedSheet = "Righe Scartate"

	topPersonsCount = 10
)

// styles holds the style IDs registered once per workbook.
type styles struct {
	header   int
	cell     int
	numeric  int
	currency int
	total    int
	block    int
}

// Export builds the full workbook: summary, charts, one sheet per
// aggregation table, and the discarded rows with their reasons.
func Export(eng *analysis.Engine, valid []model.ValidRow, discarded []model.DiscardedRow, cfg config.Snapshot) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	st, err := registerStyles(wb)
	if err != nil {
		return nil, fmt.Errorf("registering styles: %w", err)
	}

	if err := wb.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("renaming summary sheet: %w", err)
	}
	if err := writeSummary(wb, st, eng, valid, discarded); err != nil {
		return nil, fmt.Errorf("writing %s: %w", summarySheet, err)
	}
	if err := writeCharts(wb, st, eng); err != nil {
		return nil, fmt.Errorf("writing %s: %w", chartsSheet, err)
	}

	for _, tbl := range []*model.Table{
		eng.CountsByPersonType(),
		eng.CountsByPersonTypeMonth(),
		eng.CountsByType(),
		eng.CountsByTypeMonth(),
		eng.CountsByOperator(),
		eng.CountsByOperatorMonth(),
		eng.RevenueByMonth(),
	} {
		if _, err := wb.NewSheet(tbl.Name); err != nil {
			return nil, fmt.Errorf("creating sheet %s: %w", tbl.Name, err)
		}
		if _, err := writeTable(wb, st, tbl.Name, 1, tbl); err != nil {
			return nil, fmt.Errorf("writing sheet %s: %w", tbl.Name, err)
		}
		setWidths(wb, tbl.Name, len(tbl.Columns))
	}

	if err := writeDiscarded(wb, st, discarded); err != nil {
		return nil, fmt.Errorf("writing %s: %w", discardedSheet, err)
	}

	idx, err := wb.GetSheetIndex(summarySheet)
	if err == nil {
		wb.SetActiveSheet(idx)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func registerStyles(wb *excelize.File) (styles, error) {
	var st styles
	var err error

	borders := []excelize.Border{
		{Type: "left", Color: "B0B0B0", Style: 1},
		{Type: "right", Color: "B0B0B0", Style: 1},
		{Type: "top", Color: "B0B0B0", Style: 1},
		{Type: "bottom", Color: "B0B0B0", Style: 1},
	}

	st.header, err = wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders,
	})
	if err != nil {
		return st, err
	}

	st.cell, err = wb.NewStyle(&excelize.Style{Border: borders})
	if err != nil {
		return st, err
	}

	st.numeric, err = wb.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    borders,
	})
	if err != nil {
		return st, err
	}

	currencyFmt := "#,##0.00 €"
	st.currency, err = wb.NewStyle(&excelize.Style{
		CustomNumFmt: &currencyFmt,
		Alignment:    &excelize.Alignment{Horizontal: "right"},
		Border:       borders,
	})
	if err != nil {
		return st, err
	}

	st.total, err = wb.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    borders,
	})
	if err != nil {
		return st, err
	}

	st.block, err = wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12, Color: "4472C4"},
	})
	return st, err
}

// writeTable renders a table starting at startRow and returns the first free
// row after it. Revenue and rate columns get the currency format; a row whose
// first cell is the TOTAL label is rendered bold.
func writeTable(wb *excelize.File, st styles, sheet string, startRow int, tbl *model.Table) (int, error) {
	for i, name := range tbl.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, startRow)
		if err := wb.SetCellValue(sheet, cell, name); err != nil {
			return 0, err
		}
		if err := wb.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return 0, err
		}
	}

	for r, row := range tbl.Rows {
		isTotal := len(row) > 0 && row[0] == model.TotalLabel
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, startRow+1+r)
			if val != nil {
				if err := wb.SetCellValue(sheet, cell, val); err != nil {
					return 0, err
				}
			}

			style := st.cell
			switch {
			case isMoneyColumn(tbl.Columns[c]):
				style = st.currency
			case isTotal:
				style = st.total
			case c > 0:
				style = st.numeric
			}
			if err := wb.SetCellStyle(sheet, cell, cell, style); err != nil {
				return 0, err
			}
		}
	}

	return startRow + 1 + len(tbl.Rows), nil
}

// isMoneyColumn reports whether a column carries euro amounts.
func isMoneyColumn(name string) bool {
	return name == "Rate" || name == "Revenue" || name == "TotalRevenue" ||
		strings.HasSuffix(name, "_rev")
}

func setWidths(wb *excelize.File, sheet string, columns int) {
	wb.SetColWidth(sheet, "A", "A", 28)
	if columns > 1 {
		last, _ := excelize.ColumnNumberToName(columns)
		wb.SetColWidth(sheet, "B", last, 14)
	}
}

func writeSummary(wb *excelize.File, st styles, eng *analysis.Engine, valid []model.ValidRow, discarded []model.DiscardedRow) error {
	stats := loader.Summarize(valid)

	period := "-"
	if !stats.First.IsZero() {
		period = fmt.Sprintf("%s - %s", stats.First.Format("02/01/2006"), stats.Last.Format("02/01/2006"))
	}

	headline := [][]any{
		{"Valid rows", stats.Rows},
		{"Beneficiaries", stats.Beneficiaries},
		{"Operators", stats.Operators},
		{"Period", period},
		{"Total revenue", eng.TotalRevenue()},
		{"Discarded rows", len(discarded)},
	}

	row := 1
	blockCell, _ := excelize.CoordinatesToCellName(1, row)
	wb.SetCellValue(summarySheet, blockCell, "OVERVIEW")
	wb.SetCellStyle(summarySheet, blockCell, blockCell, st.block)
	row++
	for _, pair := range headline {
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		wb.SetCellValue(summarySheet, label, pair[0])
		wb.SetCellValue(summarySheet, value, pair[1])
		if pair[0] == "Total revenue" {
			wb.SetCellStyle(summarySheet, value, value, st.currency)
		}
		row++
	}
	row++

	blocks := []struct {
		title string
		tbl   *model.Table
	}{
		{"TOTALS BY TYPE", eng.CountsByType()},
		{"TOTALS BY TYPE/MONTH", eng.CountsByTypeMonth()},
		{"REVENUE SUMMARY", eng.RevenueSummary()},
		{"USERS BY OPERATOR", eng.UsersByOperator()},
		{fmt.Sprintf("TOP %d", topPersonsCount), eng.TopPersons(topPersonsCount)},
	}

	for _, block := range blocks {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		wb.SetCellValue(summarySheet, cell, block.title)
		wb.SetCellStyle(summarySheet, cell, cell, st.block)

		next, err := writeTable(wb, st, summarySheet, row+1, block.tbl)
		if err != nil {
			return err
		}
		row = next + 1
	}

	setWidths(wb, summarySheet, 12)
	return nil
}

// writeCharts lays out the chart source blocks in columns A.. and anchors
// each chart to the right of its block.
func writeCharts(wb *excelize.File, st styles, eng *analysis.Engine) error {
	if _, err := wb.NewSheet(chartsSheet); err != nil {
		return err
	}

	trend := eng.MonthlyTrend()
	row := 1
	next, err := writeTable(wb, st, chartsSheet, row, trend)
	if err != nil {
		return err
	}
	if len(trend.Rows) > 0 {
		totalCol, _ := excelize.ColumnNumberToName(len(trend.Columns))
		if err := wb.AddChart(chartsSheet, fmt.Sprintf("H%d", row), &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$%d", chartsSheet, totalCol, row),
				Categories: fmt.Sprintf("%s!$A$%d:$A$%d", chartsSheet, row+1, next-1),
				Values:     fmt.Sprintf("%s!$%s$%d:$%s$%d", chartsSheet, totalCol, row+1, totalCol, next-1),
			}},
			Title:  []excelize.RichTextRun{{Text: "Andamento mensile"}},
			Legend: excelize.ChartLegend{Position: "bottom"},
		}); err != nil {
			return fmt.Errorf("adding trend chart: %w", err)
		}
	}
	row = next + 16

	byCode := eng.RevenueByCode()
	next, err = writeTable(wb, st, chartsSheet, row, byCode)
	if err != nil {
		return err
	}
	if len(byCode.Rows) > 0 {
		if err := wb.AddChart(chartsSheet, fmt.Sprintf("H%d", row), &excelize.Chart{
			Type: excelize.Bar,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$D$%d", chartsSheet, row),
				Categories: fmt.Sprintf("%s!$A$%d:$A$%d", chartsSheet, row+1, next-1),
				Values:     fmt.Sprintf("%s!$D$%d:$D$%d", chartsSheet, row+1, next-1),
			}},
			Title:  []excelize.RichTextRun{{Text: "Ricavi per codice"}},
			Legend: excelize.ChartLegend{Position: "none"},
		}); err != nil {
			return fmt.Errorf("adding revenue chart: %w", err)
		}
	}
	row = next + 16

	// Users by operator without the final TOTAL row, which would dwarf the
	// slices.
	users := eng.UsersByOperator()
	if n := len(users.Rows); n > 0 && users.Rows[n-1][0] == model.TotalLabel {
		users.Rows = users.Rows[:n-1]
	}
	next, err = writeTable(wb, st, chartsSheet, row, users)
	if err != nil {
		return err
	}
	if len(users.Rows) > 0 {
		if err := wb.AddChart(chartsSheet, fmt.Sprintf("H%d", row), &excelize.Chart{
			Type: excelize.Pie,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$B$%d", chartsSheet, row),
				Categories: fmt.Sprintf("%s!$A$%d:$A$%d", chartsSheet, row+1, next-1),
				Values:     fmt.Sprintf("%s!$B$%d:$B$%d", chartsSheet, row+1, next-1),
			}},
			Title:  []excelize.RichTextRun{{Text: "Utenti per operatore"}},
			Legend: excelize.ChartLegend{Position: "right"},
		}); err != nil {
			return fmt.Errorf("adding users chart: %w", err)
		}
	}

	setWidths(wb, chartsSheet, 6)
	return nil
}

func writeDiscarded(wb *excelize.File, st styles, discarded []model.DiscardedRow) error {
	if _, err := wb.NewSheet(discardedSheet); err != nil {
		return err
	}

	tbl := model.NewTable(discardedSheet, "Line", "Beneficiary", "Operator", "Activity", "Event", "Reason")
	for _, row := range discarded {
		tbl.AppendRow(row.SourceLine, row.Beneficiary, row.Operator, row.Activity, row.Event, row.Reason)
	}

	next, err := writeTable(wb, st, discardedSheet, 1, tbl)
	if err != nil {
		return err
	}
	if len(discarded) == 0 {
		cell, _ := excelize.CoordinatesToCellName(1, next)
		if err := wb.SetCellValue(discardedSheet, cell, "No rows were discarded."); err != nil {
			return err
		}
	}

	setWidths(wb, discardedSheet, len(tbl.Columns))
	wb.SetColWidth(discardedSheet, "F", "F", 40)
	return nil
}
