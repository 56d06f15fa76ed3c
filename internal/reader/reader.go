// Package reader ingests policy-action workbooks into raw rows.
//
// Input files are xlsx exports with a fixed Italian header row. Only the
// first sheet is read; extra columns are ignored. Every cell comes back as
// the formatted string excelize renders, so date parsing stays downstream.
package reader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/maubernardi/analisipolitiche/internal/common"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

// Required header names, matched case-insensitively after trimming.
const (
	colBeneficiary    = "Destinatario"
	colOperator       = "Operatore"
	colActivity       = "Attività"
	colEvent          = "Evento"
	colCompletionDate = "Data Fine"
	colProposedDate   = "Data Proposta"
)

var requiredColumns = []string{
	colBeneficiary,
	colOperator,
	colActivity,
	colEvent,
	colCompletionDate,
	colProposedDate,
}

// File reads the workbook at path.
func File(ctx context.Context, path string) ([]model.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

// Parse reads the first sheet of an xlsx workbook into raw rows. The header
// row is line 1, so the first data row gets SourceLine 2. Rows whose required
// cells are all empty are skipped.
func Parse(ctx context.Context, r io.Reader) ([]model.RawRow, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, common.ErrEmptyWorkbook
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, common.ErrEmptyWorkbook
	}

	index, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]model.RawRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := model.RawRow{
			SourceLine:     i + 2,
			Beneficiary:    cellAt(cells, index[colBeneficiary]),
			Operator:       cellAt(cells, index[colOperator]),
			Activity:       cellAt(cells, index[colActivity]),
			Event:          cellAt(cells, index[colEvent]),
			CompletionDate: cellAt(cells, index[colCompletionDate]),
			ProposedDate:   cellAt(cells, index[colProposedDate]),
		}
		if isBlank(row) {
			continue
		}
		out = append(out, row)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheets[0], common.ErrNoData)
	}
	return out, nil
}

// mapHeader resolves each required column to its index. All missing columns
// are reported at once, sorted, so the user can fix the file in one pass.
func mapHeader(header []string) (map[string]int, error) {
	index := make(map[string]int, len(requiredColumns))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		for _, want := range requiredColumns {
			if strings.EqualFold(name, want) {
				if _, dup := index[want]; !dup {
					index[want] = i
				}
			}
		}
	}

	var missing []string
	for _, want := range requiredColumns {
		if _, ok := index[want]; !ok {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", common.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func isBlank(row model.RawRow) bool {
	return row.Beneficiary == "" &&
		row.Operator == "" &&
		row.Activity == "" &&
		row.Event == "" &&
		row.CompletionDate == "" &&
		row.ProposedDate == ""
}
