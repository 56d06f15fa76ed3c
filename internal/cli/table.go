package cli

import (
	"fmt"
	"strings"

	"github.com/maubernardi/analisipolitiche/internal/model"
)

// RenderTable renders an aggregation table as aligned text columns, the
// header underlined and total rows bold.
func RenderTable(tbl *model.Table) string {
	widths := make([]int, len(tbl.Columns))
	for i, name := range tbl.Columns {
		widths[i] = len(name)
	}

	cells := make([][]string, len(tbl.Rows))
	for r, row := range tbl.Rows {
		cells[r] = make([]string, len(tbl.Columns))
		for c := range tbl.Columns {
			var text string
			if c < len(row) && row[c] != nil {
				text = formatCell(row[c])
			}
			cells[r][c] = text
			if len(text) > widths[c] {
				widths[c] = len(text)
			}
		}
	}

	var b strings.Builder
	header := make([]string, len(tbl.Columns))
	for i, name := range tbl.Columns {
		header[i] = pad(name, widths[i])
	}
	b.WriteString(TableHeaderStyle.Render(strings.Join(header, "  ")))
	b.WriteString("\n")

	for r, row := range cells {
		line := make([]string, len(row))
		for c, text := range row {
			line[c] = pad(text, widths[c])
		}
		rendered := strings.Join(line, "  ")
		if len(tbl.Rows[r]) > 0 && tbl.Rows[r][0] == model.TotalLabel {
			rendered = BoldStyle.Render(rendered)
		}
		b.WriteString(rendered)
		b.WriteString("\n")
	}

	return b.String()
}

func formatCell(v any) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprintf("%v", v)
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
