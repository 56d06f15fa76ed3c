package model

// TotalLabel marks the synthetic row that sums its peers in a table.
const TotalLabel = "TOTAL"

// Table is a named aggregation result: an ordered list of column names and
// an ordered list of rows. Cell values are strings, ints or float64s; nil
// marks a deliberately blank cell (e.g. the rate on a TOTAL row).
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given name and columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AppendRow adds a row. The cell count must match the column count; rows are
// built by the aggregation engine, which guarantees the width.
func (t *Table) AppendRow(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at (row, column name), or nil when out of range.
func (t *Table) Cell(row int, column string) any {
	i := t.ColumnIndex(column)
	if i < 0 || row < 0 || row >= len(t.Rows) {
		return nil
	}
	return t.Rows[row][i]
}
