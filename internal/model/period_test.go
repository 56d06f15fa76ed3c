package model

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodString(t *testing.T) {
	p := PeriodOf(time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-03", p.String())
	assert.False(t, p.IsZero())
	assert.True(t, Period{}.IsZero())
}

func TestPeriodStringOrderMatchesChronology(t *testing.T) {
	periods := []Period{
		{Year: 2024, Month: time.December},
		{Year: 2025, Month: time.January},
		{Year: 2024, Month: time.February},
		{Year: 2024, Month: time.November},
	}

	byString := make([]string, len(periods))
	for i, p := range periods {
		byString[i] = p.String()
	}
	sort.Strings(byString)

	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })
	for i, p := range periods {
		assert.Equal(t, byString[i], p.String())
	}
}

func TestTableHelpers(t *testing.T) {
	tbl := NewTable("By Operator", "Operator", "A03", "Total")
	tbl.AppendRow("Bianchi", 2, 2)
	tbl.AppendRow(TotalLabel, 2, 2)

	assert.Equal(t, 1, tbl.ColumnIndex("A03"))
	assert.Equal(t, -1, tbl.ColumnIndex("B03"))
	assert.Equal(t, 2, tbl.Cell(0, "A03"))
	assert.Nil(t, tbl.Cell(5, "A03"))
	assert.Nil(t, tbl.Cell(0, "missing"))
}
