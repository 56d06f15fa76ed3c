package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maubernardi/analisipolitiche/internal/model"
)

func TestRenderTable(t *testing.T) {
	tbl := model.NewTable("Revenue Summary", "Code", "Rate", "Count", "Revenue")
	tbl.AppendRow("A03", 37.14, 3, 111.42)
	tbl.AppendRow(model.TotalLabel, nil, 3, 111.42)

	out := RenderTable(tbl)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "Code")
	assert.Contains(t, lines[0], "Revenue")
	assert.Contains(t, lines[1], "37.14")
	assert.Contains(t, lines[2], model.TotalLabel)

	// The nil rate renders as an empty cell, not "<nil>".
	assert.NotContains(t, out, "<nil>")
}

func TestRenderTableEmpty(t *testing.T) {
	tbl := model.NewTable("Empty", "Label", "Count")
	out := RenderTable(tbl)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Label")
}
