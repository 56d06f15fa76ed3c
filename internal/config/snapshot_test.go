package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSnapshotDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	snap := LoadSnapshot()

	assert.Equal(t, []string{"A03", "A06", "B03", "B04", "C06"}, snap.Codes())
	assert.InDelta(t, 37.14, snap.Rate("A03"), 0.001)
	assert.InDelta(t, 499.88, snap.Rate("C06"), 0.001)
	assert.Equal(t, []string{"Annullamento (prima dell'inizio)", "Proposta"}, snap.ExcludedEvents)
	assert.Equal(t, "export_analisi", OutputPrefix())
}

func TestLoadSnapshotNormalizesCodes(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Viper lowercases map keys read from config files.
	viper.Set(KeyTariffs, map[string]any{
		"a03": 37.14,
		"z99": "12.50",
		"bad": "not a number",
		"n01": -5.0,
	})

	snap := LoadSnapshot()

	require.Equal(t, []string{"A03", "Z99"}, snap.Codes())
	assert.True(t, snap.HasCode("A03"))
	assert.False(t, snap.HasCode("a03"))
	assert.False(t, snap.HasCode("BAD"))
	assert.False(t, snap.HasCode("N01"))
	assert.InDelta(t, 12.5, snap.Rate("Z99"), 0.001)
	assert.Zero(t, snap.Rate("missing"))
}
