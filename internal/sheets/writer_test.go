package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maubernardi/analisipolitiche/internal/model"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "no auth",
			mutate:  func(_ *Config) {},
			wantErr: "no authentication method",
		},
		{
			name: "service account",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/sa.json"
			},
		},
		{
			name: "full oauth",
			mutate: func(c *Config) {
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
			},
		},
		{
			name: "partial oauth",
			mutate: func(c *Config) {
				c.ClientID = "id"
			},
			wantErr: "no authentication method",
		},
		{
			name: "both methods",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/sa.json"
				c.ClientID = "id"
				c.ClientSecret = "secret"
				c.RefreshToken = "token"
			},
			wantErr: "multiple authentication methods",
		},
		{
			name: "bad batch size",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/sa.json"
				c.BatchSize = 0
			},
			wantErr: "batch size",
		},
		{
			name: "negative retry delay",
			mutate: func(c *Config) {
				c.ServiceAccountPath = "/tmp/sa.json"
				c.RetryDelay = -time.Second
			},
			wantErr: "retry delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPrepareValues(t *testing.T) {
	tbl := model.NewTable("Revenue Summary", "Code", "Rate", "Count")
	tbl.AppendRow("A03", 37.14, 3)
	tbl.AppendRow(model.TotalLabel, nil, 3)

	values := prepareValues(tbl)
	require.Len(t, values, 3)

	assert.Equal(t, []any{"Code", "Rate", "Count"}, values[0])
	assert.Equal(t, []any{"A03", 37.14, 3}, values[1])

	// Nil cells become empty strings so the Values API does not skip them.
	assert.Equal(t, []any{model.TotalLabel, "", 3}, values[2])
}
