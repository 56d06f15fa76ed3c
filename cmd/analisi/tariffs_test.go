package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "already normalized", in: "A03", want: "A03"},
		{name: "lowercase", in: "a03", want: "A03"},
		{name: "surrounding spaces", in: " b04 ", want: "B04"},
		{name: "too long", in: "A035", wantErr: true},
		{name: "digits first", in: "03A", wantErr: true},
		{name: "no digits", in: "ABC", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeCode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
