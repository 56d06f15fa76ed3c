package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		name     string
		activity string
		want     string
	}{
		{
			name:     "code with description",
			activity: "A03 - Colloquio di orientamento",
			want:     "A03",
		},
		{
			name:     "bare code",
			activity: "C06",
			want:     "C06",
		},
		{
			name:     "code not at start",
			activity: "Attività A03",
			want:     "",
		},
		{
			name:     "lowercase letter",
			activity: "a03 - colloquio",
			want:     "",
		},
		{
			name:     "single digit",
			activity: "A3 - colloquio",
			want:     "",
		},
		{
			name:     "three digits matches first two",
			activity: "A031 extra",
			want:     "A03",
		},
		{
			name:     "empty text",
			activity: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCode(tt.activity))
		})
	}
}

func TestCodeType(t *testing.T) {
	assert.Equal(t, "A", CodeType("A03"))
	assert.Equal(t, "C", CodeType("C06"))
	assert.Equal(t, "", CodeType(""))
}
