package coerce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStr(t *testing.T) {
	tests := []struct {
		name  string
		value any
		def   string
		want  string
	}{
		{"nil uses default", nil, "fallback", "fallback"},
		{"string is trimmed", "  S100  ", "", "S100"},
		{"integral float renders without fraction", float64(4521), "", "4521"},
		{"fractional float keeps fraction", 12.5, "", "12.5"},
		{"empty string stays empty", "", "def", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Str(tt.value, tt.def))
		})
	}
}

func TestInt(t *testing.T) {
	tests := []struct {
		name  string
		value any
		def   int64
		want  int64
	}{
		{"nil uses default", nil, 7, 7},
		{"float truncates", 12.9, 0, 12},
		{"whole string parses", " 42 ", 0, 42},
		{"fractional string falls back", "12.5", 0, 0},
		{"garbage falls back", "n/a", -1, -1},
		{"asterisk padding stripped", "**15**", 0, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Int(tt.value, tt.def))
		})
	}
}

func TestFloat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		def   float64
		want  float64
	}{
		{"nil uses default", nil, 1.5, 1.5},
		{"plain float", 12.5, 0, 12.5},
		{"dot string", "12.5", 0, 12.5},
		{"comma decimal separator", "12,5", 0, 12.5},
		{"bare dot falls back", ".", 3, 3},
		{"empty falls back", "   ", 3, 3},
		{"garbage falls back", "abc", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Float(tt.value, tt.def), 1e-9)
		})
	}
}

func TestDate(t *testing.T) {
	def := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	got := Date("2024-03-10", def)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)

	assert.Equal(t, def, Date("", def))
	assert.Equal(t, def, Date(nil, def))
	assert.Equal(t, def, Date("10/03/2024", def))
}
