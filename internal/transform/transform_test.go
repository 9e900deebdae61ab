package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
	}{
		{"decimal string", "12.5", 1250},
		{"float", 12.5, 1250},
		{"whole number", "7", 700},
		{"comma separator", "7,25", 725},
		{"unparseable yields zero", "n/a", 0},
		{"nil yields zero", nil, 0},
		{"negative truncates toward zero", "-1.019", -101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinorUnits(tt.value))
		})
	}
}

func TestAnchoredDatesPreservesCalendarDay(t *testing.T) {
	policy, err := AnchoredDates("America/New_York")
	require.NoError(t, err)
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2024-03-10 is the US DST transition day; 2024-01-15 is plain EST.
	for _, day := range []string{"2024-03-10", "2024-01-15", "2024-11-03"} {
		got := policy.Convert(day, time.Time{})
		assert.Equal(t, time.UTC, got.Location())
		assert.Equal(t, day, got.In(loc).Format("2006-01-02"), "calendar day must survive the round trip")
		assert.Equal(t, 12, got.In(loc).Hour())
	}
}

func TestAnchoredDatesUnknownZone(t *testing.T) {
	_, err := AnchoredDates("Nowhere/Special")
	assert.Error(t, err)
}

func TestNaiveDates(t *testing.T) {
	policy := NaiveDates()
	assert.False(t, policy.Anchored())

	got := policy.Convert("2024-03-10", time.Time{})
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)
}

func TestConvertFallsBackToDefault(t *testing.T) {
	def := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	policy := NaiveDates()

	assert.Equal(t, def, policy.Convert("", def))
	assert.Equal(t, def, policy.Convert("garbage", def))
	assert.Equal(t, def, policy.Convert(nil, def))
}

func TestComposeNotes(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		lines   []string
		want    string
	}{
		{
			"primary plus lines",
			"VP-100",
			[]string{"first", "", "third"},
			"VP-100\nfirst\n\nthird",
		},
		{
			"blank lines only collapse to primary",
			"VP-100",
			[]string{"", "", ""},
			"VP-100",
		},
		{
			"no primary",
			"",
			[]string{"first", "second"},
			"first\nsecond",
		},
		{
			"nothing at all",
			"",
			[]string{"", ""},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeNotes(tt.primary, tt.lines))
		})
	}
}
