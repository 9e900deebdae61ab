package legacy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadJSONBatchPreservesOrder(t *testing.T) {
	path := writeTemp(t, "parts.json", `[
		{"ITEM": "4521", "DESCRIP": "Widget", "ONHAND": 12, "PRICE": 12.5},
		{"ITEM": "4522", "DESCRIP": null, "ONHAND": "3", "PRICE": "7,5"}
	]`)

	batch, err := ReadBatch(path)
	require.NoError(t, err)
	require.Len(t, batch.Records, 2)

	first := batch.Records[0]
	names := make([]string, 0, first.Len())
	for _, f := range first.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"ITEM", "DESCRIP", "ONHAND", "PRICE"}, names)

	assert.Equal(t, "4521", first.Str("ITEM", ""))
	assert.Equal(t, int64(12), first.Int("ONHAND", 0))
	assert.InDelta(t, 12.5, first.Float("PRICE", 0), 1e-9)

	second := batch.Records[1]
	assert.Equal(t, "fallback", second.Str("DESCRIP", "fallback"))
	assert.InDelta(t, 7.5, second.Float("PRICE", 0), 1e-9)
}

func TestReadJSONBatchMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not an array", `{"ITEM": "4521"}`},
		{"nested object", `[{"ITEM": {"nested": true}}]`},
		{"truncated", `[{"ITEM": "4521"`},
		{"nested array value", `[{"ITEM": ["a"]}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "bad.json", tt.content)
			_, err := ReadBatch(path)
			assert.ErrorIs(t, err, ErrMalformedBatch)
		})
	}
}

func TestReadXLSXBatchMatchesJSONThroughCoercion(t *testing.T) {
	dir := t.TempDir()

	xlsxPath := filepath.Join(dir, "parts.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ITEM", "DESCRIP", "ONHAND", "PRICE"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"4521", "Widget", 12, "12,50"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"4522", nil, 3, "7.5"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"", "", nil, ""})) // blank row, dropped
	require.NoError(t, f.SaveAs(xlsxPath))

	jsonPath := writeTemp(t, "parts.json", `[
		{"ITEM": "4521", "DESCRIP": "Widget", "ONHAND": 12, "PRICE": "12,50"},
		{"ITEM": "4522", "DESCRIP": null, "ONHAND": 3, "PRICE": "7.5"}
	]`)

	fromXLSX, err := ReadBatch(xlsxPath)
	require.NoError(t, err)
	fromJSON, err := ReadBatch(jsonPath)
	require.NoError(t, err)

	require.Len(t, fromXLSX.Records, len(fromJSON.Records))
	for i := range fromJSON.Records {
		x, j := fromXLSX.Records[i], fromJSON.Records[i]
		assert.Equal(t, j.Str("ITEM", ""), x.Str("ITEM", ""))
		assert.Equal(t, j.Str("DESCRIP", "def"), x.Str("DESCRIP", "def"))
		assert.Equal(t, j.Int("ONHAND", 0), x.Int("ONHAND", 0))
		assert.InDelta(t, j.Float("PRICE", 0), x.Float("PRICE", 0), 1e-9)
	}
}

func TestReadBatchUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "batch.csv", "ITEM\n4521\n")
	_, err := ReadBatch(path)
	assert.ErrorIs(t, err, ErrMalformedBatch)
}

func TestRecordMissingField(t *testing.T) {
	rec := NewRecord([]Field{{Name: "ITEM", Value: "4521"}})

	assert.Equal(t, "def", rec.Str("MISSING", "def"))
	assert.Equal(t, int64(9), rec.Int("MISSING", 9))

	_, ok := rec.Get("MISSING")
	assert.False(t, ok)
}

func TestReadMissingParts(t *testing.T) {
	path := writeTemp(t, "warnings.log", `
WARNING: Part 4521.0 not found for order S100. Skipping line.
noise line
WARNING: Part 77 not found for order S101. Skipping line.
WARNING: Part 4521.0 not found for order S102. Skipping line.
`)

	parts, err := ReadMissingParts(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"4521.0", "77"}, parts)
}

func TestReadMissingPartsEmpty(t *testing.T) {
	path := writeTemp(t, "warnings.log", "nothing relevant here\n")
	parts, err := ReadMissingParts(path)
	require.NoError(t, err)
	assert.Empty(t, parts)
}
