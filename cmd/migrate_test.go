package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatchFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"ITEM": "4521"}]`), 0o644))

	batches, paths, err := readBatchFlags([]string{"parts=" + path})
	require.NoError(t, err)

	require.Contains(t, batches, "parts")
	assert.Len(t, batches["parts"].Records, 1)
	assert.Equal(t, []string{path}, paths)
}

func TestReadBatchFlagsRejectsBadBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no separator", []string{"parts"}, "expected role=path"},
		{"empty role", []string{"=" + path}, "expected role=path"},
		{"empty path", []string{"parts="}, "expected role=path"},
		{"duplicate role", []string{"parts=" + path, "parts=" + path}, "bound twice"},
		{"missing file", []string{"parts=" + filepath.Join(t.TempDir(), "absent.json")}, "does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := readBatchFlags(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
