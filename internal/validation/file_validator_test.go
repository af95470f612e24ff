package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "plant.csv")
	txtPath := filepath.Join(dir, "plant.txt")
	require.NoError(t, os.WriteFile(csvPath, []byte("x"), 0644))
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))

	v := NewFileValidator(nil)

	assert.NoError(t, v.ValidateCSVFile(csvPath))

	var fe *FilenameError
	assert.True(t, errors.As(v.ValidateCSVFile(txtPath), &fe))

	err := v.ValidateCSVFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = v.ValidateFile(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestFileValidator_ValidateOutputPath(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "reports", "nested", "report.pdf")

	require.NoError(t, NewFileValidator(nil).ValidateOutputPath(out))

	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
