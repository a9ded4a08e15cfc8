// Package testutil provides shared fixtures for pipeline tests: memory
// setup, CSV-backed frames and a small synthetic raw Olist snapshot.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryContext provides memory allocator with automatic cleanup.
type TestMemoryContext struct {
	Allocator memory.Allocator
	cleanup   func()
}

// Release performs cleanup of the memory context.
func (tmc *TestMemoryContext) Release() {
	if tmc.cleanup != nil {
		tmc.cleanup()
	}
}

// SetupMemoryTest creates a memory allocator with automatic cleanup for tests.
// Returns a TestMemoryContext that should be released with defer.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	allocator := memory.NewGoAllocator()

	return &TestMemoryContext{
		Allocator: allocator,
		cleanup: func() {
			// Memory allocator cleanup is handled by Go GC
		},
	}
}

// ReadCSV parses CSV text with the default null tokens and the given pinned types.
func ReadCSV(tb testing.TB, mem memory.Allocator, text string, types map[string]io.ColumnType) *dataframe.DataFrame {
	tb.Helper()
	opts := io.DefaultCSVOptions().WithTypes(types)
	df, err := io.NewCSVReader(strings.NewReader(text), opts, mem).Read()
	require.NoError(tb, err)
	return df
}

// WriteRawFixtures writes each fixture of RawFixtures into dir under the file
// name inputs assigns it. Fixtures named in skip are left out.
func WriteRawFixtures(tb testing.TB, dir string, inputs map[string]string, skip ...string) {
	tb.Helper()
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	require.NoError(tb, os.MkdirAll(dir, 0o750))
	for name, text := range RawFixtures() {
		if skipped[name] {
			continue
		}
		file, ok := inputs[name]
		require.True(tb, ok, "no file name configured for input %q", name)
		require.NoError(tb, os.WriteFile(filepath.Join(dir, file), []byte(text), 0o600))
	}
}

// AssertDataFrameHasColumns verifies that a DataFrame has exactly the expected columns.
func AssertDataFrameHasColumns(t *testing.T, df *dataframe.DataFrame, expectedColumns []string) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")

	actualColumns := df.Columns()
	assert.Len(t, actualColumns, len(expectedColumns), "column count should match")

	for _, col := range expectedColumns {
		assert.True(t, df.HasColumn(col), "DataFrame should have column %s", col)
	}
}

// AssertDataFrameNotEmpty verifies that a DataFrame is not empty.
func AssertDataFrameNotEmpty(t *testing.T, df *dataframe.DataFrame) {
	t.Helper()

	require.NotNil(t, df, "DataFrame should not be nil")
	assert.Positive(t, df.Len(), "DataFrame should not be empty")
	assert.Positive(t, df.Width(), "DataFrame should have columns")
}

// RowOf returns the index of the first row whose key column renders as key.
func RowOf(tb testing.TB, df *dataframe.DataFrame, keyColumn, key string) int {
	tb.Helper()
	keys, valid, err := df.Strings(keyColumn)
	require.NoError(tb, err)
	for i, k := range keys {
		if valid[i] && k == key {
			return i
		}
	}
	require.Failf(tb, "row not found", "%s=%s", keyColumn, key)
	return -1
}

// Float returns one float cell, failing the test when it is null.
func Float(tb testing.TB, df *dataframe.DataFrame, column string, row int) float64 {
	tb.Helper()
	values, valid, err := df.Float64s(column)
	require.NoError(tb, err)
	require.True(tb, valid[row], "%s[%d] is null", column, row)
	return values[row]
}

// Int returns one integer cell, failing the test when it is null.
func Int(tb testing.TB, df *dataframe.DataFrame, column string, row int) int64 {
	tb.Helper()
	values, valid, err := df.Int64s(column)
	require.NoError(tb, err)
	require.True(tb, valid[row], "%s[%d] is null", column, row)
	return values[row]
}

// Str returns one cell rendered as text; null renders as "".
func Str(tb testing.TB, df *dataframe.DataFrame, column string, row int) string {
	tb.Helper()
	values, _, err := df.Strings(column)
	require.NoError(tb, err)
	return values[row]
}

// IsNull reports whether a cell is null.
func IsNull(tb testing.TB, df *dataframe.DataFrame, column string, row int) bool {
	tb.Helper()
	col, ok := df.Column(column)
	require.True(tb, ok, "missing column %s", column)
	return col.IsNull(row)
}
