package io_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame(mem memory.Allocator) *dataframe.DataFrame {
	ts := time.Date(2018, 3, 1, 8, 0, 0, 0, time.UTC)
	return dataframe.New(
		series.New("order_id", []string{"o1", "o2", "o3"}, mem),
		series.NewNullable("payment_value", []float64{99.9, 0, 12}, []bool{true, false, true}, mem),
		series.New("payment_installments", []int64{1, 3, 10}, mem),
		series.NewNullable("order_purchase_timestamp", []time.Time{ts, ts.Add(time.Hour), {}}, nil, mem),
	)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := io.ReadFile(filepath.Join(t.TempDir(), "absent.csv"), io.DefaultCSVOptions(), nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrMissingInput))
	assert.True(t, stderrors.Is(err, os.ErrNotExist))
}

func TestWriteFile_CSV(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := sampleFrame(mem)
	defer df.Release()

	path := filepath.Join(t.TempDir(), "nested", "dir", "payments_data.csv")
	require.NoError(t, io.WriteFile(path, df, io.DefaultCSVOptions()))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not remain")

	back, err := io.ReadFile(path, io.DefaultCSVOptions(), mem)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, df.Columns(), back.Columns())
	values, valid, err := back.Float64s("payment_value")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, valid)
	assert.InDelta(t, 99.9, values[0], 1e-9)

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, io.WriteFile(path, back, io.DefaultCSVOptions()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "rewriting a read table is byte-identical")
}

func TestWriteFile_Parquet(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := sampleFrame(mem)
	defer df.Release()

	path := filepath.Join(t.TempDir(), "payments_data.parquet")
	require.NoError(t, io.WriteFile(path, df, io.DefaultCSVOptions()))

	back, err := io.ReadFile(path, io.DefaultCSVOptions(), mem)
	require.NoError(t, err)
	defer back.Release()

	assert.Equal(t, 3, back.Len())
	col, ok := back.Column("order_purchase_timestamp")
	require.True(t, ok)
	assert.Equal(t, arrow.TIMESTAMP, col.DataType().ID())
	assert.True(t, col.IsNull(2))

	inst, _, err := back.Int64s("payment_installments")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 10}, inst)
}

func TestWriteBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "run_manifest.yaml")

	require.NoError(t, io.WriteBytes(path, []byte("first\n")))
	require.NoError(t, io.WriteBytes(path, []byte("second\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	t.Run("failed rename keeps no temp file", func(t *testing.T) {
		target := filepath.Join(dir, "occupied")
		require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o750))

		err := io.WriteBytes(target, []byte("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rename into")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp-")
		}
	})
}

func TestParseFormat(t *testing.T) {
	f, err := io.ParseFormat("Parquet")
	require.NoError(t, err)
	assert.Equal(t, ".parquet", f.Ext())

	_, err = io.ParseFormat("xlsx")
	assert.True(t, stderrors.Is(err, errors.ErrInvalidInput))
}
