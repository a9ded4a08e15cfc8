package dataframe_test

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ordersFrame(mem memory.Allocator) *dataframe.DataFrame {
	return dataframe.New(
		series.New("order_id", []string{"o1", "o2", "o3"}, mem),
		series.NewNullable("price", []float64{10, 0, 30}, []bool{true, false, true}, mem),
		series.New("qty", []int64{1, 2, 3}, mem),
	)
}

func TestDataFrameBasics(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := ordersFrame(mem)
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 3, df.Width())
	assert.Equal(t, []string{"order_id", "price", "qty"}, df.Columns())

	t.Run("select skips unknown columns", func(t *testing.T) {
		sel := df.Select("qty", "missing", "order_id")
		defer sel.Release()
		assert.Equal(t, []string{"qty", "order_id"}, sel.Columns())
	})

	t.Run("drop", func(t *testing.T) {
		dropped := df.Drop("price")
		defer dropped.Release()
		assert.Equal(t, []string{"order_id", "qty"}, dropped.Columns())
		assert.True(t, df.HasColumn("price"))
	})

	t.Run("rename keeps order", func(t *testing.T) {
		renamed := df.Rename(map[string]string{"price": "payment_value"})
		defer renamed.Release()
		assert.Equal(t, []string{"order_id", "payment_value", "qty"}, renamed.Columns())
	})

	t.Run("require reports missing column", func(t *testing.T) {
		err := df.Require("CleanOrders", "order_id", "order_status")
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.ErrSchema))
	})

	t.Run("with columns replaces in place", func(t *testing.T) {
		out, err := df.WithColumns(series.New("qty", []int64{9, 9, 9}, mem), series.New("flag", []int64{0, 1, 0}, mem))
		require.NoError(t, err)
		defer out.Release()
		assert.Equal(t, []string{"order_id", "price", "qty", "flag"}, out.Columns())
		qty, _, err := out.Int64s("qty")
		require.NoError(t, err)
		assert.Equal(t, []int64{9, 9, 9}, qty)
	})

	t.Run("with columns rejects wrong length", func(t *testing.T) {
		_, err := df.WithColumns(series.New("flag", []int64{1}, mem))
		assert.Error(t, err)
	})

	t.Run("filter", func(t *testing.T) {
		out, err := df.Filter([]bool{true, false, true})
		require.NoError(t, err)
		defer out.Release()
		ids, _, err := out.Strings("order_id")
		require.NoError(t, err)
		assert.Equal(t, []string{"o1", "o3"}, ids)
	})

	t.Run("take with missing row", func(t *testing.T) {
		out := df.Take([]int{2, -1})
		defer out.Release()
		prices, valid, err := out.Float64s("price")
		require.NoError(t, err)
		assert.Equal(t, []float64{30, 0}, prices)
		assert.Equal(t, []bool{true, false}, valid)
	})
}

func TestAccessors(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.NewNullable("ts", []string{"2017-10-02 10:56:33", "bogus", ""}, []bool{true, true, false}, mem),
		series.New("n", []string{"1.5", "x", "3"}, mem),
		series.New("i", []int64{4, 5, 6}, mem),
	)
	defer df.Release()

	times, valid, err := df.Times("ts")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, valid)
	assert.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), times[0])

	nums, valid, err := df.Float64s("n")
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, valid)
	assert.InDelta(t, 1.5, nums[0], 1e-9)

	asText, _, err := df.Strings("i")
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5", "6"}, asText)

	_, _, err = df.Times("i")
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedType))
}

func TestDuplicateCount(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(series.NewNullable("id", []string{"a", "b", "a", "", ""}, []bool{true, true, true, false, false}, mem))
	defer df.Release()

	n, err := df.DuplicateCount("id")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFillNull(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.NewNullable("origin", []string{"paid_search", ""}, []bool{true, false}, mem),
		series.NewNullable("price", []float64{0, 2}, []bool{false, true}, mem),
	)
	defer df.Release()

	out, err := df.FillNull(map[string]any{"origin": "Unknown", "price": 0, "absent": "x"})
	require.NoError(t, err)
	defer out.Release()

	origin, valid, err := out.Strings("origin")
	require.NoError(t, err)
	assert.Equal(t, []string{"paid_search", "Unknown"}, origin)
	assert.Equal(t, []bool{true, true}, valid)

	_, err = df.FillNull(map[string]any{"origin": 1})
	assert.Error(t, err)
}

func TestDropDuplicates(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.NewNullable("product_id", []string{"p1", "p2", "p1", ""}, []bool{true, true, true, false}, mem),
		series.New("weight", []float64{100, 200, 300, 400}, mem),
	)
	defer df.Release()

	out, err := df.DropDuplicates("product_id")
	require.NoError(t, err)
	defer out.Release()

	weights, _, err := out.Float64s("weight")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 200, 400}, weights)
}

func TestHStack(t *testing.T) {
	mem := memory.NewGoAllocator()
	a := dataframe.New(series.New("order_id", []string{"o1", "o2"}, mem))
	defer a.Release()
	b := dataframe.New(series.New("seller_id", []string{"s1", "s2"}, mem))
	defer b.Release()

	out, err := a.HStack(b)
	require.NoError(t, err)
	defer out.Release()
	assert.Equal(t, []string{"order_id", "seller_id"}, out.Columns())

	_, err = a.HStack(a)
	assert.Error(t, err)

	short := dataframe.New(series.New("x", []int64{1}, mem))
	defer short.Release()
	_, err = a.HStack(short)
	assert.Error(t, err)
}
