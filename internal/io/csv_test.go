package io_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersCSV = `order_id,customer_zip_code_prefix,price,order_delivered_customer_date,review_comment_message
o1,01037,10.5,2017-10-10 21:25:13,Recebi bem antes do prazo
o2,1046,,,nan
o3,4534,abc,not a date,"linha 1
linha 2"
`

func TestCSVReader_Read(t *testing.T) {
	mem := memory.NewGoAllocator()

	t.Run("pinned types keep nulls", func(t *testing.T) {
		opts := io.DefaultCSVOptions().WithTypes(map[string]io.ColumnType{
			"customer_zip_code_prefix":      io.String,
			"price":                         io.Float64,
			"order_delivered_customer_date": io.Timestamp,
		})
		df, err := io.NewCSVReader(strings.NewReader(ordersCSV), opts, mem).Read()
		require.NoError(t, err)
		defer df.Release()

		assert.Equal(t, 3, df.Len())

		zips, _, err := df.Strings("customer_zip_code_prefix")
		require.NoError(t, err)
		assert.Equal(t, []string{"01037", "1046", "4534"}, zips)

		prices, valid, err := df.Float64s("price")
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, false}, valid)
		assert.InDelta(t, 10.5, prices[0], 1e-9)

		col, ok := df.Column("order_delivered_customer_date")
		require.True(t, ok)
		assert.Equal(t, arrow.TIMESTAMP, col.DataType().ID())
		assert.Equal(t, 2, col.NullN())

		text, valid, err := df.Strings("review_comment_message")
		require.NoError(t, err)
		assert.Equal(t, []bool{true, false, true}, valid)
		assert.Equal(t, "linha 1\nlinha 2", text[2])
	})

	t.Run("inference", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader("a,b,c,d\n1,1.5,true,x\n,2,false,\n"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()

		want := map[string]arrow.Type{"a": arrow.INT64, "b": arrow.FLOAT64, "c": arrow.BOOL, "d": arrow.STRING}
		for name, id := range want {
			col, ok := df.Column(name)
			require.True(t, ok)
			assert.Equal(t, id, col.DataType().ID(), name)
		}
		a, _ := df.Column("a")
		assert.True(t, a.IsNull(1))
	})

	t.Run("ragged rows are padded", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader("a,b\n1\n2,3\n"), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		defer df.Release()
		b, _ := df.Column("b")
		assert.True(t, b.IsNull(0))
	})

	t.Run("empty input", func(t *testing.T) {
		df, err := io.NewCSVReader(strings.NewReader(""), io.DefaultCSVOptions(), mem).Read()
		require.NoError(t, err)
		assert.Equal(t, 0, df.Width())
	})
}

func TestCSVWriter_Write(t *testing.T) {
	mem := memory.NewGoAllocator()
	df := dataframe.New(
		series.New("order_id", []string{"o1", "o2"}, mem),
		series.NewNullable("distance_km", []float64{12.25, 0}, []bool{true, false}, mem),
		series.New("is_late", []int64{0, 1}, mem),
	)
	defer df.Release()

	var buf bytes.Buffer
	require.NoError(t, io.NewCSVWriter(&buf, io.DefaultCSVOptions()).Write(df))
	assert.Equal(t, "order_id,distance_km,is_late\no1,12.25,0\no2,,1\n", buf.String())
}
