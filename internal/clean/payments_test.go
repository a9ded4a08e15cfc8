package clean_test

import (
	"testing"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPayments(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := loadRaw(t, mem.Allocator, config.InputPayments)
	defer raw.Release()

	payments, err := clean.CleanPayments(raw)
	require.NoError(t, err)
	defer payments.Release()

	assert.Equal(t, 9, payments.Len())

	t.Run("multi instrument order", func(t *testing.T) {
		row := testutil.RowOf(t, payments, "order_id", "o1")
		assert.Equal(t, int64(3), testutil.Int(t, payments, "payment_installments", row))
		assert.InDelta(t, 240.0, testutil.Float(t, payments, "payment_value", row), 1e-9)
		assert.Equal(t, "voucher", testutil.Str(t, payments, "payment_type", row))
		assert.Equal(t, int64(3), testutil.Int(t, payments, "payment_method_count", row))
		assert.Equal(t, int64(1), testutil.Int(t, payments, "is_complex_payment", row))
		assert.Equal(t, int64(0), testutil.Int(t, payments, "is_boleto", row))
		assert.InDelta(t, 80.0, testutil.Float(t, payments, "avg_monthly_payment", row), 1e-9)
	})

	t.Run("boleto", func(t *testing.T) {
		row := testutil.RowOf(t, payments, "order_id", "o2")
		assert.Equal(t, int64(1), testutil.Int(t, payments, "is_boleto", row))
		assert.Equal(t, int64(0), testutil.Int(t, payments, "is_complex_payment", row))
		assert.InDelta(t, 55.0, testutil.Float(t, payments, "avg_monthly_payment", row), 1e-9)
	})

	t.Run("zero installments pays at once", func(t *testing.T) {
		row := testutil.RowOf(t, payments, "order_id", "o6")
		assert.InDelta(t, 75.0, testutil.Float(t, payments, "avg_monthly_payment", row), 1e-9)
	})

	t.Run("monthly payment times installments is the value", func(t *testing.T) {
		inst, _, _ := payments.Int64s("payment_installments")
		value, _, _ := payments.Float64s("payment_value")
		monthly, _, _ := payments.Float64s("avg_monthly_payment")
		for i := range inst {
			if inst[i] > 1 {
				assert.InDelta(t, value[i], monthly[i]*float64(inst[i]), 1.0, "row %d", i)
			}
		}
	})
}

func TestCleanPaymentsAllNullGroup(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := testutil.ReadCSV(t, mem.Allocator, "order_id,payment_sequential,payment_type,payment_installments,payment_value\no1,,,,\n",
		clean.RawTypes[config.InputPayments])
	defer raw.Release()

	payments, err := clean.CleanPayments(raw)
	require.NoError(t, err)
	defer payments.Release()

	assert.Equal(t, "unknown", testutil.Str(t, payments, "payment_type", 0))
	assert.Equal(t, int64(0), testutil.Int(t, payments, "payment_installments", 0))
	assert.Equal(t, 0.0, testutil.Float(t, payments, "payment_value", 0))
	assert.Equal(t, 0.0, testutil.Float(t, payments, "avg_monthly_payment", 0))
}

func TestMonthlyPayment(t *testing.T) {
	assert.Equal(t, 90.0, clean.MonthlyPayment(90, 0))
	assert.Equal(t, 90.0, clean.MonthlyPayment(90, 1))
	assert.Equal(t, 22.5, clean.MonthlyPayment(90, 4))
}
