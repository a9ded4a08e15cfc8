package clean

import (
	"strings"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
)

// PaymentBoleto is the bank-slip payment type.
const PaymentBoleto = "boleto"

// CleanPayments reduces payment rows to one row per order.
//
// Installments and sequence take the maximum, value is summed, the method is
// the most frequent type (first seen on ties) and payment_method_count counts
// the rows. Orders whose rows are all null get 0 or "unknown" sentinels.
func CleanPayments(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := raw.Require("CleanPayments", "order_id", "payment_sequential", "payment_type",
		"payment_installments", "payment_value"); err != nil {
		return nil, err
	}

	paymentType, err := mapStrings(raw, "payment_type", func(v string, ok bool) (string, bool) {
		return strings.ToLower(strings.TrimSpace(v)), ok && strings.TrimSpace(v) != ""
	})
	if err != nil {
		return nil, err
	}
	df, err := raw.WithColumns(paymentType)
	if err != nil {
		return nil, err
	}
	defer df.Release()

	gb, err := df.GroupBy("order_id")
	if err != nil {
		return nil, err
	}
	agg, err := gb.Agg(
		dataframe.Agg("payment_installments", dataframe.Max).WithDefault(int64(0)),
		dataframe.Agg("payment_value", dataframe.Sum).WithDefault(0.0),
		dataframe.Agg("payment_sequential", dataframe.Max).WithDefault(int64(0)),
		dataframe.Agg("payment_type", dataframe.Mode).WithDefault(UnknownCategory),
		dataframe.Agg("order_id", dataframe.Count).Alias("payment_method_count"),
	)
	if err != nil {
		return nil, err
	}
	defer agg.Release()

	installments, _, err := agg.Int64s("payment_installments")
	if err != nil {
		return nil, err
	}
	value, _, err := agg.Float64s("payment_value")
	if err != nil {
		return nil, err
	}
	sequential, _, err := agg.Int64s("payment_sequential")
	if err != nil {
		return nil, err
	}
	types, _, err := agg.Strings("payment_type")
	if err != nil {
		return nil, err
	}

	n := agg.Len()
	monthly := make([]float64, n)
	complexPay := make([]bool, n)
	boleto := make([]bool, n)
	for i := 0; i < n; i++ {
		monthly[i] = MonthlyPayment(value[i], installments[i])
		complexPay[i] = sequential[i] > 1
		boleto[i] = types[i] == PaymentBoleto
	}

	return agg.WithColumns(
		series.New("avg_monthly_payment", monthly, nil),
		flagColumn("is_complex_payment", complexPay),
		flagColumn("is_boleto", boleto),
	)
}

// MonthlyPayment spreads value over installments; one or fewer installments
// means the whole value is due at once.
func MonthlyPayment(value float64, installments int64) float64 {
	if installments <= 1 {
		return value
	}
	return value / float64(installments)
}
