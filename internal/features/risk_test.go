package features_test

import (
	"testing"

	"github.com/paveg/reviewrisk/internal/dataframe"
	pipeerrors "github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/features"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRisk(t *testing.T) {
	df := dataframe.New(
		series.NewNullable("category",
			[]string{"toys", "toys", "books", "books", "", "garden"},
			[]bool{true, true, true, true, false, true}, nil),
		series.New("is_bad_review", []int64{1, 0, 1, 1, 0, 1}, nil),
	)
	defer df.Release()

	// the last row is held out, so garden is never fitted
	train, test, err := features.Partition(df, []bool{false, false, false, false, false, true})
	require.NoError(t, err)
	defer train.Release()
	defer test.Release()

	risk, err := features.FitRisk(train, "category", "is_bad_review")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, risk.Rates["toys"], 1e-9)
	assert.InDelta(t, 1.0, risk.Rates["books"], 1e-9)
	assert.Equal(t, int64(2), risk.Counts["toys"])
	assert.InDelta(t, 0.6, risk.GlobalMean, 1e-9)
	assert.NotContains(t, risk.Rates, "garden")

	t.Run("unseen and null values get the global mean", func(t *testing.T) {
		assert.InDelta(t, 0.6, risk.Rate("garden", true), 1e-9)
		assert.InDelta(t, 0.6, risk.Rate("", false), 1e-9)
	})

	t.Run("apply to held out rows", func(t *testing.T) {
		applied, err := risk.Apply(test.Frame(), "category_risk")
		require.NoError(t, err)
		defer applied.Release()
		rates, ok, err := applied.Float64s("category_risk")
		require.NoError(t, err)
		assert.Equal(t, []bool{true}, ok)
		assert.InDelta(t, risk.GlobalMean, rates[0], 1e-9)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := features.FitRisk(train, "seller_id", "is_bad_review")
		assert.ErrorIs(t, err, pipeerrors.ErrSchema)
	})

	t.Run("zero train partition", func(t *testing.T) {
		_, err := features.FitRisk(features.TrainFrame{}, "category", "is_bad_review")
		assert.ErrorIs(t, err, pipeerrors.ErrLeakage)
	})
}
