package clean_test

import (
	"testing"
	"time"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanReviews(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := loadRaw(t, mem.Allocator, config.InputReviews)
	defer raw.Release()

	reviews, err := clean.CleanReviews(raw)
	require.NoError(t, err)
	defer reviews.Release()

	ids, _, err := reviews.Strings("review_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3", "r5", "r6", "r7", "r8"}, ids,
		"one review per order, latest answer wins, input order kept")

	t.Run("comment features", func(t *testing.T) {
		row := testutil.RowOf(t, reviews, "review_id", "r2")
		assert.Equal(t, int64(21), testutil.Int(t, reviews, "comment_length", row))
		assert.Equal(t, int64(1), testutil.Int(t, reviews, "has_comment", row))
		assert.InDelta(t, 30.0, testutil.Float(t, reviews, "response_time_hours", row), 1e-9)
	})

	t.Run("nan text becomes empty", func(t *testing.T) {
		row := testutil.RowOf(t, reviews, "review_id", "r6")
		assert.False(t, testutil.IsNull(t, reviews, "review_comment_message", row))
		assert.Equal(t, "", testutil.Str(t, reviews, "review_comment_message", row))
		assert.Equal(t, "Bom", testutil.Str(t, reviews, "review_comment_title", row))
		assert.Equal(t, int64(0), testutil.Int(t, reviews, "has_comment", row))
		assert.True(t, testutil.IsNull(t, reviews, "response_time_hours", row))
	})
}

func TestCleanReviewsScoreRange(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := testutil.ReadCSV(t, mem.Allocator, `review_id,order_id,review_score,review_comment_title,review_comment_message,review_creation_date,review_answer_timestamp
a,o1,-1,,,2018-01-01 00:00:00,2017-12-31 00:00:00
b,o2,4,,,2018-01-01 00:00:00,2018-01-01 06:00:00
c,o3,9,,,2018-01-01 00:00:00,2018-01-01 06:00:00
`, clean.RawTypes[config.InputReviews])
	defer raw.Release()

	reviews, err := clean.CleanReviews(raw)
	require.NoError(t, err)
	defer reviews.Release()

	assert.True(t, testutil.IsNull(t, reviews, "review_score", 0))
	assert.Equal(t, int64(4), testutil.Int(t, reviews, "review_score", 1))
	assert.True(t, testutil.IsNull(t, reviews, "review_score", 2))
	assert.Equal(t, 0.0, testutil.Float(t, reviews, "response_time_hours", 0), "negative response time is clipped")
}

func TestResponseHours(t *testing.T) {
	created := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 36.0, clean.ResponseHours(created, created.Add(36*time.Hour)))
	assert.Equal(t, 0.0, clean.ResponseHours(created, created.Add(-time.Hour)))
}
