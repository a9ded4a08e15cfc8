package clean_test

import (
	"testing"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentGroup(t *testing.T) {
	tests := map[string]string{
		"home_decor":          clean.SegmentHome,
		"household_utilities": clean.SegmentHome,
		"health_beauty":       clean.SegmentHealth,
		"computers":           clean.SegmentTech,
		"phone_mobile":        clean.SegmentTech,
		"car_accessories":     clean.SegmentAuto,
		"audio_video":         clean.SegmentOther,
		clean.Unknown:         clean.SegmentOther,
	}
	for segment, want := range tests {
		assert.Equal(t, want, clean.SegmentGroup(segment), segment)
	}
}

func TestCleanMarketing(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	deals := loadRaw(t, mem.Allocator, config.InputClosedDeals)
	defer deals.Release()
	leads := loadRaw(t, mem.Allocator, config.InputMarketingLeads)
	defer leads.Release()

	marketing, err := clean.CleanMarketing(deals, leads)
	require.NoError(t, err)
	defer marketing.Release()

	assert.Equal(t, []string{"seller_id", "business_segment", "lead_type", "origin",
		"seller_segment_group", "is_manufacturer"}, marketing.Columns())
	require.Equal(t, 2, marketing.Len(), "duplicate sellers collapse and deals without a seller drop")

	row := testutil.RowOf(t, marketing, "seller_id", "s1")
	assert.Equal(t, "home_decor", testutil.Str(t, marketing, "business_segment", row), "first deal wins")
	assert.Equal(t, "paid_search", testutil.Str(t, marketing, "origin", row))
	assert.Equal(t, clean.SegmentHome, testutil.Str(t, marketing, "seller_segment_group", row))
	assert.Equal(t, int64(0), testutil.Int(t, marketing, "is_manufacturer", row))

	row = testutil.RowOf(t, marketing, "seller_id", "s2")
	assert.Equal(t, clean.SegmentHealth, testutil.Str(t, marketing, "seller_segment_group", row))
	assert.Equal(t, int64(1), testutil.Int(t, marketing, "is_manufacturer", row))
}

func TestCleanMarketingFillsUnknown(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	deals := testutil.ReadCSV(t, mem.Allocator, "mql_id,seller_id,business_segment,lead_type\nm9,s9,,\n",
		clean.RawTypes[config.InputClosedDeals])
	defer deals.Release()
	leads := loadRaw(t, mem.Allocator, config.InputMarketingLeads)
	defer leads.Release()

	marketing, err := clean.CleanMarketing(deals, leads)
	require.NoError(t, err)
	defer marketing.Release()

	for _, col := range []string{"business_segment", "lead_type", "origin"} {
		assert.Equal(t, clean.Unknown, testutil.Str(t, marketing, col, 0), col)
	}
	assert.Equal(t, clean.SegmentOther, testutil.Str(t, marketing, "seller_segment_group", 0))
}
