package clean_test

import (
	"testing"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanGeolocation(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := loadRaw(t, mem.Allocator, config.InputGeolocation)
	defer raw.Release()

	res, err := clean.CleanGeolocation(raw)
	require.NoError(t, err)
	geo := res.Lookup
	defer geo.Release()

	assert.Equal(t, []string{"zip_code_prefix", "lat", "lng", "geo_city", "geo_state"}, geo.Columns())
	assert.Equal(t, 7, geo.Len())
	assert.Equal(t, 1, res.Dropped, "the prefix without coordinates is dropped")

	dups, err := geo.DuplicateCount("zip_code_prefix")
	require.NoError(t, err)
	assert.Zero(t, dups)
	for _, col := range []string{"lat", "lng"} {
		c, _ := geo.Column(col)
		assert.Zero(t, c.NullN(), col)
	}

	row := testutil.RowOf(t, geo, "zip_code_prefix", "1310")
	assert.InDelta(t, -23.56, testutil.Float(t, geo, "lat", row), 1e-9)
	assert.InDelta(t, -46.65, testutil.Float(t, geo, "lng", row), 1e-9)
	assert.Equal(t, "sao paulo", testutil.Str(t, geo, "geo_city", row))
	assert.Equal(t, "SP", testutil.Str(t, geo, "geo_state", row))
}
