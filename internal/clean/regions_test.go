package clean_test

import (
	"testing"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionOf(t *testing.T) {
	tests := map[string]string{
		"SP": "SE", "rj": "SE", "PR": "S", "BA": "NE", "SE": "NE",
		"DF": "CO", "AM": "N", "XX": clean.RegionOther, "": clean.RegionOther,
	}
	for state, want := range tests {
		assert.Equal(t, want, clean.RegionOf(state), state)
	}
}

func TestRegionsPartitionStates(t *testing.T) {
	seen := make(map[string]string)
	for region, states := range clean.Regions {
		for _, s := range states {
			prev, dup := seen[s]
			assert.False(t, dup, "%s in both %s and %s", s, prev, region)
			seen[s] = region
		}
	}
	assert.Len(t, seen, 27)
}

func TestCleanCustomers(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := loadRaw(t, mem.Allocator, config.InputCustomers)
	defer raw.Release()

	customers, err := clean.CleanCustomers(raw)
	require.NoError(t, err)
	defer customers.Release()

	testutil.AssertDataFrameHasColumns(t, customers, []string{
		"customer_id", "customer_unique_id", "customer_zip_code_prefix", "customer_city",
		"customer_state", "customer_region", "is_hub_customer",
	})

	row := testutil.RowOf(t, customers, "customer_id", "c6")
	assert.Equal(t, "1310", testutil.Str(t, customers, "customer_zip_code_prefix", row))
	assert.Equal(t, "São Paulo", testutil.Str(t, customers, "customer_city", row))
	assert.Equal(t, "SP", testutil.Str(t, customers, "customer_state", row))
	assert.Equal(t, "SE", testutil.Str(t, customers, "customer_region", row))
	assert.Equal(t, int64(1), testutil.Int(t, customers, "is_hub_customer", row))

	row = testutil.RowOf(t, customers, "customer_id", "c8")
	assert.Equal(t, clean.RegionOther, testutil.Str(t, customers, "customer_region", row))
	assert.Equal(t, int64(0), testutil.Int(t, customers, "is_hub_customer", row))

	row = testutil.RowOf(t, customers, "customer_id", "c2")
	assert.Equal(t, "Rio De Janeiro", testutil.Str(t, customers, "customer_city", row))
}

func TestCleanSellers(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	raw := loadRaw(t, mem.Allocator, config.InputSellers)
	defer raw.Release()

	sellers, err := clean.CleanSellers(raw)
	require.NoError(t, err)
	defer sellers.Release()

	assert.Equal(t, 3, sellers.Len())
	row := testutil.RowOf(t, sellers, "seller_id", "s3")
	assert.Equal(t, "Campinas", testutil.Str(t, sellers, "seller_city", row))
	assert.Equal(t, "SE", testutil.Str(t, sellers, "seller_region", row))
	assert.Equal(t, int64(1), testutil.Int(t, sellers, "is_hub_seller", row))
	assert.Equal(t, int64(0), testutil.Int(t, sellers, "is_hub_seller", testutil.RowOf(t, sellers, "seller_id", "s2")))
}

func TestNormalizeZip(t *testing.T) {
	assert.Equal(t, "1310", clean.NormalizeZip("01310"))
	assert.Equal(t, "1310", clean.NormalizeZip(" 1310 "))
	assert.Equal(t, "0", clean.NormalizeZip("000"))
	assert.Equal(t, "ab12", clean.NormalizeZip("ab12"))
}
