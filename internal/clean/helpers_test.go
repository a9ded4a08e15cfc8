package clean_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/testutil"
)

// loadRaw reads one raw fixture with the production column types.
func loadRaw(t *testing.T, mem memory.Allocator, input string) *dataframe.DataFrame {
	t.Helper()
	return testutil.ReadCSV(t, mem, testutil.RawFixtures()[input], clean.RawTypes[input])
}
