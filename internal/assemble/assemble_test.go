package assemble_test

import (
	"os"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/assemble"
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	pipeerrors "github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/paveg/reviewrisk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cleanedTables runs every cleaner over the raw fixtures.
func cleanedTables(t *testing.T, mem memory.Allocator) (assemble.Tables, func()) {
	t.Helper()
	var owned []*dataframe.DataFrame
	keep := func(df *dataframe.DataFrame, err error) *dataframe.DataFrame {
		t.Helper()
		require.NoError(t, err)
		owned = append(owned, df)
		return df
	}
	raw := func(input string) *dataframe.DataFrame {
		return keep(testutil.ReadCSV(t, mem, testutil.RawFixtures()[input], clean.RawTypes[input]), nil)
	}

	orders := keep(clean.CleanOrders(raw(config.InputOrders)))
	reviews := keep(clean.CleanReviews(raw(config.InputReviews)))
	items := keep(clean.CleanItems(raw(config.InputItems)))
	geoRes, err := clean.CleanGeolocation(raw(config.InputGeolocation))
	require.NoError(t, err)
	owned = append(owned, geoRes.Lookup)

	tables := assemble.Tables{
		Orders:       orders,
		Reviews:      reviews,
		ReviewIssues: keep(clean.ClassifyReviews(reviews, orders)),
		Customers:    keep(clean.CleanCustomers(raw(config.InputCustomers))),
		Payments:     keep(clean.CleanPayments(raw(config.InputPayments))),
		ItemsAgg:     keep(clean.AggregateItems(items, config.ItemFirst)),
		Products:     keep(clean.CleanProducts(raw(config.InputProducts), raw(config.InputCategoryTranslation))),
		Sellers:      keep(clean.CleanSellers(raw(config.InputSellers))),
		Marketing:    keep(clean.CleanMarketing(raw(config.InputClosedDeals), raw(config.InputMarketingLeads))),
		Geolocation:  geoRes.Lookup,
	}
	return tables, func() {
		for _, df := range owned {
			df.Release()
		}
	}
}

func TestAssemble(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()

	res, err := assemble.Assemble(tables)
	require.NoError(t, err)
	defer res.Release()

	master := res.Master
	assert.Equal(t, testutil.FixtureDeliveredOrders, res.Delivered)
	assert.Equal(t, 1, res.Unlabeled)
	require.Equal(t, testutil.FixtureLabeledOrders, master.Len())
	assert.Empty(t, res.Conflicts)

	ids, _, err := master.Strings("order_id")
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2", "o5", "o6", "o7", "o8"}, ids, "anchor order is kept")

	t.Run("no null labels", func(t *testing.T) {
		c, _ := master.Column("review_score")
		assert.Zero(t, c.NullN())
	})

	t.Run("joined columns", func(t *testing.T) {
		row := testutil.RowOf(t, master, "order_id", "o1")
		assert.Equal(t, "p1", testutil.Str(t, master, "product_id", row))
		assert.Equal(t, "bed_bath_table", testutil.Str(t, master, "product_category_name_english", row))
		assert.Equal(t, clean.SegmentHome, testutil.Str(t, master, "seller_segment_group", row))
		assert.Equal(t, "paid_search", testutil.Str(t, master, "origin", row))
		assert.InDelta(t, 240.0, testutil.Float(t, master, "payment_value", row), 1e-9)

		row = testutil.RowOf(t, master, "order_id", "o5")
		assert.Equal(t, clean.Unknown, testutil.Str(t, master, "seller_segment_group", row))
		assert.Equal(t, clean.Unknown, testutil.Str(t, master, "origin", row))
		assert.Equal(t, "r5", testutil.Str(t, master, "review_id", row))
	})

	t.Run("geo features", func(t *testing.T) {
		assert.Equal(t, 1, res.DistanceImputed)
		assert.Positive(t, res.DistanceFill)

		row := testutil.RowOf(t, master, "order_id", "o1")
		assert.InDelta(t, 0.0, testutil.Float(t, master, "distance_km", row), 1e-6)
		assert.Equal(t, int64(1), testutil.Int(t, master, "is_same_state", row))

		row = testutil.RowOf(t, master, "order_id", "o7")
		assert.InDelta(t, 1210.0, testutil.Float(t, master, "distance_km", row), 60)
		assert.Equal(t, int64(0), testutil.Int(t, master, "is_same_state", row))

		row = testutil.RowOf(t, master, "order_id", "o8")
		assert.InDelta(t, res.DistanceFill, testutil.Float(t, master, "distance_km", row), 1e-9)
		assert.True(t, testutil.IsNull(t, master, "cust_lat", row))

		row = testutil.RowOf(t, master, "order_id", "o6")
		assert.Equal(t, int64(1), testutil.Int(t, master, "is_same_state", row))
	})

	t.Run("basic variant", func(t *testing.T) {
		basic := res.Basic
		assert.Equal(t, master.Len(), basic.Len())
		for _, col := range append(append([]string{}, assemble.IDColumns...), assemble.TextColumns...) {
			assert.False(t, basic.HasColumn(col), col)
		}
		assert.True(t, basic.HasColumn("review_score"))
		assert.True(t, basic.HasColumn("distance_km"))
		assert.False(t, basic.HasColumn("issue_category"))
	})

	t.Run("full variant", func(t *testing.T) {
		full := res.Full
		assert.Equal(t, master.Len(), full.Len())
		for _, col := range assemble.IDColumns {
			assert.False(t, full.HasColumn(col), col)
		}
		assert.True(t, full.HasColumn("review_comment_message"))
		row := testutil.RowOf(t, master, "order_id", "o2")
		assert.Equal(t, clean.IssueNotReceived, testutil.Str(t, full, "issue_category", row))
		assert.Equal(t, clean.SentimentNegative, testutil.Str(t, full, "sentiment_label", row))
	})
}

func TestAssembleWithoutReviewIssues(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()
	tables.ReviewIssues = nil

	res, err := assemble.Assemble(tables)
	require.NoError(t, err)
	defer res.Release()

	assert.False(t, res.Full.HasColumn("issue_category"))
}

func TestAssembleSharedReviewID(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()

	// the public export reuses review ids across orders
	text := strings.Replace(testutil.RawFixtures()[config.InputReviews], "r7,o7,", "r1,o7,", 1)
	raw := testutil.ReadCSV(t, mem.Allocator, text, clean.RawTypes[config.InputReviews])
	defer raw.Release()
	reviews, err := clean.CleanReviews(raw)
	require.NoError(t, err)
	defer reviews.Release()
	issues, err := clean.ClassifyReviews(reviews, tables.Orders)
	require.NoError(t, err)
	defer issues.Release()
	tables.Reviews, tables.ReviewIssues = reviews, issues

	res, err := assemble.Assemble(tables)
	require.NoError(t, err)
	defer res.Release()

	require.Equal(t, testutil.FixtureLabeledOrders, res.Full.Len())
	for order, want := range map[string]string{"o1": clean.IssueNone, "o7": clean.IssueService} {
		row := testutil.RowOf(t, res.Master, "order_id", order)
		assert.Equal(t, "r1", testutil.Str(t, res.Master, "review_id", row))
		assert.Equal(t, want, testutil.Str(t, res.Full, "issue_category", row), order)
	}
}

func TestAssembleRejectsFanOut(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()

	dup := dataframe.New(
		series.New("customer_id", []string{"c1", "c1"}, mem.Allocator),
		series.New("customer_state", []string{"SP", "RJ"}, mem.Allocator),
	)
	defer dup.Release()
	tables.Customers = dup

	_, err := assemble.Assemble(tables)
	assert.ErrorIs(t, err, pipeerrors.ErrSchema)
}

func TestAssembleMissingTable(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()
	tables.Payments = nil

	_, err := assemble.Assemble(tables)
	assert.ErrorIs(t, err, pipeerrors.ErrInvalidInput)
}

func TestAssembleReconcilesConflicts(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()

	// sellers that also carry a customer column must not overwrite it
	extra, err := tables.Sellers.WithColumns(series.New("customer_state", []string{"ZZ", "ZZ", "ZZ"}, mem.Allocator))
	require.NoError(t, err)
	defer extra.Release()
	tables.Sellers = extra

	res, err := assemble.Assemble(tables)
	require.NoError(t, err)
	defer res.Release()

	assert.Equal(t, []assemble.Conflict{{Step: clean.TableSellers, Column: "customer_state"}}, res.Conflicts)
	row := testutil.RowOf(t, res.Master, "order_id", "o1")
	assert.Equal(t, "SP", testutil.Str(t, res.Master, "customer_state", row))
}

func TestReconcile(t *testing.T) {
	mem := memory.NewGoAllocator()
	left := dataframe.New(
		series.New("order_id", []string{"o1"}, mem),
		series.New("price", []float64{1}, mem),
	)
	defer left.Release()
	right := dataframe.New(
		series.New("order_id", []string{"o1"}, mem),
		series.New("price", []float64{2}, mem),
		series.New("freight", []float64{3}, mem),
	)
	defer right.Release()

	out, dropped := assemble.Reconcile(left, right, "order_id")
	defer out.Release()

	assert.Equal(t, []string{"price"}, dropped)
	assert.Equal(t, []string{"order_id", "freight"}, out.Columns())
}

func TestWrite(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()
	tables, release := cleanedTables(t, mem.Allocator)
	defer release()

	res, err := assemble.Assemble(tables)
	require.NoError(t, err)
	defer res.Release()

	cfg := config.NewConfig()
	cfg.OutputDir = t.TempDir() + "/nested/final"
	rows, err := assemble.Write(res, &cfg)
	require.NoError(t, err)

	for _, name := range []string{assemble.TableMaster, assemble.TableBasic, assemble.TableFull} {
		assert.Equal(t, testutil.FixtureLabeledOrders, rows[name], name)
		_, err := os.Stat(cfg.OutputPath(name))
		assert.NoError(t, err, name)
	}
}
