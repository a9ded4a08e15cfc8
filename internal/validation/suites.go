package validation

import (
	"math"
	"strings"

	"github.com/paveg/reviewrisk/internal/assemble"
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/geo"
)

// Suite is the set of checks run against one table.
type Suite struct {
	Table  string
	Checks []Check
}

// Result is the outcome of one check. Err is set when the check could not
// run, for example because a column is missing; it is never fatal.
type Result struct {
	Table      string
	Check      string
	Rows       int
	Violations int
	Err        error
}

// Failed reports whether the check found violations or could not run.
func (r Result) Failed() bool {
	return r.Violations > 0 || r.Err != nil
}

// Run executes every check of the suite. It never stops early. A table
// without rows yields a single failed "has rows" result instead, since
// every check would pass vacuously.
func (s Suite) Run(df *dataframe.DataFrame) []Result {
	if err := ValidateNotEmpty(df, "Suite.Run", s.Table); err != nil {
		return []Result{{Table: s.Table, Check: "has rows", Err: err}}
	}
	results := make([]Result, 0, len(s.Checks))
	for _, c := range s.Checks {
		res := Result{Table: s.Table, Check: c.Name, Rows: df.Len()}
		if err := ValidateColumns(df, s.Table, c.Columns...); err != nil {
			res.Err = err
		} else {
			res.Violations, res.Err = c.Count(df)
		}
		results = append(results, res)
	}
	return results
}

func isSP(v string, ok bool) bool { return ok && strings.EqualFold(v, clean.HubState) }

// Suites lists the data-quality suites of every written table.
func Suites() []Suite {
	inf := math.Inf(1)
	return []Suite{
		{Table: clean.TableOrders, Checks: []Check{
			Unique("order_id"),
			Rows("is_late agrees with expectation_gap", []string{"expectation_gap", "is_late"}, func(v []float64) bool {
				return (v[0] < 0) != (v[1] == 1)
			}),
			InRange("seller_process_days", 0, inf),
			Binary("is_weekend_order"),
			Binary("is_delivered"),
		}},
		{Table: clean.TableItems, Checks: []Check{
			Rows("price + freight_value = total_item_value", []string{"price", "freight_value", "total_item_value"}, func(v []float64) bool {
				return math.Abs(v[0]+v[1]-v[2]) > 0.01
			}),
			InRange("freight_ratio", 0, 1),
			InRange("price", 0, inf),
			InRange("freight_value", 0, inf),
		}},
		{Table: clean.TableProducts, Checks: []Check{
			Unique("product_id"),
			NotNull("product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm"),
			Rows("volumetric weight formula", []string{"product_length_cm", "product_width_cm", "product_height_cm", "volumetric_weight_kg"}, func(v []float64) bool {
				return math.Abs(v[0]*v[1]*v[2]/clean.VolumetricDivisor-v[3]) > 0.01
			}),
			InRange("density_ratio", 0, inf),
		}},
		{Table: clean.TablePayments, Checks: []Check{
			Unique("order_id"),
			Rows("avg_monthly_payment x installments = payment_value", []string{"avg_monthly_payment", "payment_installments", "payment_value"}, func(v []float64) bool {
				return v[1] > 1 && math.Abs(v[0]*v[1]-v[2]) >= 1
			}),
			FlagMatches("is_boleto", "payment_type", func(v string, ok bool) bool { return ok && v == clean.PaymentBoleto }),
		}},
		{Table: clean.TableReviews, Checks: []Check{
			Unique("order_id"),
			Equals("review_comment_message", "nan"),
			InRange("response_time_hours", 0, inf),
			InRange("review_score", clean.MinReviewScore, clean.MaxReviewScore),
		}},
		{Table: clean.TableReviewIssues, Checks: []Check{
			Unique("order_id"),
			OneOf("issue_category", append(clean.IssueRules.Labels(), clean.IssueNone)...),
			OneOf("sentiment_label", clean.SentimentNegative, clean.SentimentNeutral,
				clean.SentimentPositive, clean.SentimentUnknown),
		}},
		{Table: clean.TableCustomers, Checks: []Check{
			Unique("customer_id"),
			Equals("customer_region", clean.RegionOther),
			FlagMatches("is_hub_customer", "customer_state", isSP),
		}},
		{Table: clean.TableSellers, Checks: []Check{
			Unique("seller_id"),
			Equals("seller_region", clean.RegionOther),
			FlagMatches("is_hub_seller", "seller_state", isSP),
		}},
		{Table: clean.TableGeolocation, Checks: []Check{
			Unique("zip_code_prefix"),
			NotNull("lat", "lng"),
		}},
		{Table: clean.TableMarketing, Checks: []Check{
			Unique("seller_id"),
			NotNull("seller_segment_group", "origin"),
		}},
		{Table: assemble.TableBasic, Checks: []Check{
			HasColumn("review_score"),
			HasColumn("seller_segment_group"),
			InRange("distance_km", 0, geo.MaxDistanceKm),
			NotNull("review_score"),
		}},
		{Table: assemble.TableFull, Checks: []Check{
			HasColumn("review_comment_message"),
			HasColumn("review_score"),
		}},
	}
}
