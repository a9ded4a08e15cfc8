// Package assemble joins the cleaned tables into the order-grain master
// table and derives its basic and full variants.
package assemble

import (
	"fmt"

	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/geo"
	"github.com/paveg/reviewrisk/internal/series"
)

// Master table artifact names.
const (
	TableMaster = "master_dataset"
	TableBasic  = "final_dataset_basic"
	TableFull   = "final_dataset_nlp"
)

// IDColumns are raw identifiers, dropped from both variants.
var IDColumns = []string{"customer_id", "customer_unique_id", "order_id", "product_id", "seller_id", "review_id"}

// TextColumns are free text and raw timestamps, dropped from the basic variant only.
var TextColumns = []string{
	"review_comment_title", "review_comment_message", "review_creation_date", "review_answer_timestamp",
	"order_purchase_timestamp", "order_approved_at", "order_delivered_carrier_date",
	"order_delivered_customer_date", "order_estimated_delivery_date",
}

// Tables holds the cleaned inputs. ReviewIssues is optional.
type Tables struct {
	Orders       *dataframe.DataFrame
	Reviews      *dataframe.DataFrame
	ReviewIssues *dataframe.DataFrame
	Customers    *dataframe.DataFrame
	Payments     *dataframe.DataFrame
	ItemsAgg     *dataframe.DataFrame
	Products     *dataframe.DataFrame
	Sellers      *dataframe.DataFrame
	Marketing    *dataframe.DataFrame
	Geolocation  *dataframe.DataFrame
}

// Result is the assembled master table and its variants.
type Result struct {
	Master *dataframe.DataFrame // labeled rows, identifiers kept
	Basic  *dataframe.DataFrame
	Full   *dataframe.DataFrame

	Conflicts       []Conflict
	Delivered       int     // rows after the delivered filter
	Unlabeled       int     // rows dropped for a missing review score
	DistanceImputed int     // rows whose distance was filled
	DistanceFill    float64 // the median used to fill them
}

// Release frees every frame of the result.
func (r *Result) Release() {
	for _, df := range []*dataframe.DataFrame{r.Master, r.Basic, r.Full} {
		if df != nil {
			df.Release()
		}
	}
}

func missingTable(name string) error {
	return errors.NewInvalidInputError("Assemble", fmt.Sprintf("table %s is required", name))
}

// Assemble keeps delivered orders, runs the join steps, adds distance and
// same-state features and drops rows without a review score. The row count
// never grows: every right side is checked for one row per key.
func Assemble(t Tables) (*Result, error) {
	if t.Orders == nil {
		return nil, missingTable(clean.TableOrders)
	}
	delivered, ok, err := t.Orders.Int64s("is_delivered")
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(delivered))
	for i := range delivered {
		mask[i] = ok[i] && delivered[i] == 1
	}
	df, err := t.Orders.Filter(mask)
	if err != nil {
		return nil, err
	}
	res := &Result{Delivered: df.Len()}

	for _, step := range Steps() {
		next, conflicts, err := applyStep(df, &t, step)
		df.Release()
		if err != nil {
			return nil, fmt.Errorf("join %s: %w", step.Name, err)
		}
		if next.Len() != res.Delivered {
			next.Release()
			return nil, errors.NewSchemaError("Assemble", step.Name,
				fmt.Sprintf("join changed row count from %d to %d", res.Delivered, next.Len()))
		}
		res.Conflicts = append(res.Conflicts, conflicts...)
		df = next
	}

	withGeo, err := addGeoFeatures(df, res)
	df.Release()
	if err != nil {
		return nil, err
	}
	defer withGeo.Release()

	_, labeled, err := withGeo.Int64s("review_score")
	if err != nil {
		return nil, err
	}
	for _, l := range labeled {
		if !l {
			res.Unlabeled++
		}
	}
	if res.Master, err = withGeo.Filter(labeled); err != nil {
		return nil, err
	}

	res.Basic = res.Master.Drop(append(append([]string{}, IDColumns...), TextColumns...)...)
	if res.Full, err = fullVariant(res.Master, t.ReviewIssues); err != nil {
		res.Release()
		return nil, err
	}
	return res, nil
}

func addGeoFeatures(df *dataframe.DataFrame, res *Result) (*dataframe.DataFrame, error) {
	points := func(latCol, lngCol string) ([]geo.Point, error) {
		lat, latOK, err := df.Float64s(latCol)
		if err != nil {
			return nil, err
		}
		lng, lngOK, err := df.Float64s(lngCol)
		if err != nil {
			return nil, err
		}
		out := make([]geo.Point, len(lat))
		for i := range lat {
			out[i] = geo.Point{Lat: lat[i], Lng: lng[i], Valid: latOK[i] && lngOK[i]}
		}
		return out, nil
	}
	from, err := points("cust_lat", "cust_lng")
	if err != nil {
		return nil, err
	}
	to, err := points("sell_lat", "sell_lng")
	if err != nil {
		return nil, err
	}

	dist, valid := geo.Distances(from, to)
	known := make([]float64, 0, len(dist))
	for i, d := range dist {
		if valid[i] {
			known = append(known, d)
		}
	}
	res.DistanceFill = dataframe.MedianOf(known)
	for i := range dist {
		if !valid[i] {
			dist[i] = res.DistanceFill
			res.DistanceImputed++
		}
	}

	custState, custOK, err := df.Strings("customer_state")
	if err != nil {
		return nil, err
	}
	sellState, sellOK, err := df.Strings("seller_state")
	if err != nil {
		return nil, err
	}
	same := make([]int64, len(custState))
	for i := range same {
		if custOK[i] && sellOK[i] && custState[i] == sellState[i] {
			same[i] = 1
		}
	}

	return df.WithColumns(
		series.New("distance_km", dist, nil),
		series.New("is_same_state", same, nil),
	)
}

// fullVariant keeps free text, attaches the review issue labels when
// available and drops identifiers. Labels join on order_id: one review_id
// can be shared by several orders, while reviews are unique per order.
func fullVariant(master, issues *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if issues == nil {
		return master.Drop(IDColumns...), nil
	}
	if err := issues.Require("Assemble", "order_id", "issue_category", "sentiment_label"); err != nil {
		return nil, err
	}
	labels := issues.Select("order_id", "issue_category", "sentiment_label")
	defer labels.Release()

	joined, err := master.Join(labels, &dataframe.JoinOptions{Type: dataframe.LeftJoin, LeftKey: "order_id", UniqueRight: true})
	if err != nil {
		return nil, fmt.Errorf("attach review issues: %w", err)
	}
	defer joined.Release()
	filled, err := joined.FillNull(map[string]any{
		"issue_category":  clean.IssueUnclassified,
		"sentiment_label": clean.SentimentUnknown,
	})
	if err != nil {
		return nil, err
	}
	defer filled.Release()
	return filled.Drop(IDColumns...), nil
}
