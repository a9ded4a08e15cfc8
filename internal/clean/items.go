package clean

import (
	"fmt"

	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
)

// HighFreightThreshold is the freight share of an item's total above which
// the item counts as high-freight.
const HighFreightThreshold = 0.4

// CleanItems adds per-item value and freight features.
func CleanItems(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := raw.Require("CleanItems", "order_id", "product_id", "seller_id", "price", "freight_value"); err != nil {
		return nil, err
	}

	price, priceOK, err := raw.Float64s("price")
	if err != nil {
		return nil, err
	}
	freight, freightOK, err := raw.Float64s("freight_value")
	if err != nil {
		return nil, err
	}

	n := raw.Len()
	total, totalOK := make([]float64, n), make([]bool, n)
	ratio := make([]float64, n)
	high := make([]bool, n)
	for i := 0; i < n; i++ {
		if !priceOK[i] || !freightOK[i] {
			continue
		}
		total[i], totalOK[i] = price[i]+freight[i], true
		ratio[i] = FreightRatio(price[i], freight[i])
		high[i] = ratio[i] > HighFreightThreshold
	}

	return raw.WithColumns(
		series.NewNullable("total_item_value", total, totalOK, nil),
		series.New("freight_ratio", ratio, nil),
		flagColumn("is_high_freight", high),
	)
}

// FreightRatio is freight over price plus freight, 0 when that total is 0.
func FreightRatio(price, freight float64) float64 {
	total := price + freight
	if total == 0 {
		return 0
	}
	return freight / total
}

// AggregateItems reduces cleaned items to one row per order. The product
// and seller of the order come from its representative item, chosen by policy.
func AggregateItems(items *dataframe.DataFrame, policy string) (*dataframe.DataFrame, error) {
	if err := items.Require("AggregateItems", "order_id", "product_id", "seller_id", "price",
		"freight_value", "total_item_value", "is_high_freight"); err != nil {
		return nil, err
	}

	gb, err := items.GroupBy("order_id")
	if err != nil {
		return nil, err
	}

	reps, err := representativeRows(items, gb.Groups(), policy)
	if err != nil {
		return nil, err
	}

	agg, err := gb.Agg(
		dataframe.Agg("price", dataframe.Sum).WithDefault(0.0),
		dataframe.Agg("freight_value", dataframe.Sum).WithDefault(0.0),
		dataframe.Agg("total_item_value", dataframe.Sum).WithDefault(0.0),
		dataframe.Agg("is_high_freight", dataframe.Max).WithDefault(int64(0)),
		dataframe.Agg("order_id", dataframe.Count).Alias("item_count"),
	)
	if err != nil {
		return nil, err
	}
	defer agg.Release()

	picked := items.Select("product_id", "seller_id")
	defer picked.Release()
	repCols := picked.Take(reps)
	defer repCols.Release()

	withReps, err := agg.HStack(repCols)
	if err != nil {
		return nil, err
	}
	defer withReps.Release()

	return withReps.Select("order_id", "product_id", "seller_id", "price", "freight_value",
		"total_item_value", "is_high_freight", "item_count"), nil
}

func representativeRows(items *dataframe.DataFrame, groups []dataframe.Group, policy string) ([]int, error) {
	reps := make([]int, len(groups))
	switch policy {
	case config.ItemFirst, "":
		for i, g := range groups {
			reps[i] = g.Rows[0]
		}
	case config.ItemHighestValue:
		total, ok, err := items.Float64s("total_item_value")
		if err != nil {
			return nil, err
		}
		for i, g := range groups {
			best := g.Rows[0]
			for _, r := range g.Rows[1:] {
				if ok[r] && (!ok[best] || total[r] > total[best]) {
					best = r
				}
			}
			reps[i] = best
		}
	default:
		return nil, errors.NewInvalidInputError("AggregateItems", fmt.Sprintf("unknown representative item policy %q", policy))
	}
	return reps, nil
}
