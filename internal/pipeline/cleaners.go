package pipeline

import (
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
)

// Entity names accepted by Runner.Clean.
const (
	EntityOrders       = "orders"
	EntityItems        = "items"
	EntityProducts     = "products"
	EntityPayments     = "payments"
	EntityReviews      = "reviews"
	EntityCustomers    = "customers"
	EntitySellers      = "sellers"
	EntityGeolocation  = "geolocation"
	EntityMarketing    = "marketing"
	EntityReviewIssues = "review_issues"
)

// inputs maps raw input names to frames read for one cleaner.
type inputs map[string]*dataframe.DataFrame

// cleaned maps table names to frames a cleaner produced.
type cleaned map[string]*dataframe.DataFrame

// cleaner turns raw inputs into one or more processed tables.
type cleaner struct {
	entity   string
	required []string // raw inputs
	optional []string // raw inputs that may be absent
	run      func(r *Runner, in inputs) (cleaned, error)
}

func single(table string, fn func(in inputs) (*dataframe.DataFrame, error)) func(*Runner, inputs) (cleaned, error) {
	return func(_ *Runner, in inputs) (cleaned, error) {
		df, err := fn(in)
		if err != nil {
			return nil, err
		}
		return cleaned{table: df}, nil
	}
}

// cleaners lists the independent entity cleaners. They share no state and
// run concurrently. review_issues depends on cleaned orders and reviews
// and runs after them.
func cleaners() []cleaner {
	return []cleaner{
		{entity: EntityOrders, required: []string{config.InputOrders},
			run: single(clean.TableOrders, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanOrders(in[config.InputOrders])
			})},
		{entity: EntityItems, required: []string{config.InputItems},
			run: func(r *Runner, in inputs) (cleaned, error) {
				items, err := clean.CleanItems(in[config.InputItems])
				if err != nil {
					return nil, err
				}
				agg, err := clean.AggregateItems(items, r.cfg.RepresentativeItem)
				if err != nil {
					items.Release()
					return nil, err
				}
				return cleaned{clean.TableItems: items, clean.TableItemsAgg: agg}, nil
			}},
		{entity: EntityProducts, required: []string{config.InputProducts}, optional: []string{config.InputCategoryTranslation},
			run: single(clean.TableProducts, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanProducts(in[config.InputProducts], in[config.InputCategoryTranslation])
			})},
		{entity: EntityPayments, required: []string{config.InputPayments},
			run: single(clean.TablePayments, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanPayments(in[config.InputPayments])
			})},
		{entity: EntityReviews, required: []string{config.InputReviews},
			run: func(r *Runner, in inputs) (cleaned, error) {
				raw := in[config.InputReviews]
				if dups, err := raw.DuplicateCount("order_id"); err == nil && dups > 0 {
					r.log.Warn("orders with several reviews, keeping the latest answered",
						"table", clean.TableReviews, "dropped", dups)
				}
				df, err := clean.CleanReviews(raw)
				if err != nil {
					return nil, err
				}
				return cleaned{clean.TableReviews: df}, nil
			}},
		{entity: EntityCustomers, required: []string{config.InputCustomers},
			run: single(clean.TableCustomers, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanCustomers(in[config.InputCustomers])
			})},
		{entity: EntitySellers, required: []string{config.InputSellers},
			run: single(clean.TableSellers, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanSellers(in[config.InputSellers])
			})},
		{entity: EntityGeolocation, required: []string{config.InputGeolocation},
			run: func(r *Runner, in inputs) (cleaned, error) {
				res, err := clean.CleanGeolocation(in[config.InputGeolocation])
				if err != nil {
					return nil, err
				}
				if res.Dropped > 0 {
					r.log.Warn("zip prefixes without coordinates dropped",
						"table", clean.TableGeolocation, "count", res.Dropped)
				}
				return cleaned{clean.TableGeolocation: res.Lookup}, nil
			}},
		{entity: EntityMarketing, required: []string{config.InputClosedDeals, config.InputMarketingLeads},
			run: single(clean.TableMarketing, func(in inputs) (*dataframe.DataFrame, error) {
				return clean.CleanMarketing(in[config.InputClosedDeals], in[config.InputMarketingLeads])
			})},
	}
}

// Entities lists every entity name in run order.
func Entities() []string {
	var names []string
	for _, c := range cleaners() {
		names = append(names, c.entity)
	}
	return append(names, EntityReviewIssues)
}
