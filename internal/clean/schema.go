// Package clean turns each raw Olist table into a cleaned, feature-enriched
// table. Every cleaner is a pure function of its input frames.
package clean

import (
	"sort"
	"strconv"
	"strings"

	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/series"
)

// Cleaned table names.
const (
	TableOrders       = "orders_data"
	TableItems        = "items_data"
	TableItemsAgg     = "items_agg"
	TableProducts     = "products_data"
	TablePayments     = "payments_data"
	TableReviews      = "reviews_data"
	TableReviewIssues = "review_issues"
	TableCustomers    = "customers_data"
	TableSellers      = "sellers_data"
	TableGeolocation  = "geolocation_data"
	TableMarketing    = "marketing_data"
)

// Unknown fills categorical gaps.
const Unknown = "Unknown"

// RawTypes pins the column types of each raw input.
var RawTypes = map[string]map[string]io.ColumnType{
	config.InputOrders: {
		"order_id":                      io.String,
		"customer_id":                   io.String,
		"order_status":                  io.String,
		"order_purchase_timestamp":      io.Timestamp,
		"order_approved_at":             io.Timestamp,
		"order_delivered_carrier_date":  io.Timestamp,
		"order_delivered_customer_date": io.Timestamp,
		"order_estimated_delivery_date": io.Timestamp,
	},
	config.InputItems: {
		"order_id":            io.String,
		"order_item_id":       io.Int64,
		"product_id":          io.String,
		"seller_id":           io.String,
		"shipping_limit_date": io.Timestamp,
		"price":               io.Float64,
		"freight_value":       io.Float64,
	},
	config.InputProducts: {
		"product_id":                 io.String,
		"product_category_name":      io.String,
		"product_name_lenght":        io.Float64,
		"product_description_lenght": io.Float64,
		"product_photos_qty":         io.Float64,
		"product_weight_g":           io.Float64,
		"product_length_cm":          io.Float64,
		"product_height_cm":          io.Float64,
		"product_width_cm":           io.Float64,
	},
	config.InputCategoryTranslation: {
		"product_category_name":         io.String,
		"product_category_name_english": io.String,
	},
	config.InputPayments: {
		"order_id":             io.String,
		"payment_sequential":   io.Int64,
		"payment_type":         io.String,
		"payment_installments": io.Int64,
		"payment_value":        io.Float64,
	},
	config.InputReviews: {
		"review_id":               io.String,
		"order_id":                io.String,
		"review_score":            io.Int64,
		"review_comment_title":    io.String,
		"review_comment_message":  io.String,
		"review_creation_date":    io.Timestamp,
		"review_answer_timestamp": io.Timestamp,
	},
	config.InputCustomers: {
		"customer_id":              io.String,
		"customer_unique_id":       io.String,
		"customer_zip_code_prefix": io.String,
		"customer_city":            io.String,
		"customer_state":           io.String,
	},
	config.InputSellers: {
		"seller_id":              io.String,
		"seller_zip_code_prefix": io.String,
		"seller_city":            io.String,
		"seller_state":           io.String,
	},
	config.InputGeolocation: {
		"geolocation_zip_code_prefix": io.String,
		"geolocation_lat":             io.Float64,
		"geolocation_lng":             io.Float64,
		"geolocation_city":            io.String,
		"geolocation_state":           io.String,
	},
	config.InputMarketingLeads: {
		"mql_id":             io.String,
		"first_contact_date": io.String,
		"landing_page_id":    io.String,
		"origin":             io.String,
	},
	config.InputClosedDeals: {
		"mql_id":           io.String,
		"seller_id":        io.String,
		"business_segment": io.String,
		"lead_type":        io.String,
	},
}

// ProcessedTypes pins identifier, zip and free-text columns when cleaned
// tables are read back from CSV, where inference could turn them numeric.
var ProcessedTypes = map[string]io.ColumnType{
	"order_id":                 io.String,
	"customer_id":              io.String,
	"customer_unique_id":       io.String,
	"product_id":               io.String,
	"seller_id":                io.String,
	"review_id":                io.String,
	"mql_id":                   io.String,
	"zip_code_prefix":          io.String,
	"customer_zip_code_prefix": io.String,
	"seller_zip_code_prefix":   io.String,
	"review_comment_title":     io.String,
	"review_comment_message":   io.String,
	"clean_text":               io.String,
	"customer_city":            io.String,
	"seller_city":              io.String,
	"geo_city":                 io.String,
}

// NormalizeZip strips leading zeros from numeric zip prefixes so the
// customer, seller and geolocation tables agree on keys.
func NormalizeZip(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return s
}

func flag(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func flagColumn(name string, values []bool) dataframe.ISeries {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = flag(v)
	}
	return series.New(name, out, nil)
}

// mapStrings rewrites a string column value by value, keeping nulls null
// unless fn marks them valid.
func mapStrings(df *dataframe.DataFrame, name string, fn func(v string, valid bool) (string, bool)) (dataframe.ISeries, error) {
	values, valid, err := df.Strings(name)
	if err != nil {
		return nil, err
	}
	for i := range values {
		values[i], valid[i] = fn(values[i], valid[i])
	}
	return series.NewNullable(name, values, valid, nil), nil
}

func sortInts(v []int) {
	sort.Ints(v)
}
