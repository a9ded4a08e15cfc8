package clean

import (
	"math"
	"strings"
	"time"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/rules"
	"github.com/paveg/reviewrisk/internal/series"
)

// Order statuses the cleaners reason about.
const (
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// Delivery performance labels.
const (
	PerformanceEarly      = "Early (Delight)"
	PerformanceOnTime     = "On Time"
	PerformanceLate       = "Late (Risk)"
	PerformanceProcessing = "Processing/Other"
	PerformanceDataError  = "Data Error (Missing Date)"
)

type deliveryFacts struct {
	status    string
	delivered bool
	gap       int64
	gapValid  bool
}

// deliveryPerformance labels an order. A delivered status without a
// delivery timestamp is a data error, lateness overrides punctuality, and
// anything undelivered is still processing.
var deliveryPerformance = rules.Set[deliveryFacts]{
	Rules: []rules.Rule[deliveryFacts]{
		{Label: PerformanceDataError, Match: func(f deliveryFacts) bool { return f.status == StatusDelivered && !f.delivered }},
		{Label: PerformanceLate, Match: func(f deliveryFacts) bool { return f.gapValid && f.gap < 0 }},
		{Label: PerformanceEarly, Match: func(f deliveryFacts) bool { return f.delivered && f.gapValid && f.gap > 0 }},
		{Label: PerformanceOnTime, Match: func(f deliveryFacts) bool { return f.delivered && f.gapValid && f.gap == 0 }},
	},
	Default: PerformanceProcessing,
}

var orderColumns = []string{
	"order_id", "customer_id", "order_status",
	"order_purchase_timestamp", "order_approved_at", "order_delivered_carrier_date",
	"order_delivered_customer_date", "order_estimated_delivery_date",
}

// FloorDays returns whole days in d, rounding toward negative infinity
// so a delivery one hour early counts as -1 day.
func FloorDays(d time.Duration) int64 {
	return int64(math.Floor(d.Hours() / 24))
}

// CleanOrders derives delivery timing features for each order.
func CleanOrders(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := raw.Require("CleanOrders", orderColumns...); err != nil {
		return nil, err
	}
	deduped, err := raw.DropDuplicates("order_id")
	if err != nil {
		return nil, err
	}
	defer deduped.Release()
	df := deduped.Select(orderColumns...)
	defer df.Release()

	status, err := mapStrings(df, "order_status", func(v string, ok bool) (string, bool) {
		return strings.ToLower(strings.TrimSpace(v)), ok
	})
	if err != nil {
		return nil, err
	}
	statuses, _, _ := df.Strings("order_status")

	purchase, purchaseOK, err := df.Times("order_purchase_timestamp")
	if err != nil {
		return nil, err
	}
	approved, approvedOK, err := df.Times("order_approved_at")
	if err != nil {
		return nil, err
	}
	carrier, carrierOK, err := df.Times("order_delivered_carrier_date")
	if err != nil {
		return nil, err
	}
	delivered, deliveredOK, err := df.Times("order_delivered_customer_date")
	if err != nil {
		return nil, err
	}
	estimated, estimatedOK, err := df.Times("order_estimated_delivery_date")
	if err != nil {
		return nil, err
	}

	n := df.Len()
	actual, actualOK := make([]int64, n), make([]bool, n)
	estDays, estOK := make([]int64, n), make([]bool, n)
	gap, gapOK := make([]int64, n), make([]bool, n)
	process, processOK := make([]int64, n), make([]bool, n)
	isDelivered := make([]bool, n)
	weekend := make([]bool, n)
	late := make([]bool, n)
	performance := make([]string, n)

	for i := 0; i < n; i++ {
		isDelivered[i] = deliveredOK[i]
		if purchaseOK[i] && deliveredOK[i] {
			actual[i], actualOK[i] = FloorDays(delivered[i].Sub(purchase[i])), true
		}
		if purchaseOK[i] && estimatedOK[i] {
			estDays[i], estOK[i] = FloorDays(estimated[i].Sub(purchase[i])), true
		}
		if actualOK[i] && estOK[i] {
			gap[i], gapOK[i] = estDays[i]-actual[i], true
		}
		if approvedOK[i] && carrierOK[i] {
			process[i], processOK[i] = max(0, FloorDays(carrier[i].Sub(approved[i]))), true
		}
		if purchaseOK[i] {
			day := purchase[i].Weekday()
			weekend[i] = day == time.Saturday || day == time.Sunday
		}
		late[i] = gapOK[i] && gap[i] < 0
		performance[i] = deliveryPerformance.Classify(deliveryFacts{
			status:    strings.ToLower(strings.TrimSpace(statuses[i])),
			delivered: deliveredOK[i],
			gap:       gap[i],
			gapValid:  gapOK[i],
		})
	}

	return df.WithColumns(
		status,
		flagColumn("is_delivered", isDelivered),
		series.NewNullable("actual_delivery_days", actual, actualOK, nil),
		series.NewNullable("estimated_days", estDays, estOK, nil),
		series.NewNullable("expectation_gap", gap, gapOK, nil),
		series.NewNullable("seller_process_days", process, processOK, nil),
		flagColumn("is_weekend_order", weekend),
		flagColumn("is_late", late),
		series.New("delivery_performance", performance, nil),
	)
}
