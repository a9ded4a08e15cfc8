package assemble

import (
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/dataframe"
)

// Step is one left join of the master table build.
type Step struct {
	Name     string
	Table    func(*Tables) *dataframe.DataFrame
	LeftKey  string
	RightKey string   // defaults to LeftKey
	Columns  []string // right columns to bring besides the key; nil brings all
	Rename   map[string]string
	Fill     map[string]any // applied after the join
}

func (s Step) rightKey() string {
	if s.RightKey != "" {
		return s.RightKey
	}
	return s.LeftKey
}

// Steps returns the join sequence in order. Every right side must already
// hold one row per key.
func Steps() []Step {
	return []Step{
		{Name: clean.TableReviews, Table: func(t *Tables) *dataframe.DataFrame { return t.Reviews }, LeftKey: "order_id"},
		{Name: clean.TableCustomers, Table: func(t *Tables) *dataframe.DataFrame { return t.Customers }, LeftKey: "customer_id"},
		{Name: clean.TablePayments, Table: func(t *Tables) *dataframe.DataFrame { return t.Payments }, LeftKey: "order_id"},
		{Name: clean.TableItemsAgg, Table: func(t *Tables) *dataframe.DataFrame { return t.ItemsAgg }, LeftKey: "order_id"},
		{Name: clean.TableProducts, Table: func(t *Tables) *dataframe.DataFrame { return t.Products }, LeftKey: "product_id"},
		{Name: clean.TableSellers, Table: func(t *Tables) *dataframe.DataFrame { return t.Sellers }, LeftKey: "seller_id"},
		{
			Name:    clean.TableMarketing,
			Table:   func(t *Tables) *dataframe.DataFrame { return t.Marketing },
			LeftKey: "seller_id",
			Columns: []string{"seller_segment_group", "origin"},
			Fill:    map[string]any{"seller_segment_group": clean.Unknown, "origin": clean.Unknown},
		},
		{
			Name:     "customer_geolocation",
			Table:    func(t *Tables) *dataframe.DataFrame { return t.Geolocation },
			LeftKey:  "customer_zip_code_prefix",
			RightKey: "zip_code_prefix",
			Columns:  []string{"lat", "lng"},
			Rename:   map[string]string{"lat": "cust_lat", "lng": "cust_lng"},
		},
		{
			Name:     "seller_geolocation",
			Table:    func(t *Tables) *dataframe.DataFrame { return t.Geolocation },
			LeftKey:  "seller_zip_code_prefix",
			RightKey: "zip_code_prefix",
			Columns:  []string{"lat", "lng"},
			Rename:   map[string]string{"lat": "sell_lat", "lng": "sell_lng"},
		},
	}
}

// Conflict records a right-side column dropped because the left side
// already had a column of that name.
type Conflict struct {
	Step   string
	Column string
}

// Reconcile drops from right every non-key column that left already holds,
// so the join that follows cannot collide. The left side always wins.
func Reconcile(left, right *dataframe.DataFrame, rightKey string) (*dataframe.DataFrame, []string) {
	var dropped []string
	for _, name := range right.Columns() {
		if name != rightKey && left.HasColumn(name) {
			dropped = append(dropped, name)
		}
	}
	return right.Drop(dropped...), dropped
}

func applyStep(left *dataframe.DataFrame, t *Tables, step Step) (*dataframe.DataFrame, []Conflict, error) {
	right := step.Table(t)
	if right == nil {
		return nil, nil, missingTable(step.Name)
	}
	key := step.rightKey()
	if err := right.Require(step.Name, key); err != nil {
		return nil, nil, err
	}

	var side *dataframe.DataFrame
	if step.Columns != nil {
		if err := right.Require(step.Name, step.Columns...); err != nil {
			return nil, nil, err
		}
		side = right.Select(append([]string{key}, step.Columns...)...)
	} else {
		side = right.Select(right.Columns()...)
	}
	defer side.Release()
	renamed := side.Rename(step.Rename)
	defer renamed.Release()

	reconciled, dropped := Reconcile(left, renamed, key)
	defer reconciled.Release()
	conflicts := make([]Conflict, 0, len(dropped))
	for _, c := range dropped {
		conflicts = append(conflicts, Conflict{Step: step.Name, Column: c})
	}

	joined, err := left.Join(reconciled, &dataframe.JoinOptions{
		Type:        dataframe.LeftJoin,
		LeftKey:     step.LeftKey,
		RightKey:    key,
		UniqueRight: true,
	})
	if err != nil {
		return nil, nil, err
	}
	if step.Fill == nil {
		return joined, conflicts, nil
	}
	defer joined.Release()
	filled, err := joined.FillNull(step.Fill)
	return filled, conflicts, err
}
