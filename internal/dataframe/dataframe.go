// Package dataframe provides the columnar table every pipeline stage reads and writes.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/paveg/reviewrisk/internal/errors"
)

// DataFrame represents a table of data with typed columns.
// Derived frames share column data by reference counting, so each frame
// must be released independently.
type DataFrame struct {
	columns map[string]ISeries
	order   []string // Maintains column order
}

// New creates a new DataFrame from a slice of ISeries.
// A repeated name replaces the earlier column in place.
func New(series ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(series))

	for _, s := range series {
		name := s.Name()
		if old, exists := columns[name]; exists {
			old.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the names of all columns in order
func (df *DataFrame) Columns() []string {
	return append([]string(nil), df.order...)
}

// Len returns the number of rows
func (df *DataFrame) Len() int {
	if len(df.order) == 0 {
		return 0
	}
	return df.columns[df.order[0]].Len()
}

// Width returns the number of columns
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name
func (df *DataFrame) Column(name string) (ISeries, bool) {
	series, exists := df.columns[name]
	return series, exists
}

// HasColumn checks if a column exists
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Require returns a schema error naming the first missing column.
func (df *DataFrame) Require(op string, names ...string) error {
	for _, name := range names {
		if !df.HasColumn(name) {
			return errors.NewColumnNotFoundError(op, name)
		}
	}
	return nil
}

// Select returns a new DataFrame with only the specified columns.
// Unknown names are skipped.
func (df *DataFrame) Select(names ...string) *DataFrame {
	selected := make([]ISeries, 0, len(names))
	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			selected = append(selected, renameSeries(s, name))
		}
	}
	return New(selected...)
}

// Drop returns a new DataFrame without the specified columns
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool, len(names))
	for _, name := range names {
		dropSet[name] = true
	}

	kept := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		if !dropSet[name] {
			kept = append(kept, renameSeries(df.columns[name], name))
		}
	}
	return New(kept...)
}

// Rename returns a new DataFrame with columns renamed by the mapping.
func (df *DataFrame) Rename(mapping map[string]string) *DataFrame {
	renamed := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		target := name
		if to, ok := mapping[name]; ok {
			target = to
		}
		renamed = append(renamed, renameSeries(df.columns[name], target))
	}
	return New(renamed...)
}

// WithColumns returns a new DataFrame with the given series appended,
// replacing existing columns of the same name in place.
// Ownership of the passed series moves to the result.
func (df *DataFrame) WithColumns(cols ...ISeries) (*DataFrame, error) {
	n := df.Len()
	for _, c := range cols {
		if df.Width() > 0 && c.Len() != n {
			return nil, errors.NewInvalidInputError("WithColumns",
				fmt.Sprintf("column %q has %d rows, frame has %d", c.Name(), c.Len(), n))
		}
	}

	all := make([]ISeries, 0, len(df.order)+len(cols))
	for _, name := range df.order {
		all = append(all, renameSeries(df.columns[name], name))
	}
	all = append(all, cols...)
	return New(all...), nil
}

// HStack returns a new DataFrame with the columns of other appended.
// Both frames must have the same row count and no column names in common.
func (df *DataFrame) HStack(other *DataFrame) (*DataFrame, error) {
	if df.Width() > 0 && other.Width() > 0 && df.Len() != other.Len() {
		return nil, errors.NewInvalidInputError("HStack",
			fmt.Sprintf("frames have %d and %d rows", df.Len(), other.Len()))
	}
	all := make([]ISeries, 0, df.Width()+other.Width())
	for _, name := range df.order {
		all = append(all, renameSeries(df.columns[name], name))
	}
	for _, name := range other.order {
		if df.HasColumn(name) {
			for _, c := range all {
				c.Release()
			}
			return nil, errors.NewSchemaError("HStack", "", fmt.Sprintf("column %q exists on both sides", name))
		}
		all = append(all, renameSeries(other.columns[name], name))
	}
	return New(all...), nil
}

// Take gathers the given rows into a new DataFrame. An index of -1 yields a null row.
func (df *DataFrame) Take(indices []int) *DataFrame {
	taken := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		taken = append(taken, takeSeries(df.columns[name], indices))
	}
	return New(taken...)
}

// Filter keeps rows where mask is true.
func (df *DataFrame) Filter(mask []bool) (*DataFrame, error) {
	if len(mask) != df.Len() {
		return nil, errors.NewInvalidInputError("Filter",
			fmt.Sprintf("mask has %d entries, frame has %d rows", len(mask), df.Len()))
	}
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return df.Take(indices), nil
}

// DuplicateCount returns how many rows repeat an earlier non-null value of the column.
func (df *DataFrame) DuplicateCount(column string) (int, error) {
	s, ok := df.columns[column]
	if !ok {
		return 0, errors.NewColumnNotFoundError("DuplicateCount", column)
	}
	seen := make(map[string]struct{}, s.Len())
	dups := 0
	for i := 0; i < s.Len(); i++ {
		if s.IsNull(i) {
			continue
		}
		key := s.GetAsString(i)
		if _, exists := seen[key]; exists {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups, nil
}

// DropDuplicates keeps the first row for each non-null value of column.
// Rows with a null value are all kept.
func (df *DataFrame) DropDuplicates(column string) (*DataFrame, error) {
	s, ok := df.columns[column]
	if !ok {
		return nil, errors.NewColumnNotFoundError("DropDuplicates", column)
	}
	seen := make(map[string]struct{}, s.Len())
	keep := make([]int, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			key := s.GetAsString(i)
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}
		}
		keep = append(keep, i)
	}
	return df.Take(keep), nil
}

// String returns a string representation of the DataFrame
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}

	for _, name := range df.order {
		series := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, series.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases all column memory
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}
