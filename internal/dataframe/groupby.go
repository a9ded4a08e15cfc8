package dataframe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reducer names the reduction applied to one column of each group.
type Reducer int

const (
	Sum Reducer = iota
	Mean
	Median
	Min
	Max
	First // first non-null value
	Mode  // most frequent non-null value, ties go to the first one seen
	Count // non-null values
)

func (r Reducer) String() string {
	return [...]string{"sum", "mean", "median", "min", "max", "first", "mode", "count"}[r]
}

// Aggregation declares one output column of GroupBy.Agg.
type Aggregation struct {
	Column  string
	Reducer Reducer
	As      string // output name, defaults to Column
	// Default replaces the result for groups with no non-null input.
	// Nil leaves those results null.
	Default any
}

// Agg declares a reduction of column.
func Agg(column string, reducer Reducer) Aggregation {
	return Aggregation{Column: column, Reducer: reducer}
}

// Alias sets the output column name.
func (a Aggregation) Alias(name string) Aggregation {
	a.As = name
	return a
}

// WithDefault sets the sentinel used for groups whose input is entirely null.
func (a Aggregation) WithDefault(v any) Aggregation {
	a.Default = v
	return a
}

// Group is one set of rows sharing a key.
type Group struct {
	Key  string
	Rows []int
}

// GroupBy holds the row partition of a DataFrame by key columns.
type GroupBy struct {
	df     *DataFrame
	keys   []string
	groups []Group
}

// GroupBy partitions rows by the key columns. Rows with a null key are left
// out, and groups are ordered by their key text.
func (df *DataFrame) GroupBy(keys ...string) (*GroupBy, error) {
	if len(keys) == 0 {
		return nil, errors.NewInvalidInputError("GroupBy", "at least one key column is required")
	}
	if err := df.Require("GroupBy", keys...); err != nil {
		return nil, err
	}

	keyCols := make([]ISeries, len(keys))
	for i, k := range keys {
		keyCols[i] = df.columns[k]
	}

	index := make(map[string]int)
	var groups []Group
	parts := make([]string, len(keys))
rows:
	for row := 0; row < df.Len(); row++ {
		for i, col := range keyCols {
			if col.IsNull(row) {
				continue rows
			}
			parts[i] = col.GetAsString(row)
		}
		key := strings.Join(parts, "\x1f")
		pos, exists := index[key]
		if !exists {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, Group{Key: key})
		}
		groups[pos].Rows = append(groups[pos].Rows, row)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })

	return &GroupBy{df: df, keys: keys, groups: groups}, nil
}

// Groups returns the partition in key order.
func (gb *GroupBy) Groups() []Group {
	return gb.groups
}

// Agg reduces every group to one row: the key columns followed by one column per aggregation.
func (gb *GroupBy) Agg(aggs ...Aggregation) (*DataFrame, error) {
	firstRows := make([]int, len(gb.groups))
	for i, g := range gb.groups {
		firstRows[i] = g.Rows[0]
	}

	cols := make([]ISeries, 0, len(gb.keys)+len(aggs))
	for _, k := range gb.keys {
		cols = append(cols, takeSeries(gb.df.columns[k], firstRows))
	}

	for _, agg := range aggs {
		col, err := gb.reduce(agg)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, col)
	}

	return New(cols...), nil
}

func (gb *GroupBy) reduce(agg Aggregation) (ISeries, error) {
	src, ok := gb.df.columns[agg.Column]
	if !ok {
		return nil, errors.NewColumnNotFoundError("Agg", agg.Column)
	}
	name := agg.As
	if name == "" {
		name = agg.Column
	}

	switch agg.Reducer {
	case First, Mode:
		rows := make([]int, len(gb.groups))
		for i, g := range gb.groups {
			if agg.Reducer == First {
				rows[i] = firstValid(src, g.Rows)
			} else {
				rows[i] = modeRow(src, g.Rows)
			}
		}
		out := renameAndRelease(takeSeries(src, rows), name)
		if agg.Default == nil {
			return out, nil
		}
		filled, err := fillSeries(out, agg.Default)
		out.Release()
		return filled, err

	case Count:
		counts := make([]int64, len(gb.groups))
		for i, g := range gb.groups {
			for _, r := range g.Rows {
				if !src.IsNull(r) {
					counts[i]++
				}
			}
		}
		return series.New(name, counts, nil), nil
	}

	values, valid, err := gb.df.Float64s(agg.Column)
	if err != nil {
		return nil, err
	}
	var fallback float64
	hasFallback := agg.Default != nil
	if hasFallback {
		if fallback, err = toFloat(agg.Default); err != nil {
			return nil, errors.NewInvalidInputError("Agg", err.Error())
		}
	}

	out := make([]float64, len(gb.groups))
	outValid := make([]bool, len(gb.groups))
	buf := make([]float64, 0, 16)
	for i, g := range gb.groups {
		buf = buf[:0]
		for _, r := range g.Rows {
			if valid[r] {
				buf = append(buf, values[r])
			}
		}
		if len(buf) == 0 {
			out[i], outValid[i] = fallback, hasFallback
			continue
		}
		outValid[i] = true
		switch agg.Reducer {
		case Sum:
			out[i] = floats.Sum(buf)
		case Mean:
			out[i] = stat.Mean(buf, nil)
		case Median:
			out[i] = MedianOf(buf)
		case Min:
			out[i] = floats.Min(buf)
		case Max:
			out[i] = floats.Max(buf)
		default:
			return nil, errors.NewInvalidInputError("Agg", fmt.Sprintf("unknown reducer %d", agg.Reducer))
		}
	}

	// integer inputs keep their type for reducers that cannot leave the integers
	if _, isInt := src.(*series.Series[int64]); isInt && (agg.Reducer == Sum || agg.Reducer == Min || agg.Reducer == Max) {
		ints := make([]int64, len(out))
		for i, v := range out {
			ints[i] = int64(v)
		}
		return series.NewNullable(name, ints, outValid, nil), nil
	}
	return series.NewNullable(name, out, outValid, nil), nil
}

func firstValid(s ISeries, rows []int) int {
	for _, r := range rows {
		if !s.IsNull(r) {
			return r
		}
	}
	return -1
}

func modeRow(s ISeries, rows []int) int {
	counts := make(map[string]int, len(rows))
	firstSeen := make(map[string]int, len(rows))
	best, bestCount := -1, 0
	for _, r := range rows {
		if s.IsNull(r) {
			continue
		}
		v := s.GetAsString(r)
		counts[v]++
		if _, ok := firstSeen[v]; !ok {
			firstSeen[v] = r
		}
	}
	// walk in row order so ties resolve to the earliest value
	for _, r := range rows {
		if s.IsNull(r) {
			continue
		}
		v := s.GetAsString(r)
		if counts[v] > bestCount {
			best, bestCount = firstSeen[v], counts[v]
		}
	}
	return best
}

func renameAndRelease(s ISeries, name string) ISeries {
	if s.Name() == name {
		return s
	}
	out := renameSeries(s, name)
	s.Release()
	return out
}

// MedianOf returns the median of values, averaging the two middle values
// for even counts. The input is not modified. Empty input returns 0.
func MedianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
