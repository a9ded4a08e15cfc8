package validation

import (
	"fmt"
	"math"

	"github.com/paveg/reviewrisk/internal/dataframe"
)

// Check counts the rows of a table that break one rule.
type Check struct {
	Name    string
	Columns []string // required before the check can run
	Count   func(df *dataframe.DataFrame) (int, error)
}

// Unique counts rows repeating an earlier non-null key.
func Unique(column string) Check {
	return Check{
		Name:    column + " is unique",
		Columns: []string{column},
		Count:   func(df *dataframe.DataFrame) (int, error) { return df.DuplicateCount(column) },
	}
}

// NotNull counts null cells across the columns.
func NotNull(columns ...string) Check {
	return Check{
		Name:    fmt.Sprintf("%v not null", columns),
		Columns: columns,
		Count: func(df *dataframe.DataFrame) (int, error) {
			n := 0
			for _, c := range columns {
				col, _ := df.Column(c)
				n += col.NullN()
			}
			return n, nil
		},
	}
}

// InRange counts non-null values outside [lo, hi].
func InRange(column string, lo, hi float64) Check {
	name := fmt.Sprintf("%s in [%g, %g]", column, lo, hi)
	if math.IsInf(hi, 1) {
		name = fmt.Sprintf("%s >= %g", column, lo)
	}
	return Rows(name, []string{column}, func(v []float64) bool {
		return v[0] < lo || v[0] > hi
	})
}

// Binary counts values other than 0 and 1.
func Binary(column string) Check {
	return Rows(column+" is 0/1", []string{column}, func(v []float64) bool {
		return v[0] != 0 && v[0] != 1
	})
}

// Rows counts rows where every column is non-null and violates reports true.
func Rows(name string, columns []string, violates func(v []float64) bool) Check {
	return Check{
		Name:    name,
		Columns: columns,
		Count: func(df *dataframe.DataFrame) (int, error) {
			values := make([][]float64, len(columns))
			valid := make([][]bool, len(columns))
			for i, c := range columns {
				var err error
				if values[i], valid[i], err = df.Float64s(c); err != nil {
					return 0, err
				}
			}
			row := make([]float64, len(columns))
			n := 0
		rows:
			for r := 0; r < df.Len(); r++ {
				for i := range columns {
					if !valid[i][r] {
						continue rows
					}
					row[i] = values[i][r]
				}
				if violates(row) {
					n++
				}
			}
			return n, nil
		},
	}
}

// Equals counts rows whose text column equals value.
func Equals(column, value string) Check {
	return Check{
		Name:    fmt.Sprintf("%s = %q", column, value),
		Columns: []string{column},
		Count: func(df *dataframe.DataFrame) (int, error) {
			text, valid, err := df.Strings(column)
			if err != nil {
				return 0, err
			}
			n := 0
			for i, v := range text {
				if valid[i] && v == value {
					n++
				}
			}
			return n, nil
		},
	}
}

// OneOf counts rows whose text column holds a value outside allowed.
// Nulls are not counted.
func OneOf(column string, allowed ...string) Check {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return Check{
		Name:    column + " is a known label",
		Columns: []string{column},
		Count: func(df *dataframe.DataFrame) (int, error) {
			text, valid, err := df.Strings(column)
			if err != nil {
				return 0, err
			}
			n := 0
			for i, v := range text {
				if valid[i] && !set[v] {
					n++
				}
			}
			return n, nil
		},
	}
}

// FlagMatches counts rows where a flag disagrees with a text condition.
func FlagMatches(flag, column string, expect func(v string, valid bool) bool) Check {
	return Check{
		Name:    fmt.Sprintf("%s agrees with %s", flag, column),
		Columns: []string{flag, column},
		Count: func(df *dataframe.DataFrame) (int, error) {
			flags, flagOK, err := df.Int64s(flag)
			if err != nil {
				return 0, err
			}
			text, valid, err := df.Strings(column)
			if err != nil {
				return 0, err
			}
			n := 0
			for i := range flags {
				if flagOK[i] && (flags[i] == 1) != expect(text[i], valid[i]) {
					n++
				}
			}
			return n, nil
		},
	}
}

// HasColumn reports one violation when a column is absent.
func HasColumn(column string) Check {
	return Check{
		Name: column + " present",
		Count: func(df *dataframe.DataFrame) (int, error) {
			if df.HasColumn(column) {
				return 0, nil
			}
			return 1, nil
		},
	}
}
