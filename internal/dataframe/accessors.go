package dataframe

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
)

// TimeLayouts are tried in order when a text column is read as timestamps.
var TimeLayouts = []string{
	series.TimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses s with TimeLayouts. Unparseable text reports false.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Strings returns the column rendered as text plus its validity mask.
func (df *DataFrame) Strings(name string) ([]string, []bool, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, nil, errors.NewColumnNotFoundError("Strings", name)
	}
	if typed, ok := s.(*series.Series[string]); ok {
		return typed.Values(), typed.Valid(), nil
	}
	values := make([]string, s.Len())
	valid := make([]bool, s.Len())
	for i := range values {
		if !s.IsNull(i) {
			values[i] = s.GetAsString(i)
			valid[i] = true
		}
	}
	return values, valid, nil
}

// Float64s returns the column as float64 values plus its validity mask.
// Integer and boolean columns are widened; text is parsed and failures become null.
func (df *DataFrame) Float64s(name string) ([]float64, []bool, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, nil, errors.NewColumnNotFoundError("Float64s", name)
	}
	switch typed := s.(type) {
	case *series.Series[float64]:
		return typed.Values(), typed.Valid(), nil
	case *series.Series[int64]:
		ints, valid := typed.Values(), typed.Valid()
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, valid, nil
	case *series.Series[bool]:
		bools, valid := typed.Values(), typed.Valid()
		out := make([]float64, len(bools))
		for i, v := range bools {
			if v {
				out[i] = 1
			}
		}
		return out, valid, nil
	case *series.Series[string]:
		text, valid := typed.Values(), typed.Valid()
		out := make([]float64, len(text))
		for i, v := range text {
			if !valid[i] {
				continue
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				valid[i] = false
				continue
			}
			out[i] = f
		}
		return out, valid, nil
	}
	return nil, nil, errors.NewUnsupportedTypeError("Float64s", name, s.DataType().String())
}

// Int64s returns the column as int64 values plus its validity mask.
// Float values are truncated toward zero.
func (df *DataFrame) Int64s(name string) ([]int64, []bool, error) {
	if typed, ok := df.columns[name].(*series.Series[int64]); ok {
		return typed.Values(), typed.Valid(), nil
	}
	floats, valid, err := df.Float64s(name)
	if err != nil {
		return nil, nil, err
	}
	out := make([]int64, len(floats))
	for i, f := range floats {
		out[i] = int64(math.Trunc(f))
	}
	return out, valid, nil
}

// Times returns the column as timestamps plus its validity mask.
// Text columns are parsed with TimeLayouts and failures become null.
func (df *DataFrame) Times(name string) ([]time.Time, []bool, error) {
	s, ok := df.columns[name]
	if !ok {
		return nil, nil, errors.NewColumnNotFoundError("Times", name)
	}
	switch typed := s.(type) {
	case *series.Series[time.Time]:
		return typed.Values(), typed.Valid(), nil
	case *series.Series[string]:
		text, valid := typed.Values(), typed.Valid()
		out := make([]time.Time, len(text))
		for i, v := range text {
			if !valid[i] {
				continue
			}
			out[i], valid[i] = ParseTime(v)
		}
		return out, valid, nil
	}
	return nil, nil, errors.NewUnsupportedTypeError("Times", name, s.DataType().String())
}
