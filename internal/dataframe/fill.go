package dataframe

import (
	"fmt"
	"time"

	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
)

// FillNull returns a new DataFrame where nulls in the named columns are
// replaced by the given values. Columns absent from the frame are skipped.
func (df *DataFrame) FillNull(values map[string]any) (*DataFrame, error) {
	cols := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		s := df.columns[name]
		v, ok := values[name]
		if !ok || s.NullN() == 0 {
			cols = append(cols, renameSeries(s, name))
			continue
		}
		filled, err := fillSeries(s, v)
		if err != nil {
			for _, c := range cols {
				c.Release()
			}
			return nil, err
		}
		cols = append(cols, filled)
	}
	return New(cols...), nil
}

func fillSeries(s ISeries, v any) (ISeries, error) {
	switch typed := s.(type) {
	case *series.Series[string]:
		str, ok := v.(string)
		if !ok {
			return nil, fillTypeError(s, v)
		}
		return fillTyped(typed, str), nil
	case *series.Series[int64]:
		switch n := v.(type) {
		case int:
			return fillTyped(typed, int64(n)), nil
		case int64:
			return fillTyped(typed, n), nil
		}
	case *series.Series[float64]:
		f, err := toFloat(v)
		if err != nil {
			return nil, fillTypeError(s, v)
		}
		return fillTyped(typed, f), nil
	case *series.Series[bool]:
		if b, ok := v.(bool); ok {
			return fillTyped(typed, b), nil
		}
	case *series.Series[time.Time]:
		if t, ok := v.(time.Time); ok {
			return fillTyped(typed, t), nil
		}
	}
	return nil, fillTypeError(s, v)
}

func fillTyped[T series.Element](s *series.Series[T], v T) ISeries {
	values, valid := s.Values(), s.Valid()
	for i := range values {
		if !valid[i] {
			values[i] = v
		}
	}
	return series.New(s.Name(), values, nil)
}

func fillTypeError(s ISeries, v any) error {
	return errors.NewUnsupportedTypeError("FillNull", s.Name(),
		fmt.Sprintf("%T fill for %s column", v, s.DataType()))
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
}
