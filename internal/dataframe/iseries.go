package dataframe

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/reviewrisk/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	NullN() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
}

// SeriesFromArray wraps an Arrow array in the matching typed series.
func SeriesFromArray(name string, arr arrow.Array, mem memory.Allocator) (ISeries, error) {
	switch arr.DataType().ID() {
	case arrow.STRING:
		return series.FromArray[string](name, arr, mem), nil
	case arrow.INT64:
		return series.FromArray[int64](name, arr, mem), nil
	case arrow.FLOAT64:
		return series.FromArray[float64](name, arr, mem), nil
	case arrow.BOOL:
		return series.FromArray[bool](name, arr, mem), nil
	case arrow.TIMESTAMP:
		return series.FromArray[time.Time](name, arr, mem), nil
	default:
		return nil, fmt.Errorf("column %q: unsupported arrow type %s", name, arr.DataType())
	}
}

// renameSeries shares the column data under a new name.
func renameSeries(s ISeries, name string) ISeries {
	switch typed := s.(type) {
	case *series.Series[string]:
		return typed.Rename(name)
	case *series.Series[int64]:
		return typed.Rename(name)
	case *series.Series[float64]:
		return typed.Rename(name)
	case *series.Series[bool]:
		return typed.Rename(name)
	case *series.Series[time.Time]:
		return typed.Rename(name)
	}
	panic(fmt.Sprintf("unsupported series type: %T", s))
}

// takeSeries gathers rows; -1 produces a null.
func takeSeries(s ISeries, indices []int) ISeries {
	switch typed := s.(type) {
	case *series.Series[string]:
		return typed.Take(indices)
	case *series.Series[int64]:
		return typed.Take(indices)
	case *series.Series[float64]:
		return typed.Take(indices)
	case *series.Series[bool]:
		return typed.Take(indices)
	case *series.Series[time.Time]:
		return typed.Take(indices)
	}
	panic(fmt.Sprintf("unsupported series type: %T", s))
}
