// Package series provides nullable, Arrow-backed typed columns.
package series

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// TimeLayout is the canonical text form of timestamp cells.
const TimeLayout = "2006-01-02 15:04:05"

// TimestampType is the Arrow type used for every time.Time column.
var TimestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// Element lists the Go types a Series can hold.
type Element interface {
	string | int64 | float64 | bool | time.Time
}

// Series represents a typed data column with Apache Arrow backend.
// Nulls live in the Arrow validity bitmap; the Go value at a null slot is the zero value.
type Series[T Element] struct {
	name  string
	array arrow.Array
	mem   memory.Allocator
}

// New creates a Series where every value is valid.
func New[T Element](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewNullable(name, values, nil, mem)
}

// NewNullable creates a Series from values and a validity mask.
// A nil mask marks every value valid. A mask of the wrong length panics.
func NewNullable[T Element](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if valid != nil && len(valid) != len(values) {
		panic(fmt.Sprintf("series %q: %d values but %d validity flags", name, len(values), len(valid)))
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Series[T]{name: name, array: build(values, valid, mem), mem: mem}
}

// FromArray wraps an existing Arrow array. The array is retained.
func FromArray[T Element](name string, arr arrow.Array, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	arr.Retain()
	return &Series[T]{name: name, array: arr, mem: mem}
}

func isValid(valid []bool, i int) bool {
	return valid == nil || valid[i]
}

func build[T Element](values []T, valid []bool, mem memory.Allocator) arrow.Array {
	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.Reserve(len(v))
		for i, val := range v {
			if isValid(valid, i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		return builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.Reserve(len(v))
		for i, val := range v {
			if isValid(valid, i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		return builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.Reserve(len(v))
		for i, val := range v {
			// NaN and Inf never reach a column; they are stored as null
			if isValid(valid, i) && !math.IsNaN(val) && !math.IsInf(val, 0) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		return builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.Reserve(len(v))
		for i, val := range v {
			if isValid(valid, i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		return builder.NewArray()
	case []time.Time:
		builder := array.NewTimestampBuilder(mem, TimestampType)
		defer builder.Release()
		builder.Reserve(len(v))
		for i, val := range v {
			if isValid(valid, i) && !val.IsZero() {
				builder.Append(arrow.Timestamp(val.UnixMicro()))
			} else {
				builder.AppendNull()
			}
		}
		return builder.NewArray()
	}
	panic(fmt.Sprintf("unsupported type: %T", values))
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullN returns the number of null slots.
func (s *Series[T]) NullN() int {
	return s.array.NullN()
}

// Values returns the data as a Go slice. Null slots hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())

	switch arr := s.array.(type) {
	case *array.String:
		values := any(result).([]string)
		for i := range values {
			if arr.IsValid(i) {
				values[i] = arr.Value(i)
			}
		}
	case *array.Int64:
		values := any(result).([]int64)
		for i := range values {
			if arr.IsValid(i) {
				values[i] = arr.Value(i)
			}
		}
	case *array.Float64:
		values := any(result).([]float64)
		for i := range values {
			if arr.IsValid(i) {
				values[i] = arr.Value(i)
			}
		}
	case *array.Boolean:
		values := any(result).([]bool)
		for i := range values {
			if arr.IsValid(i) {
				values[i] = arr.Value(i)
			}
		}
	case *array.Timestamp:
		values := any(result).([]time.Time)
		unit := arr.DataType().(*arrow.TimestampType).Unit
		for i := range values {
			if arr.IsValid(i) {
				values[i] = arr.Value(i).ToTime(unit)
			}
		}
	default:
		panic(fmt.Sprintf("unsupported array type: %T", arr))
	}

	return result
}

// Valid returns the validity mask, true where a value is present.
func (s *Series[T]) Valid() []bool {
	valid := make([]bool, s.array.Len())
	for i := range valid {
		valid[i] = s.array.IsValid(i)
	}
	return valid
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		*any(&result).(*string) = arr.Value(index)
	case *array.Int64:
		*any(&result).(*int64) = arr.Value(index)
	case *array.Float64:
		*any(&result).(*float64) = arr.Value(index)
	case *array.Boolean:
		*any(&result).(*bool) = arr.Value(index)
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		*any(&result).(*time.Time) = arr.Value(index).ToTime(unit)
	}

	return result
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// GetAsString renders one cell as text. Nulls render as the empty string.
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}
	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'f', -1, 64)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	case *array.Timestamp:
		unit := arr.DataType().(*arrow.TimestampType).Unit
		return arr.Value(index).ToTime(unit).UTC().Format(TimeLayout)
	}
	return ""
}

// Take builds a new series by gathering rows. An index of -1 yields a null.
func (s *Series[T]) Take(indices []int) *Series[T] {
	values := s.Values()
	out := make([]T, len(indices))
	valid := make([]bool, len(indices))
	for i, idx := range indices {
		if idx < 0 || s.array.IsNull(idx) {
			continue
		}
		out[i] = values[idx]
		valid[i] = true
	}
	return NewNullable(s.name, out, valid, s.mem)
}

// Rename returns a series sharing this one's data under a new name.
func (s *Series[T]) Rename(name string) *Series[T] {
	s.array.Retain()
	return &Series[T]{name: name, array: s.array, mem: s.mem}
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d, nulls=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len(),
		s.NullN())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
