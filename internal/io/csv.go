package io

import (
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
)

const (
	// Boolean string constants
	trueStr  = "true"
	falseStr = "false"
)

// Read reads CSV data and returns a DataFrame
func (r *CSVReader) Read() (*dataframe.DataFrame, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataframe.New(), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
		if len(headers) > 0 {
			headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
		}
	} else {
		// Generate default column names
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	nullSet := make(map[string]bool, len(r.options.NullValues))
	for _, v := range r.options.NullValues {
		nullSet[v] = true
	}

	// Transpose data to work with columns; short rows are padded with nulls
	seriesList := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		data := make([]string, len(dataRows))
		valid := make([]bool, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) && !nullSet[row[i]] {
				data[j] = row[i]
				valid[j] = true
			}
		}
		s, err := r.createSeries(header, data, valid)
		if err != nil {
			for _, done := range seriesList {
				done.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataframe.New(seriesList...), nil
}

func (r *CSVReader) createSeries(name string, data []string, valid []bool) (dataframe.ISeries, error) {
	colType := r.options.Types[name]
	if colType == Infer {
		colType = inferDataType(data, valid)
	}

	switch colType {
	case String:
		return series.NewNullable(name, data, valid, r.mem), nil
	case Int64:
		values := make([]int64, len(data))
		for i, v := range data {
			if valid[i] {
				values[i], valid[i] = parseInt(v)
			}
		}
		return series.NewNullable(name, values, valid, r.mem), nil
	case Float64:
		values := make([]float64, len(data))
		for i, v := range data {
			if valid[i] {
				values[i], valid[i] = parseFloat(v)
			}
		}
		return series.NewNullable(name, values, valid, r.mem), nil
	case Bool:
		values := make([]bool, len(data))
		for i, v := range data {
			if valid[i] {
				values[i], valid[i] = parseBool(v)
			}
		}
		return series.NewNullable(name, values, valid, r.mem), nil
	case Timestamp:
		values := make([]time.Time, len(data))
		for i, v := range data {
			if valid[i] {
				values[i], valid[i] = dataframe.ParseTime(v)
			}
		}
		return series.NewNullable(name, values, valid, r.mem), nil
	}
	return nil, fmt.Errorf("unknown column type %d", colType)
}

// inferDataType determines the most specific type every non-null value fits.
func inferDataType(data []string, valid []bool) ColumnType {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasValue := false

	for i, value := range data {
		if !valid[i] {
			continue
		}
		hasValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}
		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}
		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
		if !canBeBool && !canBeInt && !canBeFloat {
			break
		}
	}

	switch {
	case !hasValue:
		return String
	case canBeBool:
		return Bool
	case canBeInt:
		return Int64
	case canBeFloat:
		return Float64
	}
	return String
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	// integral floats such as "3.0" are accepted
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case trueStr, "1":
		return true, true
	case falseStr, "0":
		return false, true
	}
	return false, false
}

// Write writes the DataFrame to CSV format. Nulls are written as empty cells.
func (w *CSVWriter) Write(df *dataframe.DataFrame) error {
	csvWriter := csv.NewWriter(w.writer)
	if w.options.Delimiter != 0 {
		csvWriter.Comma = w.options.Delimiter
	}

	columns := df.Columns()
	if w.options.Header {
		if err := csvWriter.Write(columns); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	cols := make([]dataframe.ISeries, len(columns))
	for j, name := range columns {
		cols[j], _ = df.Column(name)
	}

	row := make([]string, len(cols))
	for i := 0; i < df.Len(); i++ {
		for j, column := range cols {
			row[j] = column.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
