package features

import (
	"sort"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
)

// Unseen is the code of values a LabelEncoder was not fitted on, and of nulls.
const Unseen int64 = -1

// LabelEncoder maps the sorted distinct values of a column to 0..n-1.
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"`
	index   map[string]int64
}

// FitLabelEncoder learns the classes of column from the train partition.
func FitLabelEncoder(train TrainFrame, column string) (*LabelEncoder, error) {
	values, valid, err := train.Frame().Strings(column)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for i, v := range values {
		if valid[i] {
			set[v] = struct{}{}
		}
	}
	classes := make([]string, 0, len(set))
	for v := range set {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewLabelEncoder(column, classes), nil
}

// NewLabelEncoder rebuilds an encoder from persisted classes.
func NewLabelEncoder(column string, classes []string) *LabelEncoder {
	e := &LabelEncoder{Column: column, Classes: classes, index: make(map[string]int64, len(classes))}
	for i, c := range classes {
		e.index[c] = int64(i)
	}
	return e
}

// Code returns the class index of value.
func (e *LabelEncoder) Code(value string, valid bool) int64 {
	if !valid {
		return Unseen
	}
	if c, ok := e.index[value]; ok {
		return c
	}
	return Unseen
}

// Transform replaces the column with its integer codes.
func (e *LabelEncoder) Transform(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	values, valid, err := df.Strings(e.Column)
	if err != nil {
		return nil, err
	}
	codes := make([]int64, len(values))
	for i := range values {
		codes[i] = e.Code(values[i], valid[i])
	}
	return df.WithColumns(series.New(e.Column, codes, nil))
}
