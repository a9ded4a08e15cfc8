package features

import (
	"fmt"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
	"gonum.org/v1/gonum/stat"
)

// RiskMap is a target encoding: the mean of a binary target per category
// value, fitted on training rows.
type RiskMap struct {
	Column     string             `json:"column"`
	Target     string             `json:"target"`
	Rates      map[string]float64 `json:"rates"`
	Counts     map[string]int64   `json:"counts"`
	GlobalMean float64            `json:"global_mean"`
}

// FitRisk computes the per-value target mean of column over the train
// partition, and the global mean used for values it never saw.
func FitRisk(train TrainFrame, column, target string) (*RiskMap, error) {
	df := train.Frame()
	if df == nil {
		return nil, errors.NewLeakageError("FitRisk", "risk maps need a train partition")
	}
	if err := df.Require("FitRisk", column, target); err != nil {
		return nil, err
	}

	y, yOK, err := df.Float64s(target)
	if err != nil {
		return nil, err
	}
	labels := make([]float64, 0, len(y))
	for i, v := range y {
		if yOK[i] {
			labels = append(labels, v)
		}
	}
	m := &RiskMap{
		Column: column,
		Target: target,
		Rates:  make(map[string]float64),
		Counts: make(map[string]int64),
	}
	if len(labels) > 0 {
		m.GlobalMean = stat.Mean(labels, nil)
	}

	gb, err := df.GroupBy(column)
	if err != nil {
		return nil, err
	}
	agg, err := gb.Agg(
		dataframe.Agg(target, dataframe.Mean).Alias("rate"),
		dataframe.Agg(target, dataframe.Count).Alias("n"),
	)
	if err != nil {
		return nil, err
	}
	defer agg.Release()

	keys, _, _ := agg.Strings(column)
	rates, rateOK, err := agg.Float64s("rate")
	if err != nil {
		return nil, err
	}
	counts, _, err := agg.Int64s("n")
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		if rateOK[i] {
			m.Rates[k] = rates[i]
			m.Counts[k] = counts[i]
		}
	}
	return m, nil
}

// Rate returns the encoded value for one category value.
func (m *RiskMap) Rate(value string, valid bool) float64 {
	if valid {
		if r, ok := m.Rates[value]; ok {
			return r
		}
	}
	return m.GlobalMean
}

// Apply adds the encoding of m.Column to df as column name.
func (m *RiskMap) Apply(df *dataframe.DataFrame, name string) (*dataframe.DataFrame, error) {
	values, valid, err := df.Strings(m.Column)
	if err != nil {
		return nil, fmt.Errorf("apply %s risk: %w", m.Column, err)
	}
	out := make([]float64, len(values))
	for i := range values {
		out[i] = m.Rate(values[i], valid[i])
	}
	return df.WithColumns(series.New(name, out, nil))
}
