package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/paveg/reviewrisk/internal/config"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/io"
)

// Modeling artifact names.
const (
	ArtifactXTrain       = "X_train"
	ArtifactXTest        = "X_test"
	ArtifactYTrain       = "y_train"
	ArtifactYTest        = "y_test"
	ArtifactEncoders     = "encoders.json"
	ArtifactCategoryRisk = "category_risk.json"
	ArtifactSellerRisk   = "seller_risk.json"
)

// Write persists the partitions and the fitted state under cfg.ModelDir
// and returns the row count of each partition.
func Write(res *Result, cfg *config.Config) (map[string]int, error) {
	rows := make(map[string]int, 4)
	for _, part := range []struct {
		name string
		df   *dataframe.DataFrame
	}{
		{ArtifactXTrain, res.XTrain},
		{ArtifactXTest, res.XTest},
		{ArtifactYTrain, res.YTrain},
		{ArtifactYTest, res.YTest},
	} {
		if err := io.WriteFile(cfg.ModelPath(part.name), part.df, io.DefaultCSVOptions()); err != nil {
			return nil, err
		}
		rows[part.name] = part.df.Len()
	}

	encoders := make(map[string][]string, len(res.Encoders))
	for _, e := range res.Encoders {
		encoders[e.Column] = e.Classes
	}
	for name, v := range map[string]any{
		ArtifactEncoders:     encoders,
		ArtifactCategoryRisk: res.CategoryRisk,
		ArtifactSellerRisk:   res.SellerRisk,
	} {
		if err := writeJSON(cfg.ModelPath(name), v); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return io.WriteBytes(path, append(data, '\n'))
}

// LoadRiskMap reads a persisted risk map.
func LoadRiskMap(path string) (*RiskMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m RiskMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &m, nil
}

// LoadEncoders reads persisted label encoders, sorted by column.
func LoadEncoders(path string) ([]*LabelEncoder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	out := make([]*LabelEncoder, 0, len(raw))
	for col, classes := range raw {
		out = append(out, NewLabelEncoder(col, classes))
	}
	slices.SortFunc(out, func(a, b *LabelEncoder) int { return strings.Compare(a.Column, b.Column) })
	return out, nil
}
