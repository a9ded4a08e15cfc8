package clean

import (
	"math"
	"strings"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
)

// UnknownCategory fills product categories that are absent.
const UnknownCategory = "unknown"

// VolumetricDivisor converts cubic centimetres to volumetric kilograms.
const VolumetricDivisor = 6000.0

// dimensionColumns are imputed by category median, then global median.
var dimensionColumns = []string{"product_weight_g", "product_length_cm", "product_height_cm", "product_width_cm"}

// CleanProducts translates categories, imputes missing dimensions and adds
// shipping-weight features. translation may be nil, in which case the
// Portuguese category name stands in for the English one.
func CleanProducts(raw, translation *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	required := append([]string{"product_id", "product_category_name", "product_photos_qty", "product_description_lenght"}, dimensionColumns...)
	if err := raw.Require("CleanProducts", required...); err != nil {
		return nil, err
	}

	df, err := raw.DropDuplicates("product_id")
	if err != nil {
		return nil, err
	}
	defer df.Release()

	rawCategory, categoryOK, err := df.Strings("product_category_name")
	if err != nil {
		return nil, err
	}
	for i := range rawCategory {
		rawCategory[i] = strings.TrimSpace(rawCategory[i])
		categoryOK[i] = categoryOK[i] && rawCategory[i] != ""
	}

	english, err := translationMap(translation)
	if err != nil {
		return nil, err
	}

	n := df.Len()
	category := make([]string, n)
	categoryEN := make([]string, n)
	for i := 0; i < n; i++ {
		if !categoryOK[i] {
			category[i], categoryEN[i] = UnknownCategory, UnknownCategory
			continue
		}
		category[i] = rawCategory[i]
		if en, ok := english[rawCategory[i]]; ok {
			categoryEN[i] = en
		} else {
			categoryEN[i] = rawCategory[i]
		}
	}

	dims := make(map[string][]float64, len(dimensionColumns))
	cols := []dataframe.ISeries{
		series.New("product_category_name", category, nil),
		series.New("product_category_name_english", categoryEN, nil),
	}
	for _, name := range dimensionColumns {
		values, valid, err := df.Float64s(name)
		if err != nil {
			return nil, err
		}
		imputed := ImputeByGroup(values, valid, rawCategory, categoryOK)
		dims[name] = imputed
		cols = append(cols, series.New(name, imputed, nil))
	}

	photos, photosOK, err := df.Float64s("product_photos_qty")
	if err != nil {
		return nil, err
	}
	desc, descOK, err := df.Float64s("product_description_lenght")
	if err != nil {
		return nil, err
	}

	weightKg := make([]float64, n)
	volumetric := make([]float64, n)
	density := make([]float64, n)
	missingInfo := make([]bool, n)
	for i := 0; i < n; i++ {
		if !photosOK[i] {
			photos[i] = 0
		}
		weightKg[i] = dims["product_weight_g"][i] / 1000
		volumetric[i] = VolumetricWeight(dims["product_length_cm"][i], dims["product_width_cm"][i], dims["product_height_cm"][i])
		density[i] = DensityRatio(weightKg[i], volumetric[i])
		missingInfo[i] = photos[i] == 0 || !descOK[i] || desc[i] == 0
	}

	cols = append(cols,
		series.New("product_photos_qty", photos, nil),
		series.New("product_weight_kg", weightKg, nil),
		series.New("volumetric_weight_kg", volumetric, nil),
		series.New("density_ratio", density, nil),
		flagColumn("is_missing_info", missingInfo),
	)
	return df.WithColumns(cols...)
}

func translationMap(translation *dataframe.DataFrame) (map[string]string, error) {
	out := make(map[string]string)
	if translation == nil {
		return out, nil
	}
	pt, ptOK, err := translation.Strings("product_category_name")
	if err != nil {
		return nil, err
	}
	en, enOK, err := translation.Strings("product_category_name_english")
	if err != nil {
		return nil, err
	}
	for i := range pt {
		if ptOK[i] && enOK[i] && strings.TrimSpace(en[i]) != "" {
			out[strings.TrimSpace(pt[i])] = strings.TrimSpace(en[i])
		}
	}
	return out, nil
}

// ImputeByGroup fills missing values with the median of their group, falling
// back to the global median when the group is unknown or has no values. When
// nothing is known at all the fill is 0.
func ImputeByGroup(values []float64, valid []bool, groups []string, groupOK []bool) []float64 {
	byGroup := make(map[string][]float64)
	all := make([]float64, 0, len(values))
	for i, v := range values {
		if !valid[i] {
			continue
		}
		all = append(all, v)
		if groupOK[i] {
			byGroup[groups[i]] = append(byGroup[groups[i]], v)
		}
	}
	global := dataframe.MedianOf(all)

	medians := make(map[string]float64, len(byGroup))
	for g, vals := range byGroup {
		medians[g] = dataframe.MedianOf(vals)
	}

	out := make([]float64, len(values))
	for i, v := range values {
		switch {
		case valid[i]:
			out[i] = v
		case groupOK[i]:
			if m, ok := medians[groups[i]]; ok {
				out[i] = m
			} else {
				out[i] = global
			}
		default:
			out[i] = global
		}
	}
	return out
}

// VolumetricWeight is length × width × height / 6000, rounded to grams.
func VolumetricWeight(length, width, height float64) float64 {
	return math.Round(length*width*height/VolumetricDivisor*1000) / 1000
}

// DensityRatio is actual over volumetric weight, 0 when undefined.
func DensityRatio(weightKg, volumetricKg float64) float64 {
	if volumetricKg == 0 {
		return 0
	}
	r := weightKg / volumetricKg
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
