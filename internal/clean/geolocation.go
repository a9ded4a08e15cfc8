package clean

import (
	"github.com/paveg/reviewrisk/internal/dataframe"
)

// GeoResult is the zip lookup plus how many zip groups were dropped for
// lacking any usable coordinate.
type GeoResult struct {
	Lookup  *dataframe.DataFrame
	Dropped int
}

// CleanGeolocation collapses raw pings into one row per zip prefix: median
// latitude and longitude, the most frequent city and the first state seen.
// Prefixes are normalized before grouping, so "01037" and "1037" merge.
func CleanGeolocation(raw *dataframe.DataFrame) (GeoResult, error) {
	if err := raw.Require("CleanGeolocation", "geolocation_zip_code_prefix", "geolocation_lat",
		"geolocation_lng", "geolocation_city", "geolocation_state"); err != nil {
		return GeoResult{}, err
	}

	zips, err := mapStrings(raw, "geolocation_zip_code_prefix", func(v string, ok bool) (string, bool) {
		return NormalizeZip(v), ok && v != ""
	})
	if err != nil {
		return GeoResult{}, err
	}
	df, err := raw.WithColumns(zips)
	if err != nil {
		return GeoResult{}, err
	}
	defer df.Release()

	gb, err := df.GroupBy("geolocation_zip_code_prefix")
	if err != nil {
		return GeoResult{}, err
	}
	agg, err := gb.Agg(
		dataframe.Agg("geolocation_lat", dataframe.Median).Alias("lat"),
		dataframe.Agg("geolocation_lng", dataframe.Median).Alias("lng"),
		dataframe.Agg("geolocation_city", dataframe.Mode).Alias("geo_city").WithDefault(Unknown),
		dataframe.Agg("geolocation_state", dataframe.First).Alias("geo_state").WithDefault(Unknown),
	)
	if err != nil {
		return GeoResult{}, err
	}
	defer agg.Release()

	_, latOK, err := agg.Float64s("lat")
	if err != nil {
		return GeoResult{}, err
	}
	_, lngOK, err := agg.Float64s("lng")
	if err != nil {
		return GeoResult{}, err
	}
	keep := make([]bool, agg.Len())
	dropped := 0
	for i := range keep {
		keep[i] = latOK[i] && lngOK[i]
		if !keep[i] {
			dropped++
		}
	}
	filtered, err := agg.Filter(keep)
	if err != nil {
		return GeoResult{}, err
	}
	defer filtered.Release()

	return GeoResult{
		Lookup:  filtered.Rename(map[string]string{"geolocation_zip_code_prefix": "zip_code_prefix"}),
		Dropped: dropped,
	}, nil
}
