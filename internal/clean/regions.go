package clean

import (
	"strings"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/paveg/reviewrisk/internal/textnorm"
)

// HubState is the primary logistics hub.
const HubState = "SP"

// RegionOther labels states outside the five macro-regions.
const RegionOther = "Other"

// Regions partitions Brazilian states into five economic zones.
var Regions = map[string][]string{
	"SE": {"SP", "RJ", "ES", "MG"},
	"S":  {"PR", "SC", "RS"},
	"NE": {"BA", "PE", "CE", "RN", "PB", "MA", "AL", "SE", "PI"},
	"CO": {"DF", "GO", "MT", "MS"},
	"N":  {"AM", "PA", "RO", "TO", "AC", "AP", "RR"},
}

var stateRegion = func() map[string]string {
	m := make(map[string]string, 27)
	for region, states := range Regions {
		for _, s := range states {
			m[s] = region
		}
	}
	return m
}()

// RegionOf maps a two-letter state code to its macro-region.
func RegionOf(state string) string {
	if r, ok := stateRegion[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return r
	}
	return RegionOther
}

// party describes the column prefix shared by customers and sellers.
type party struct {
	op     string
	id     string
	prefix string
	hub    string
	extra  []string
}

var (
	customerParty = party{op: "CleanCustomers", id: "customer_id", prefix: "customer", hub: "is_hub_customer",
		extra: []string{"customer_unique_id"}}
	sellerParty = party{op: "CleanSellers", id: "seller_id", prefix: "seller", hub: "is_hub_seller"}
)

// CleanCustomers adds customer_region and is_hub_customer, title-cases the
// city and normalizes the zip prefix. One row per customer_id is kept.
func CleanCustomers(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	return cleanParty(raw, customerParty)
}

// CleanSellers is CleanCustomers for the seller table.
func CleanSellers(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	return cleanParty(raw, sellerParty)
}

func cleanParty(raw *dataframe.DataFrame, p party) (*dataframe.DataFrame, error) {
	zip, city, state := p.prefix+"_zip_code_prefix", p.prefix+"_city", p.prefix+"_state"
	columns := append(append([]string{p.id}, p.extra...), zip, city, state)
	if err := raw.Require(p.op, columns...); err != nil {
		return nil, err
	}

	deduped, err := raw.DropDuplicates(p.id)
	if err != nil {
		return nil, err
	}
	defer deduped.Release()
	df := deduped.Select(columns...)
	defer df.Release()

	zips, err := mapStrings(df, zip, func(v string, ok bool) (string, bool) {
		return NormalizeZip(v), ok
	})
	if err != nil {
		return nil, err
	}
	cities, err := mapStrings(df, city, func(v string, ok bool) (string, bool) {
		return textnorm.Title(v), ok
	})
	if err != nil {
		return nil, err
	}
	states, err := mapStrings(df, state, func(v string, ok bool) (string, bool) {
		return strings.ToUpper(strings.TrimSpace(v)), ok
	})
	if err != nil {
		return nil, err
	}

	codes, _, _ := df.Strings(state)
	regions := make([]string, len(codes))
	hub := make([]bool, len(codes))
	for i, s := range codes {
		regions[i] = RegionOf(s)
		hub[i] = strings.ToUpper(strings.TrimSpace(s)) == HubState
	}

	return df.WithColumns(
		zips, cities, states,
		series.New(p.prefix+"_region", regions, nil),
		flagColumn(p.hub, hub),
	)
}
