package clean

import (
	"strings"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/rules"
	"github.com/paveg/reviewrisk/internal/series"
)

// Seller segment groups.
const (
	SegmentHome   = "Home_Goods"
	SegmentHealth = "Health_Beauty"
	SegmentTech   = "Tech"
	SegmentAuto   = "Auto"
	SegmentOther  = "Other"
)

func segmentContains(words ...string) func(string) bool {
	return func(s string) bool {
		for _, w := range words {
			if strings.Contains(s, w) {
				return true
			}
		}
		return false
	}
}

// SegmentRules simplify a lowercased business segment.
var SegmentRules = rules.Set[string]{
	Rules: []rules.Rule[string]{
		{Label: SegmentHome, Match: segmentContains("home", "house", "decor")},
		{Label: SegmentHealth, Match: segmentContains("health", "beauty")},
		{Label: SegmentTech, Match: segmentContains("tech", "computer", "phone")},
		{Label: SegmentAuto, Match: segmentContains("car", "auto")},
	},
	Default: SegmentOther,
}

// SegmentGroup buckets a business segment.
func SegmentGroup(segment string) string {
	return SegmentRules.Classify(strings.ToLower(segment))
}

// IsManufacturer reports whether the lead type names an industry lead.
func IsManufacturer(leadType string) bool {
	return strings.Contains(strings.ToLower(leadType), "industry")
}

// CleanMarketing attaches the lead origin to each closed deal, fills gaps
// with Unknown and keeps one row per seller. Deals without a seller are dropped
// since nothing downstream can join them.
func CleanMarketing(deals, leads *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := deals.Require("CleanMarketing", "mql_id", "seller_id", "business_segment", "lead_type"); err != nil {
		return nil, err
	}
	if err := leads.Require("CleanMarketing", "mql_id", "origin"); err != nil {
		return nil, err
	}

	left := deals.Select("mql_id", "seller_id", "business_segment", "lead_type")
	defer left.Release()
	origins := leads.Select("mql_id", "origin")
	defer origins.Release()
	uniqueOrigins, err := origins.DropDuplicates("mql_id")
	if err != nil {
		return nil, err
	}
	defer uniqueOrigins.Release()

	merged, err := left.Join(uniqueOrigins, &dataframe.JoinOptions{Type: dataframe.LeftJoin, LeftKey: "mql_id", UniqueRight: true})
	if err != nil {
		return nil, err
	}
	defer merged.Release()

	_, sellerOK, err := merged.Strings("seller_id")
	if err != nil {
		return nil, err
	}
	withSeller, err := merged.Filter(sellerOK)
	if err != nil {
		return nil, err
	}
	defer withSeller.Release()
	deduped, err := withSeller.DropDuplicates("seller_id")
	if err != nil {
		return nil, err
	}
	defer deduped.Release()

	features := deduped.Select("seller_id", "business_segment", "lead_type", "origin")
	defer features.Release()
	filled, err := features.FillNull(map[string]any{
		"business_segment": Unknown,
		"lead_type":        Unknown,
		"origin":           Unknown,
	})
	if err != nil {
		return nil, err
	}
	defer filled.Release()

	segments, _, _ := filled.Strings("business_segment")
	leadTypes, _, _ := filled.Strings("lead_type")
	groups := make([]string, len(segments))
	manufacturer := make([]bool, len(segments))
	for i := range segments {
		groups[i] = SegmentGroup(segments[i])
		manufacturer[i] = IsManufacturer(leadTypes[i])
	}

	return filled.WithColumns(
		series.New("seller_segment_group", groups, nil),
		flagColumn("is_manufacturer", manufacturer),
	)
}
