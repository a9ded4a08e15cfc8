package dataframe

import (
	"fmt"

	"github.com/paveg/reviewrisk/internal/errors"
)

// JoinType represents the type of join operation
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
)

// JoinOptions specifies parameters for join operations
type JoinOptions struct {
	Type     JoinType
	LeftKey  string
	RightKey string // defaults to LeftKey
	// UniqueRight rejects a right side whose key repeats, so a left join can
	// never multiply left rows.
	UniqueRight bool
}

// Join performs a hash join. The right key column is not carried into the
// result, and null keys never match. A right column whose name already
// exists on the left is a schema error: callers reconcile schemas first.
func (df *DataFrame) Join(right *DataFrame, options *JoinOptions) (*DataFrame, error) {
	if options == nil || options.LeftKey == "" {
		return nil, errors.NewInvalidInputError("Join", "join key is required")
	}
	rightKey := options.RightKey
	if rightKey == "" {
		rightKey = options.LeftKey
	}

	leftCol, ok := df.Column(options.LeftKey)
	if !ok {
		return nil, errors.NewColumnNotFoundError("Join", options.LeftKey)
	}
	rightCol, ok := right.Column(rightKey)
	if !ok {
		return nil, errors.NewColumnNotFoundError("Join", rightKey)
	}

	for _, name := range right.order {
		if name != rightKey && df.HasColumn(name) {
			return nil, errors.NewSchemaError("Join", "",
				fmt.Sprintf("column %q exists on both sides", name))
		}
	}

	// Build hash map from right DataFrame
	rightHashMap := make(map[string][]int, right.Len())
	for i := 0; i < rightCol.Len(); i++ {
		if rightCol.IsNull(i) {
			continue
		}
		key := rightCol.GetAsString(i)
		rightHashMap[key] = append(rightHashMap[key], i)
		if options.UniqueRight && len(rightHashMap[key]) > 1 {
			return nil, errors.NewSchemaError("Join", "",
				fmt.Sprintf("right key %q repeats value %q", rightKey, key))
		}
	}

	var leftIndices, rightIndices []int
	switch options.Type {
	case InnerJoin, LeftJoin:
		leftIndices, rightIndices = probe(leftCol, rightHashMap, options.Type == LeftJoin)
	default:
		return nil, errors.NewInvalidInputError("Join", fmt.Sprintf("unsupported join type: %v", options.Type))
	}

	return buildJoinResult(df, right, rightKey, leftIndices, rightIndices), nil
}

// probe walks the left keys in order and pairs them with right rows.
func probe(leftCol ISeries, rightHashMap map[string][]int, keepUnmatched bool) ([]int, []int) {
	leftIndices := make([]int, 0, leftCol.Len())
	rightIndices := make([]int, 0, leftCol.Len())

	for i := 0; i < leftCol.Len(); i++ {
		var rightRows []int
		if !leftCol.IsNull(i) {
			rightRows = rightHashMap[leftCol.GetAsString(i)]
		}
		if len(rightRows) == 0 {
			if keepUnmatched {
				leftIndices = append(leftIndices, i)
				rightIndices = append(rightIndices, -1) // -1 indicates null/missing
			}
			continue
		}
		for _, rightIdx := range rightRows {
			leftIndices = append(leftIndices, i)
			rightIndices = append(rightIndices, rightIdx)
		}
	}

	return leftIndices, rightIndices
}

func buildJoinResult(left, right *DataFrame, rightKey string, leftIndices, rightIndices []int) *DataFrame {
	cols := make([]ISeries, 0, left.Width()+right.Width())
	for _, name := range left.order {
		cols = append(cols, takeSeries(left.columns[name], leftIndices))
	}
	for _, name := range right.order {
		if name == rightKey {
			continue
		}
		cols = append(cols, takeSeries(right.columns[name], rightIndices))
	}
	return New(cols...)
}
