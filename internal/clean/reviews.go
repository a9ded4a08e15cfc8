package clean

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/series"
)

// Review score bounds. Scores outside them are treated as missing.
const (
	MinReviewScore = 1
	MaxReviewScore = 5
)

var reviewColumns = []string{
	"review_id", "order_id", "review_score", "review_comment_title",
	"review_comment_message", "review_creation_date", "review_answer_timestamp",
}

// CleanReviews normalizes review text, derives comment and response-time
// features and keeps one review per order: the most recently answered one,
// with the earliest row winning ties and unanswered reviews ranked last.
func CleanReviews(raw *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := raw.Require("CleanReviews", reviewColumns...); err != nil {
		return nil, err
	}

	deduped, err := latestPerOrder(raw)
	if err != nil {
		return nil, err
	}
	defer deduped.Release()
	df := deduped.Select(reviewColumns...)
	defer df.Release()

	title, err := mapStrings(df, "review_comment_title", normalizeComment)
	if err != nil {
		return nil, err
	}
	message, err := mapStrings(df, "review_comment_message", normalizeComment)
	if err != nil {
		return nil, err
	}
	text, _, _ := df.Strings("review_comment_message")

	scores, scoreOK, err := df.Int64s("review_score")
	if err != nil {
		return nil, err
	}
	created, createdOK, err := df.Times("review_creation_date")
	if err != nil {
		return nil, err
	}
	answered, answeredOK, err := df.Times("review_answer_timestamp")
	if err != nil {
		return nil, err
	}

	n := df.Len()
	length := make([]int64, n)
	hasComment := make([]bool, n)
	response, responseOK := make([]float64, n), make([]bool, n)
	for i := 0; i < n; i++ {
		if scoreOK[i] && (scores[i] < MinReviewScore || scores[i] > MaxReviewScore) {
			scoreOK[i] = false
		}
		msg, _ := normalizeComment(text[i], true)
		length[i] = int64(utf8.RuneCountInString(msg))
		hasComment[i] = length[i] > 0
		if createdOK[i] && answeredOK[i] {
			response[i], responseOK[i] = ResponseHours(created[i], answered[i]), true
		}
	}

	return df.WithColumns(
		series.NewNullable("review_score", scores, scoreOK, nil),
		title,
		message,
		series.New("comment_length", length, nil),
		flagColumn("has_comment", hasComment),
		series.NewNullable("response_time_hours", response, responseOK, nil),
	)
}

// normalizeComment maps missing text and the literal "nan" to the empty string.
func normalizeComment(v string, ok bool) (string, bool) {
	if !ok || strings.EqualFold(strings.TrimSpace(v), "nan") {
		return "", true
	}
	return v, true
}

// ResponseHours is the answer delay in hours, never negative.
func ResponseHours(created, answered time.Time) float64 {
	return max(0, answered.Sub(created).Hours())
}

func latestPerOrder(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	ids, idOK, err := df.Strings("order_id")
	if err != nil {
		return nil, err
	}
	answered, answeredOK, err := df.Times("review_answer_timestamp")
	if err != nil {
		return nil, err
	}

	best := make(map[string]int, len(ids))
	order := make([]string, 0, len(ids))
	for i, id := range ids {
		if !idOK[i] {
			continue
		}
		cur, seen := best[id]
		if !seen {
			best[id] = i
			order = append(order, id)
			continue
		}
		if answeredOK[i] && (!answeredOK[cur] || answered[i].After(answered[cur])) {
			best[id] = i
		}
	}

	keep := make([]int, 0, len(order))
	for _, id := range order {
		keep = append(keep, best[id])
	}
	sortInts(keep)
	return df.Take(keep), nil
}
