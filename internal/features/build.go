package features

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/paveg/reviewrisk/internal/assemble"
	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/series"
)

// Column names produced by Build.
const (
	Target       = "is_bad_review"
	CategoryRisk = "category_risk"
	SellerRisk   = "seller_risk"
	Sentiment    = "sentiment_score"
	ReviewLen    = "review_length"

	categoryColumn = "product_category_name_english"
	sellerColumn   = "seller_id"
	splitKey       = "order_id"
)

// LeakColumns are only known after the customer wrote the review.
var LeakColumns = []string{"review_score", "comment_length", "has_comment", "response_time_hours"}

// dropColumns never reach the feature matrix: raw coordinates and zips are
// summarized by distance_km, the issue labels are derived from the review.
var dropColumns = []string{
	"cust_lat", "cust_lng", "sell_lat", "sell_lng",
	"customer_zip_code_prefix", "seller_zip_code_prefix",
	"issue_category", "sentiment_label",
}

// Options tune Build.
type Options struct {
	BadReviewThreshold int64   // scores at or below are bad
	TestFraction       float64 // share of orders held out
	Seed               uint64
	SkipTextFeatures   bool // leave out sentiment_score and review_length
}

// Result holds the model-ready partitions and everything fitted on train.
type Result struct {
	XTrain, XTest *dataframe.DataFrame
	YTrain, YTest *dataframe.DataFrame

	CategoryRisk *RiskMap
	SellerRisk   *RiskMap
	Encoders     []*LabelEncoder
}

// Release frees the partitions.
func (r *Result) Release() {
	for _, df := range []*dataframe.DataFrame{r.XTrain, r.XTest, r.YTrain, r.YTest} {
		if df != nil {
			df.Release()
		}
	}
}

// Build derives the target and text features from the master table,
// splits by order and fits risk maps and encoders on the train side.
func Build(master *dataframe.DataFrame, opts Options) (*Result, error) {
	if err := master.Require("Build", splitKey, sellerColumn, categoryColumn, "review_score"); err != nil {
		return nil, err
	}

	base, err := withDerived(master, opts)
	if err != nil {
		return nil, err
	}
	defer base.Release()

	train, test, err := Split(base, splitKey, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, err
	}
	defer train.Release()
	defer test.Release()
	if err := checkDisjoint(train, test, splitKey); err != nil {
		return nil, err
	}

	res := &Result{}
	if res.CategoryRisk, err = FitRisk(train, categoryColumn, Target); err != nil {
		return nil, err
	}
	if res.SellerRisk, err = FitRisk(train, sellerColumn, Target); err != nil {
		return nil, err
	}

	trainX, err := res.encodeRisk(train.Frame())
	if err != nil {
		return nil, err
	}
	defer trainX.Release()
	testX, err := res.encodeRisk(test.Frame())
	if err != nil {
		return nil, err
	}
	defer testX.Release()

	res.YTrain = trainX.Select(Target)
	res.YTest = testX.Select(Target)

	drop := append(append(append(append([]string{Target}, LeakColumns...), dropColumns...),
		assemble.IDColumns...), assemble.TextColumns...)
	trainX = trainX.Drop(drop...)
	defer trainX.Release()
	testX = testX.Drop(drop...)
	defer testX.Release()

	fitted := TrainFrame{trainX}
	for _, name := range trainX.Columns() {
		col, _ := trainX.Column(name)
		if col.DataType().ID() != arrow.STRING {
			continue
		}
		enc, err := FitLabelEncoder(fitted, name)
		if err != nil {
			res.Release()
			return nil, err
		}
		res.Encoders = append(res.Encoders, enc)
	}

	if res.XTrain, err = finishMatrix(trainX, res.Encoders); err != nil {
		res.Release()
		return nil, err
	}
	if res.XTest, err = finishMatrix(testX, res.Encoders); err != nil {
		res.Release()
		return nil, err
	}
	return res, nil
}

// withDerived adds the target and, unless skipped, the text features.
func withDerived(master *dataframe.DataFrame, opts Options) (*dataframe.DataFrame, error) {
	if opts.BadReviewThreshold == 0 {
		opts.BadReviewThreshold = 3
	}
	scores, scoreOK, err := master.Int64s("review_score")
	if err != nil {
		return nil, err
	}
	target := make([]int64, len(scores))
	for i, s := range scores {
		if !scoreOK[i] {
			return nil, errors.NewDataQualityError("Build", assemble.TableMaster, "review_score",
				fmt.Sprintf("row %d has no score", i))
		}
		if s <= opts.BadReviewThreshold {
			target[i] = 1
		}
	}
	cols := []dataframe.ISeries{series.New(Target, target, nil)}

	if !opts.SkipTextFeatures && master.HasColumn("review_comment_title") && master.HasColumn("review_comment_message") {
		titles, _, _ := master.Strings("review_comment_title")
		messages, _, _ := master.Strings("review_comment_message")
		scoresOut := make([]float64, len(titles))
		lengths := make([]int64, len(titles))
		for i := range titles {
			text := ReviewText(titles[i], messages[i])
			scoresOut[i] = SentimentScore(text)
			lengths[i] = ReviewLength(titles[i], messages[i])
		}
		cols = append(cols, series.New(Sentiment, scoresOut, nil), series.New(ReviewLen, lengths, nil))
	}
	return master.WithColumns(cols...)
}

func (r *Result) encodeRisk(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	withCategory, err := r.CategoryRisk.Apply(df, CategoryRisk)
	if err != nil {
		return nil, err
	}
	defer withCategory.Release()
	return r.SellerRisk.Apply(withCategory, SellerRisk)
}

// finishMatrix encodes text columns, drops anything still non-numeric and
// fills remaining numeric nulls with zero.
func finishMatrix(df *dataframe.DataFrame, encoders []*LabelEncoder) (*dataframe.DataFrame, error) {
	cur := df.Select(df.Columns()...)
	for _, enc := range encoders {
		next, err := enc.Transform(cur)
		cur.Release()
		if err != nil {
			return nil, err
		}
		cur = next
	}
	defer cur.Release()

	var keep []string
	fill := make(map[string]any)
	for _, name := range cur.Columns() {
		col, _ := cur.Column(name)
		switch col.DataType().ID() {
		case arrow.FLOAT64:
			fill[name] = 0.0
		case arrow.INT64:
			fill[name] = int64(0)
		case arrow.BOOL:
			fill[name] = false
		default:
			continue
		}
		keep = append(keep, name)
	}
	numeric := cur.Select(keep...)
	defer numeric.Release()
	return numeric.FillNull(fill)
}
