package clean

import (
	"sort"

	"github.com/paveg/reviewrisk/internal/dataframe"
	"github.com/paveg/reviewrisk/internal/rules"
	"github.com/paveg/reviewrisk/internal/series"
	"github.com/paveg/reviewrisk/internal/textnorm"
)

// Sentiment labels derived from the review score.
const (
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
	SentimentPositive = "Positive"
	SentimentUnknown  = "Unknown"
)

// Issue categories, in precedence order.
const (
	IssueRefund       = "Cancellation/Refund"
	IssueQuality      = "Product Quality"
	IssueService      = "Service/Communication"
	IssueNotReceived  = "Logistics (Not Received)"
	IssueLate         = "Logistics (Late)"
	IssueUndelivered  = "Logistics (Undelivered)"
	IssueVague        = "Vague Dissatisfaction"
	IssueUnclassified = "Unclassified"
	IssueNone         = "No Issue"
)

// Keyword lists are matched as substrings of the normalized review text.
var (
	serviceKeywords = []string{"atendimento", "responde", "resposta", "ignorou", "contato", "telefone",
		"email", "sac", "loja", "vendedor", "chat", "ninguem", "descaso"}
	refundKeywords = []string{"cancelar", "cancelamento", "dinheiro", "estorno", "devolver", "reembolso",
		"paguei", "valor", "cartao", "fatura"}
	qualityKeywords = []string{"defeito", "quebrado", "riscado", "amassado", "velho", "usado", "diferente",
		"errado", "cor", "tamanho", "peca", "funcionou", "ruim", "pessima", "falso", "veio apenas", "so veio"}
	delayKeywords = []string{"atraso", "atrasado", "demora", "demorou", "prazo", "esperando", "agora",
		"dia", "semana", "mes", "tempo", "tarde"}
	notReceivedKeywords = []string{"nao recebi", "nao chegou", "nunca chegou", "cade", "entregue",
		"correios", "extraviado", "nada", "sumiu"}
)

// ReviewSignal is what the issue rules see of one review.
type ReviewSignal struct {
	Sentiment   string
	Text        string // normalized title and message
	PreDelivery bool   // written before delivery, or never delivered
}

func mentions(keywords []string) func(ReviewSignal) bool {
	return func(r ReviewSignal) bool { return textnorm.ContainsAny(r.Text, keywords) }
}

// IssueRules classify non-positive reviews. Positive reviews never reach them.
var IssueRules = rules.Set[ReviewSignal]{
	Rules: []rules.Rule[ReviewSignal]{
		{Label: IssueRefund, Match: mentions(refundKeywords)},
		{Label: IssueQuality, Match: mentions(qualityKeywords)},
		{Label: IssueService, Match: mentions(serviceKeywords)},
		{Label: IssueNotReceived, Match: mentions(notReceivedKeywords)},
		{Label: IssueLate, Match: mentions(delayKeywords)},
		{Label: IssueUndelivered, Match: func(r ReviewSignal) bool { return r.PreDelivery }},
		{Label: IssueVague, Match: func(r ReviewSignal) bool { return r.Text != "" }},
	},
	Default: IssueUnclassified,
}

// SentimentLabel buckets a review score.
func SentimentLabel(score int64, ok bool) string {
	switch {
	case !ok:
		return SentimentUnknown
	case score <= 2:
		return SentimentNegative
	case score == 3:
		return SentimentNeutral
	default:
		return SentimentPositive
	}
}

// ClassifyIssue labels one review.
func ClassifyIssue(r ReviewSignal) string {
	if r.Sentiment == SentimentPositive {
		return IssueNone
	}
	return IssueRules.Classify(r)
}

// ClassifyReviews labels cleaned reviews with sentiment, keyword flags and an
// issue category. Orders supply the delivery timestamp that tells whether a
// review was written before the parcel arrived.
func ClassifyReviews(reviews, orders *dataframe.DataFrame) (*dataframe.DataFrame, error) {
	if err := reviews.Require("ClassifyReviews", "review_id", "order_id", "review_score",
		"review_comment_title", "review_comment_message", "review_creation_date"); err != nil {
		return nil, err
	}
	if err := orders.Require("ClassifyReviews", "order_id", "order_delivered_customer_date"); err != nil {
		return nil, err
	}

	base := reviews.Select("review_id", "order_id", "review_score", "review_comment_title",
		"review_comment_message", "review_creation_date")
	defer base.Release()
	delivery := orders.Select("order_id", "order_delivered_customer_date")
	defer delivery.Release()

	df, err := base.Join(delivery, &dataframe.JoinOptions{Type: dataframe.LeftJoin, LeftKey: "order_id", UniqueRight: true})
	if err != nil {
		return nil, err
	}
	defer df.Release()

	titles, titleOK, _ := df.Strings("review_comment_title")
	messages, messageOK, _ := df.Strings("review_comment_message")
	scores, scoreOK, err := df.Int64s("review_score")
	if err != nil {
		return nil, err
	}
	created, createdOK, err := df.Times("review_creation_date")
	if err != nil {
		return nil, err
	}
	delivered, deliveredOK, err := df.Times("order_delivered_customer_date")
	if err != nil {
		return nil, err
	}

	n := df.Len()
	cleanText := make([]string, n)
	sentiment := make([]string, n)
	issue := make([]string, n)
	preDelivery := make([]bool, n)
	flags := map[string][]bool{
		"mentions_refund":       make([]bool, n),
		"mentions_quality":      make([]bool, n),
		"mentions_service":      make([]bool, n),
		"mentions_not_received": make([]bool, n),
		"mentions_delay":        make([]bool, n),
	}

	for i := 0; i < n; i++ {
		title, _ := normalizeComment(titles[i], titleOK[i])
		message, _ := normalizeComment(messages[i], messageOK[i])
		cleanText[i] = textnorm.Normalize(title + " " + message)
		sentiment[i] = SentimentLabel(scores[i], scoreOK[i])
		preDelivery[i] = !deliveredOK[i] || (createdOK[i] && FloorDays(created[i].Sub(delivered[i])) < 0)

		signal := ReviewSignal{Sentiment: sentiment[i], Text: cleanText[i], PreDelivery: preDelivery[i]}
		issue[i] = ClassifyIssue(signal)
		flags["mentions_refund"][i] = textnorm.ContainsAny(cleanText[i], refundKeywords)
		flags["mentions_quality"][i] = textnorm.ContainsAny(cleanText[i], qualityKeywords)
		flags["mentions_service"][i] = textnorm.ContainsAny(cleanText[i], serviceKeywords)
		flags["mentions_not_received"][i] = textnorm.ContainsAny(cleanText[i], notReceivedKeywords)
		flags["mentions_delay"][i] = textnorm.ContainsAny(cleanText[i], delayKeywords)
	}

	ids := df.Select("review_id", "order_id", "review_score")
	defer ids.Release()

	flagNames := make([]string, 0, len(flags))
	for name := range flags {
		flagNames = append(flagNames, name)
	}
	sort.Strings(flagNames)

	cols := []dataframe.ISeries{
		series.New("clean_text", cleanText, nil),
		series.New("sentiment_label", sentiment, nil),
		flagColumn("is_pre_delivery", preDelivery),
	}
	for _, name := range flagNames {
		cols = append(cols, flagColumn(name, flags[name]))
	}
	cols = append(cols, series.New("issue_category", issue, nil))
	return ids.WithColumns(cols...)
}
