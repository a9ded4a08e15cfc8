package features

import (
	"strings"
	"unicode/utf8"

	"github.com/paveg/reviewrisk/internal/textnorm"
)

// Lexicon scores accent-free, lowercase Portuguese words.
var Lexicon = map[string]float64{
	"otimo": 1, "bom": 1, "excelente": 1, "boa": 1, "adorei": 1, "gostei": 1,
	"recomendo": 1, "rapido": 1, "perfeito": 1, "lindo": 1, "parabens": 1,
	"chegou": 0.5, "antes": 0.5, "certo": 0.5, "bem": 0.5,

	"ruim": -1, "pessimo": -1, "horrivel": -1, "demora": -1, "atraso": -1,
	"atrasou": -1, "nunca": -1, "nao": -0.5, "defeito": -1, "quebrado": -1,
	"errado": -1, "triste": -1, "aguardando": -0.5, "diferente": -0.5,
}

// SentimentScore averages the lexicon weight of the recognized
// whitespace-separated words of text, clipped to [-1, 1]. Text without a
// recognized word scores 0.
func SentimentScore(text string) float64 {
	var sum float64
	found := 0
	for _, w := range strings.Fields(textnorm.Normalize(text)) {
		if s, ok := Lexicon[w]; ok {
			sum += s
			found++
		}
	}
	if found == 0 {
		return 0
	}
	return min(1, max(-1, sum/float64(found)))
}

// ReviewText joins a review title and message the way the scorer reads them.
func ReviewText(title, message string) string {
	return strings.TrimSpace(title + " " + message)
}

// ReviewLength counts the characters of the joined review text.
func ReviewLength(title, message string) int64 {
	return int64(utf8.RuneCountInString(ReviewText(title, message)))
}
