// Package rules evaluates ordered classification rules.
package rules

// Rule labels a value when its predicate holds.
type Rule[T any] struct {
	Label string
	Match func(T) bool
}

// Set is an ordered rule list. The first matching rule wins and Default
// labels values no rule matches.
type Set[T any] struct {
	Rules   []Rule[T]
	Default string
}

// Classify returns the label of the first rule matching v.
func (s Set[T]) Classify(v T) string {
	for _, r := range s.Rules {
		if r.Match(v) {
			return r.Label
		}
	}
	return s.Default
}

// Labels lists every label the set can produce, in precedence order.
func (s Set[T]) Labels() []string {
	out := make([]string, 0, len(s.Rules)+1)
	for _, r := range s.Rules {
		out = append(out, r.Label)
	}
	return append(out, s.Default)
}
