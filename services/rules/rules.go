// Package rules implements the tagged-rule evaluator shared by the
// classification stages. Each classifier's lexicon is a Set of (pattern,
// tag, weight) entries, so scan loops are not duplicated per component and
// the tables stay testable as data.
package rules

import (
	"regexp"
	"strings"
)

// Rule is one lexicon entry. Literal rules match as lowercase substrings;
// regex rules match against the lowercased message.
type Rule struct {
	Pattern string
	Tag     string
	Weight  float64

	re *regexp.Regexp
}

// Literal creates a substring rule.
func Literal(pattern, tag string, weight float64) Rule {
	return Rule{Pattern: strings.ToLower(pattern), Tag: tag, Weight: weight}
}

// Regex creates a regular-expression rule. The pattern must compile.
func Regex(pattern, tag string, weight float64) Rule {
	return Rule{Pattern: pattern, Tag: tag, Weight: weight, re: regexp.MustCompile(pattern)}
}

// Match records a rule that fired.
type Match struct {
	Tag     string
	Pattern string
	Weight  float64
}

// Set is an ordered rule collection.
type Set []Rule

func (r Rule) matches(lower string) bool {
	if r.re != nil {
		return r.re.MatchString(lower)
	}
	return strings.Contains(lower, r.Pattern)
}

// MatchAll returns every rule that fires on the text, in set order.
func (s Set) MatchAll(text string) []Match {
	lower := strings.ToLower(text)
	var out []Match
	for _, r := range s {
		if r.matches(lower) {
			out = append(out, Match{Tag: r.Tag, Pattern: r.Pattern, Weight: r.Weight})
		}
	}
	return out
}

// Score sums the weights of all firing rules and returns the matches.
func (s Set) Score(text string) (float64, []Match) {
	matches := s.MatchAll(text)
	var total float64
	for _, m := range matches {
		total += m.Weight
	}
	return total, matches
}

// First returns the first rule that fires, for first-match-wins cascades.
func (s Set) First(text string) (Match, bool) {
	lower := strings.ToLower(text)
	for _, r := range s {
		if r.matches(lower) {
			return Match{Tag: r.Tag, Pattern: r.Pattern, Weight: r.Weight}, true
		}
	}
	return Match{}, false
}

// Tags returns the distinct tags of all firing rules, in first-seen order.
func (s Set) Tags(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range s.MatchAll(text) {
		if !seen[m.Tag] {
			seen[m.Tag] = true
			out = append(out, m.Tag)
		}
	}
	return out
}

// Keywords builds a Set of literal rules sharing one tag and weight.
func Keywords(tag string, weight float64, words ...string) Set {
	out := make(Set, 0, len(words))
	for _, w := range words {
		out = append(out, Literal(w, tag, weight))
	}
	return out
}

// ContainsAny reports whether any of the keywords occurs in the text.
func ContainsAny(text string, words ...string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
