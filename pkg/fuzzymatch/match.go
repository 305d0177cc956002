// Package fuzzymatch ranks short option lists against a typed query.
package fuzzymatch

import (
	"sort"
	"strings"
	"unicode"
)

// Candidate is an option that matched the query.
type Candidate struct {
	Text     string
	Score    int
	Indices  []int // rune positions of matched characters
	Original int   // index in the input slice
}

// Matcher scores options by subsequence matching.
type Matcher struct {
	caseSensitive bool
}

// NewMatcher creates a matcher.
func NewMatcher(caseSensitive bool) *Matcher {
	return &Matcher{caseSensitive: caseSensitive}
}

// Filter returns the options containing query as a subsequence, best first.
// Equal scores keep input order. An empty query keeps every option.
func (m *Matcher) Filter(query string, options []string) []Candidate {
	results := make([]Candidate, 0, len(options))
	for i, option := range options {
		if c, ok := m.score(query, option); ok {
			c.Original = i
			results = append(results, c)
		}
	}

	if query != "" {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	}
	return results
}

func (m *Matcher) score(query, option string) (Candidate, bool) {
	c := Candidate{Text: option, Indices: []int{}}
	if query == "" {
		return c, true
	}

	q, o := query, option
	if !m.caseSensitive {
		q, o = strings.ToLower(q), strings.ToLower(o)
	}
	queryRunes := []rune(q)
	optionRunes := []rune(o)
	original := []rune(option)

	qi := 0
	for i, r := range optionRunes {
		if qi == len(queryRunes) {
			break
		}
		if r != queryRunes[qi] {
			continue
		}

		switch {
		case qi == 0 && i == 0:
			c.Score += 100
		case qi == 0:
			c.Score += 50
		case c.Indices[len(c.Indices)-1] == i-1:
			c.Score += 50
		default:
			c.Score += 20
		}
		c.Score += boundaryBonus(original, i)
		c.Indices = append(c.Indices, i)
		qi++
	}

	if qi < len(queryRunes) {
		return Candidate{}, false
	}

	// shorter options rank higher
	c.Score += (1000 - len(optionRunes)) / 10
	return c, true
}

func boundaryBonus(runes []rune, i int) int {
	if i == 0 {
		return 10
	}
	if i >= len(runes) {
		return 0
	}
	prev := runes[i-1]
	switch {
	case unicode.IsSpace(prev) || prev == '-' || prev == '_' || prev == '/' || prev == '.':
		return 15
	case unicode.IsLower(prev) && unicode.IsUpper(runes[i]):
		return 10
	}
	return 0
}

// Highlight wraps every run of matched characters with mark.
func Highlight(c Candidate, mark func(string) string) string {
	if len(c.Indices) == 0 {
		return c.Text
	}

	matched := make(map[int]bool, len(c.Indices))
	for _, idx := range c.Indices {
		matched[idx] = true
	}

	var sb, run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			sb.WriteString(mark(run.String()))
			run.Reset()
		}
	}
	for i, r := range []rune(c.Text) {
		if matched[i] {
			run.WriteRune(r)
			continue
		}
		flush()
		sb.WriteRune(r)
	}
	flush()
	return sb.String()
}
