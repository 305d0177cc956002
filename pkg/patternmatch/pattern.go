// Package patternmatch turns pattern sets into match ranges over a text
// snapshot. It is pure: scanning never mutates its inputs and identical
// inputs always produce identical output.
package patternmatch

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// SourceKind tells how a pattern source is spliced into an expression.
type SourceKind int

const (
	// Literal sources are matched verbatim.
	Literal SourceKind = iota
	// Regex sources are spliced in as raw expression text.
	Regex
)

func (k SourceKind) String() string {
	if k == Regex {
		return "regex"
	}
	return "literal"
}

// Source is the matchable part of a pattern, resolved once at load time.
type Source struct {
	Kind SourceKind
	Text string
}

// LiteralSource returns a source matching text verbatim.
func LiteralSource(text string) Source {
	return Source{Kind: Literal, Text: text}
}

// RegexSource returns a source whose text is a regular expression.
func RegexSource(expr string) Source {
	return Source{Kind: Regex, Text: expr}
}

// ParseSource reads the notation used in pattern files: a string written as
// a regex literal (/body/flags) becomes a Regex source with its flags
// dropped, anything else is a Literal.
func ParseSource(s string) Source {
	if len(s) >= 2 && s[0] == '/' {
		end := strings.LastIndexByte(s, '/')
		if end > 0 && validFlags(s[end+1:]) {
			return RegexSource(s[1:end])
		}
	}
	return LiteralSource(s)
}

func validFlags(flags string) bool {
	for _, r := range flags {
		if !strings.ContainsRune("dgimsuvy", r) {
			return false
		}
	}
	return true
}

// expression returns the fragment spliced at the pattern position.
func (s Source) expression() string {
	if s.Kind == Regex {
		return s.Text
	}
	return regexp2.Escape(s.Text)
}

// String renders the source in file notation.
func (s Source) String() string {
	if s.Kind == Regex {
		return "/" + s.Text + "/"
	}
	return s.Text
}

// Pattern is a single matcher with a human readable description.
type Pattern struct {
	Source      Source
	Description string
}

// PatternSet is a named, ordered group of patterns sharing an optional
// prefix and postfix expression fragment.
type PatternSet struct {
	Name     string
	Prefix   string
	Postfix  string
	Patterns []Pattern
}

// Equal reports structural equality.
func (s PatternSet) Equal(other PatternSet) bool {
	if s.Name != other.Name || s.Prefix != other.Prefix || s.Postfix != other.Postfix {
		return false
	}
	if len(s.Patterns) != len(other.Patterns) {
		return false
	}
	for i := range s.Patterns {
		if s.Patterns[i] != other.Patterns[i] {
			return false
		}
	}
	return true
}

func (s PatternSet) String() string {
	return fmt.Sprintf("PatternSet{name:%s,patterns:%d}", s.Name, len(s.Patterns))
}

// IsolationBoundary holds the global lookbehind/lookahead fragments that
// require a match to be flanked by separators.
type IsolationBoundary struct {
	Prefix  string
	Postfix string
}

const (
	// DefaultIsolationPrefix accepts start of text, a line break, tab, space,
	// a quote or an opening bracket before the match.
	DefaultIsolationPrefix = `(?<=^|[\t\r\n "'` + "`" + `(\[{<])`
	// DefaultIsolationPostfix accepts end of text, a line break, tab, space,
	// a quote or a closing bracket after the match.
	DefaultIsolationPostfix = `(?=$|[\t\r\n "'` + "`" + `)\]}>])`
)

// DefaultIsolation returns the built-in boundary.
func DefaultIsolation() IsolationBoundary {
	return IsolationBoundary{
		Prefix:  DefaultIsolationPrefix,
		Postfix: DefaultIsolationPostfix,
	}
}

// MatchRecord is one located occurrence of a pattern. Offsets count runes
// of the scanned text; End is exclusive.
type MatchRecord struct {
	Start            int
	End              int
	Description      string
	SetName          string
	SourceExpression string
}

// Len returns the number of runes covered by the match.
func (m MatchRecord) Len() int {
	return m.End - m.Start
}

func (m MatchRecord) String() string {
	return fmt.Sprintf("Match{start:%d,end:%d,set:%s,desc:%s}", m.Start, m.End, m.SetName, m.Description)
}
