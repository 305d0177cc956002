package highlight

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Position is a zero-based line and rune column.
type Position struct {
	Line      int
	Character int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character+1)
}

// Before reports whether p sorts before other.
func (p Position) Before(other Position) bool {
	return p.Line < other.Line || (p.Line == other.Line && p.Character < other.Character)
}

// Range is a half-open span of positions.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether pos lies inside r. Empty ranges contain their
// start position.
func (r Range) Contains(pos Position) bool {
	if r.Start == r.End {
		return pos == r.Start
	}
	return !pos.Before(r.Start) && pos.Before(r.End)
}

// Document is an immutable snapshot of an open document.
type Document interface {
	URI() string
	Text() string
	PositionAt(offset int) Position
}

// TextDocument is an in-memory Document. Lines end at '\n'; a preceding
// '\r' stays part of its line.
type TextDocument struct {
	uri        string
	text       string
	lineStarts []int // rune offset of each line start
	runeCount  int
}

// NewTextDocument snapshots text.
func NewTextDocument(uri, text string) *TextDocument {
	starts := []int{0}
	n := 0
	for _, r := range text {
		n++
		if r == '\n' {
			starts = append(starts, n)
		}
	}
	return &TextDocument{
		uri:        uri,
		text:       text,
		lineStarts: starts,
		runeCount:  n,
	}
}

func (d *TextDocument) URI() string  { return d.uri }
func (d *TextDocument) Text() string { return d.text }

// PositionAt converts a rune offset, clamping it into the document.
func (d *TextDocument) PositionAt(offset int) Position {
	offset = max(0, min(offset, d.runeCount))
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	return Position{Line: line, Character: offset - d.lineStarts[line]}
}

// OffsetAt converts a position back into a rune offset.
func (d *TextDocument) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return d.runeCount
	}
	start := d.lineStarts[pos.Line]
	end := d.runeCount
	if pos.Line+1 < len(d.lineStarts) {
		end = d.lineStarts[pos.Line+1] - 1
	}
	return max(start, min(start+pos.Character, end))
}

// LineCount returns the number of lines; a trailing newline opens an empty
// last line.
func (d *TextDocument) LineCount() int {
	return len(d.lineStarts)
}

// Lines splits the snapshot into lines without their '\n'.
func (d *TextDocument) Lines() []string {
	return strings.Split(d.text, "\n")
}

// RuneCount returns the length of the snapshot in runes.
func (d *TextDocument) RuneCount() int {
	return d.runeCount
}

// Equal reports whether both snapshots have the same URI and text.
func (d *TextDocument) Equal(other Document) bool {
	return other != nil && d.uri == other.URI() && d.text == other.Text()
}

var _ Document = (*TextDocument)(nil)

// NewTextDocumentFromBytes snapshots data, rejecting invalid UTF-8.
func NewTextDocumentFromBytes(uri string, data []byte) (*TextDocument, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", uri)
	}
	return NewTextDocument(uri, string(data)), nil
}
