package internal

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/Hanaasagi/patlight/internal/highlight"
)

// LensSeparator joins titles of annotations anchored to the same line.
const LensSeparator = " | "

// ParseStyle parses both colours of a decoration style.
func ParseStyle(style highlight.Style) (fg, bg Color, err error) {
	if fg, err = ParseColor(style.Foreground); err != nil {
		return Color{}, Color{}, fmt.Errorf("highlight foreground: %w", err)
	}
	if bg, err = ParseColor(style.Background); err != nil {
		return Color{}, Color{}, fmt.Errorf("highlight background: %w", err)
	}
	return fg, bg, nil
}

// PrintOptions controls what a Printer writes.
type PrintOptions struct {
	Color       bool
	Annotations bool
}

// Printer is the static host: an editor over one document that writes it
// once, with decorations as ANSI colours and annotations as lens lines above
// the line they are anchored to.
type Printer struct {
	doc         *highlight.TextDocument
	styles      []highlight.Style
	decorations map[highlight.Style][]highlight.Decoration
	lensColor   *color.Color
}

// NewPrinter creates a printer for doc with no decorations.
func NewPrinter(doc *highlight.TextDocument) *Printer {
	return &Printer{
		doc:         doc,
		decorations: make(map[highlight.Style][]highlight.Decoration),
		lensColor:   color.New(color.Faint, color.Italic),
	}
}

func (p *Printer) Document() highlight.Document { return p.doc }

// SetDecorations replaces the ranges drawn with style.
func (p *Printer) SetDecorations(style highlight.Style, decorations []highlight.Decoration) {
	if len(decorations) == 0 {
		delete(p.decorations, style)
		p.styles = slices.DeleteFunc(p.styles, func(s highlight.Style) bool { return s == style })
		return
	}
	if _, ok := p.decorations[style]; !ok {
		p.styles = append(p.styles, style)
	}
	p.decorations[style] = decorations
}

// Decorations returns the ranges currently drawn with style.
func (p *Printer) Decorations(style highlight.Style) []highlight.Decoration {
	return p.decorations[style]
}

// marks returns, per line, the style index covering each rune (-1 for none).
func (p *Printer) marks(lines [][]rune) [][]int {
	marks := make([][]int, len(lines))
	for si, style := range p.styles {
		for _, d := range p.decorations[style] {
			for line := d.Range.Start.Line; line <= d.Range.End.Line && line < len(lines); line++ {
				start, end := 0, len(lines[line])
				if line == d.Range.Start.Line {
					start = d.Range.Start.Character
				}
				if line == d.Range.End.Line {
					end = min(d.Range.End.Character, end)
				}
				if start >= end {
					continue
				}
				if marks[line] == nil {
					marks[line] = make([]int, len(lines[line]))
					for i := range marks[line] {
						marks[line][i] = -1
					}
				}
				for i := start; i < end; i++ {
					marks[line][i] = si
				}
			}
		}
	}
	return marks
}

// Print writes the document. annotations are ignored unless
// opts.Annotations is set.
func (p *Printer) Print(w io.Writer, annotations []highlight.Annotation, opts PrintOptions) error {
	painters := make([]*color.Color, len(p.styles))
	for i, style := range p.styles {
		fg, bg, err := ParseStyle(style)
		if err != nil {
			slog.Warn("falling back to reverse video", "error", err)
			painters[i] = color.New(color.ReverseVideo)
		} else {
			painters[i] = Painter(fg, bg)
		}
		painters[i].EnableColor()
	}
	p.lensColor.EnableColor()

	lenses := make(map[int][]highlight.Annotation)
	if opts.Annotations {
		for _, a := range annotations {
			lenses[a.Range.Start.Line] = append(lenses[a.Range.Start.Line], a)
		}
	}

	text := p.doc.Lines()
	lines := make([][]rune, len(text))
	for i, line := range text {
		lines[i] = []rune(line)
	}
	marks := p.marks(lines)

	var sb strings.Builder
	for y, line := range lines {
		if lens, ok := lenses[y]; ok {
			p.writeLens(&sb, line, lens, opts.Color)
		}
		writeMarked(&sb, line, marks[y], painters, opts.Color)
		if y < len(lines)-1 {
			sb.WriteByte('\n')
		}
	}
	if len(lines) > 0 && len(lines[len(lines)-1]) > 0 {
		sb.WriteByte('\n')
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (p *Printer) writeLens(sb *strings.Builder, line []rune, lens []highlight.Annotation, colored bool) {
	col := len(line)
	for _, a := range lens {
		col = min(col, a.Range.Start.Character)
	}
	indent := strings.Repeat(" ", runewidth.StringWidth(string(line[:col])))

	titles := make([]string, len(lens))
	for i, a := range lens {
		titles[i] = a.Title
	}
	label := strings.Join(titles, LensSeparator)
	if colored {
		label = p.lensColor.Sprint(label)
	}
	sb.WriteString(indent)
	sb.WriteString(label)
	sb.WriteByte('\n')
}

func writeMarked(sb *strings.Builder, line []rune, marks []int, painters []*color.Color, colored bool) {
	if marks == nil || !colored {
		sb.WriteString(string(line))
		return
	}
	for start := 0; start < len(line); {
		end := start + 1
		for end < len(line) && marks[end] == marks[start] {
			end++
		}
		segment := string(line[start:end])
		if si := marks[start]; si >= 0 {
			segment = painters[si].Sprint(segment)
		}
		sb.WriteString(segment)
		start = end
	}
}

var _ highlight.Editor = (*Printer)(nil)
