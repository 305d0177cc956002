package highlight

import (
	"sync"

	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// TooltipPrefix starts every annotation tooltip.
const TooltipPrefix = "Matched pattern: "

// Style is the visual treatment of highlighted ranges.
type Style struct {
	Background string
	Foreground string
}

// Decoration is a highlighted range with its hover text.
type Decoration struct {
	Range        Range
	HoverMessage string
}

// Annotation is an inline label anchored to a range.
type Annotation struct {
	Range   Range
	Title   string
	Tooltip string
}

// Editor is a host view showing one document.
type Editor interface {
	Document() Document
	// SetDecorations replaces every range previously set for style.
	SetDecorations(style Style, decorations []Decoration)
}

func recordRange(doc Document, r patternmatch.MatchRecord) Range {
	return Range{Start: doc.PositionAt(r.Start), End: doc.PositionAt(r.End)}
}

// Decorate maps records to decorations whose hover text is the description.
func Decorate(doc Document, records []patternmatch.MatchRecord) []Decoration {
	decorations := make([]Decoration, 0, len(records))
	for _, r := range records {
		decorations = append(decorations, Decoration{
			Range:        recordRange(doc, r),
			HoverMessage: r.Description,
		})
	}
	return decorations
}

// Annotate maps records to annotations titled with the description.
func Annotate(doc Document, records []patternmatch.MatchRecord) []Annotation {
	annotations := make([]Annotation, 0, len(records))
	for _, r := range records {
		annotations = append(annotations, Annotation{
			Range:   recordRange(doc, r),
			Title:   r.Description,
			Tooltip: TooltipPrefix + r.SourceExpression,
		})
	}
	return annotations
}

// DecorationAdapter pushes decorations to an editor, always as a full
// replacement for the current style.
type DecorationAdapter struct {
	style Style
}

// NewDecorationAdapter creates an adapter drawing with style.
func NewDecorationAdapter(style Style) *DecorationAdapter {
	return &DecorationAdapter{style: style}
}

// Style returns the current style.
func (a *DecorationAdapter) Style() Style {
	return a.style
}

// Render replaces the decorations of editor with records.
func (a *DecorationAdapter) Render(editor Editor, records []patternmatch.MatchRecord) {
	editor.SetDecorations(a.style, Decorate(editor.Document(), records))
}

// Restyle switches to style, clearing ranges drawn with the previous one.
func (a *DecorationAdapter) Restyle(editor Editor, style Style) {
	if style == a.style {
		return
	}
	if editor != nil {
		editor.SetDecorations(a.style, nil)
	}
	a.style = style
}

// AnnotationProvider answers annotation requests for documents and tells the
// host, through Changes, when it should ask again.
type AnnotationProvider struct {
	mutex     sync.Mutex
	scanner   *patternmatch.Scanner
	sets      []patternmatch.PatternSet
	isolation *patternmatch.IsolationBoundary
	published *publication
	changes   chan struct{}
}

type publication struct {
	uri     string
	text    string
	records []patternmatch.MatchRecord
}

// NewAnnotationProvider creates a provider with no active sets.
func NewAnnotationProvider(scanner *patternmatch.Scanner) *AnnotationProvider {
	if scanner == nil {
		scanner = patternmatch.NewScanner()
	}
	return &AnnotationProvider{
		scanner: scanner,
		changes: make(chan struct{}, 1),
	}
}

// Changes delivers a value whenever annotations may have changed. Pending
// notifications coalesce.
func (p *AnnotationProvider) Changes() <-chan struct{} {
	return p.changes
}

func (p *AnnotationProvider) notify() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

// SetPatternSets replaces the sets used for documents without a published
// scan and notifies the host.
func (p *AnnotationProvider) SetPatternSets(sets []patternmatch.PatternSet, isolation *patternmatch.IsolationBoundary, scanner *patternmatch.Scanner) {
	p.mutex.Lock()
	p.sets = sets
	p.isolation = isolation
	if scanner != nil {
		p.scanner = scanner
	}
	p.published = nil
	p.mutex.Unlock()
	p.notify()
}

// Publish records the complete annotation set for one document snapshot and
// notifies the host.
func (p *AnnotationProvider) Publish(doc Document, records []patternmatch.MatchRecord) {
	p.mutex.Lock()
	p.published = &publication{uri: doc.URI(), text: doc.Text(), records: records}
	p.mutex.Unlock()
	p.notify()
}

// ProvideAnnotations returns the annotations for doc, reusing the published
// scan when it was taken from the same snapshot.
func (p *AnnotationProvider) ProvideAnnotations(doc Document) []Annotation {
	p.mutex.Lock()
	pub := p.published
	sets, isolation, scanner := p.sets, p.isolation, p.scanner
	p.mutex.Unlock()

	if pub != nil && pub.uri == doc.URI() && pub.text == doc.Text() {
		return Annotate(doc, pub.records)
	}
	if len(sets) == 0 {
		return []Annotation{}
	}
	return Annotate(doc, scanner.Scan(doc.Text(), sets, isolation).Records)
}
