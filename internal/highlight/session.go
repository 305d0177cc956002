// Package highlight owns the selection state and feeds match records to the
// decoration and annotation adapters.
package highlight

import (
	"fmt"
	"log/slog"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// Rerender scans text for the current selection. It is the single pipeline
// behind every trigger.
func Rerender(scanner *patternmatch.Scanner, selection Selection, settings config.Settings, text string) patternmatch.ScanResult {
	if selection.Empty() {
		return patternmatch.ScanResult{}
	}
	return scanner.Scan(text, selection.ActiveSets, isolationFor(selection, settings))
}

func isolationFor(selection Selection, settings config.Settings) *patternmatch.IsolationBoundary {
	if !selection.Isolated {
		return nil
	}
	boundary := settings.Isolation
	return &boundary
}

// StyleFor builds the decoration style from settings.
func StyleFor(settings config.Settings) Style {
	return Style{
		Background: settings.HighlightBackground,
		Foreground: settings.HighlightForeground,
	}
}

// Session wires the selection state, configuration and loaded sets to the
// focused editor. Methods must be called from the host's event loop.
type Session struct {
	sets        []patternmatch.PatternSet
	settings    config.Settings
	selection   Selection
	phase       Phase
	scanner     *patternmatch.Scanner
	editor      Editor
	decorations *DecorationAdapter
	annotations *AnnotationProvider
	diagnostics func(error)
	last        patternmatch.ScanResult
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithDiagnostics receives the joined diagnostics of each scan that had any.
func WithDiagnostics(fn func(error)) SessionOption {
	return func(s *Session) {
		s.diagnostics = fn
	}
}

// NewSession starts idle with sets loaded and settings applied.
func NewSession(sets []patternmatch.PatternSet, settings config.Settings, opts ...SessionOption) *Session {
	scanner := newScanner(settings)
	s := &Session{
		sets:        sets,
		settings:    settings,
		scanner:     scanner,
		decorations: NewDecorationAdapter(StyleFor(settings)),
		annotations: NewAnnotationProvider(scanner),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newScanner(settings config.Settings) *patternmatch.Scanner {
	return patternmatch.NewScanner(patternmatch.WithMatchTimeout(settings.ScanTimeout))
}

func (s *Session) Selection() Selection                       { return s.selection }
func (s *Session) Phase() Phase                               { return s.phase }
func (s *Session) Settings() config.Settings                  { return s.settings }
func (s *Session) Sets() []patternmatch.PatternSet            { return s.sets }
func (s *Session) Annotations() *AnnotationProvider           { return s.annotations }
func (s *Session) Style() Style                               { return s.decorations.Style() }
func (s *Session) LastScan() patternmatch.ScanResult          { return s.last }
func (s *Session) Editor() Editor                             { return s.editor }
func (s *Session) Isolation() *patternmatch.IsolationBoundary { return isolationFor(s.selection, s.settings) }

// RunHighlightCommand asks for a set and an isolation mode and applies them.
// It reports whether a re-render happened.
func (s *Session) RunHighlightCommand(p Prompter) (bool, error) {
	choice, ok, err := p.PickSet(Options(s.sets))
	if err != nil {
		return false, fmt.Errorf("picking pattern set: %w", err)
	}
	if !ok {
		slog.Debug("set selection cancelled")
		return false, nil
	}

	if choice == OptionClear {
		s.Clear()
		return true, nil
	}

	prev := s.phase
	s.phase = PhaseSetChosen
	active := ResolveChoice(choice, s.sets)

	isolated, ok, err := p.PickIsolation()
	if err != nil {
		s.phase = prev
		return false, fmt.Errorf("picking isolation mode: %w", err)
	}
	if !ok {
		slog.Debug("isolation selection cancelled", "choice", choice)
		s.phase = prev
		return false, nil
	}

	return s.apply(Selection{Choice: choice, ActiveSets: active, Isolated: isolated}), nil
}

// Select applies a choice without prompting, as the highlight command would.
// OptionClear clears. It reports whether a re-render happened.
func (s *Session) Select(choice string, isolated bool) bool {
	if choice == OptionClear {
		s.Clear()
		return true
	}
	return s.apply(Selection{Choice: choice, ActiveSets: ResolveChoice(choice, s.sets), Isolated: isolated})
}

func (s *Session) apply(next Selection) bool {
	s.phase = PhaseIsolationChosen
	if next.Equal(s.selection) {
		s.selection.Choice = next.Choice
		slog.Debug("selection unchanged, skipping render", "choice", next.Choice)
		return false
	}
	s.selection = next
	slog.Info("selection changed", "choice", next.Choice, "sets", len(next.ActiveSets), "isolated", next.Isolated)
	s.refresh()
	return true
}

// Clear drops every active set and renders the empty result.
func (s *Session) Clear() {
	s.selection = Selection{}
	s.phase = PhaseIdle
	slog.Info("highlights cleared")
	s.refresh()
}

// FocusChanged makes editor the rendering target; nil means no editor.
func (s *Session) FocusChanged(editor Editor) {
	s.editor = editor
	if editor != nil {
		s.refresh()
	}
}

// DocumentChanged re-renders when doc is the focused document.
func (s *Session) DocumentChanged(doc Document) {
	if s.editor == nil || doc == nil || s.editor.Document().URI() != doc.URI() {
		return
	}
	s.refresh()
}

// ConfigChanged applies new settings and reloaded sets. The current choice
// is resolved again against sets.
func (s *Session) ConfigChanged(settings config.Settings, sets []patternmatch.PatternSet) {
	if settings.ScanTimeout != s.settings.ScanTimeout {
		s.scanner = newScanner(settings)
	}
	s.decorations.Restyle(s.editor, StyleFor(settings))
	s.settings = settings
	s.sets = sets
	if s.selection.Choice != "" {
		s.selection.ActiveSets = ResolveChoice(s.selection.Choice, sets)
	}
	slog.Info("configuration reloaded", "sets", len(sets))
	s.refresh()
}

// Refresh re-renders the focused editor.
func (s *Session) Refresh() {
	s.refresh()
}

func (s *Session) refresh() {
	isolation := s.Isolation()
	s.annotations.SetPatternSets(s.selection.ActiveSets, isolation, s.scanner)
	if s.editor == nil {
		s.last = patternmatch.ScanResult{}
		return
	}

	doc := s.editor.Document()
	result := Rerender(s.scanner, s.selection, s.settings, doc.Text())
	s.last = result
	s.report(result)

	s.decorations.Render(s.editor, result.Records)
	s.annotations.Publish(doc, result.Records)
}

func (s *Session) report(result patternmatch.ScanResult) {
	err := result.Err()
	if err == nil {
		return
	}
	slog.Warn("scan reported diagnostics", "count", len(result.Diagnostics), "error", err)
	if s.diagnostics != nil {
		s.diagnostics(err)
	}
}
