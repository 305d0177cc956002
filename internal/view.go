package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/pkg/clipboard"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// Pane is one file open in the viewer. It is the editor the session draws
// into while the pane has focus.
type Pane struct {
	path        string
	doc         *highlight.TextDocument
	decorations map[highlight.Style][]highlight.Decoration
	cursor      highlight.Position
	top         int // first visible document line
}

// OpenPane reads path into a new pane.
func OpenPane(path string) (*Pane, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	p := &Pane{path: abs, decorations: make(map[highlight.Style][]highlight.Decoration)}
	if _, err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewPane wraps an in-memory document.
func NewPane(path string, doc *highlight.TextDocument) *Pane {
	return &Pane{path: path, doc: doc, decorations: make(map[highlight.Style][]highlight.Decoration)}
}

func (p *Pane) Path() string                  { return p.path }
func (p *Pane) Document() highlight.Document  { return p.doc }
func (p *Pane) Cursor() highlight.Position    { return p.cursor }
func (p *Pane) Text() *highlight.TextDocument { return p.doc }

// SetDecorations replaces the ranges drawn with style.
func (p *Pane) SetDecorations(style highlight.Style, decorations []highlight.Decoration) {
	if len(decorations) == 0 {
		delete(p.decorations, style)
		return
	}
	p.decorations[style] = decorations
}

// Reload rereads the file and reports whether its text changed.
func (p *Pane) Reload() (bool, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", p.path, err)
	}
	doc, err := highlight.NewTextDocumentFromBytes("file://"+filepath.ToSlash(p.path), data)
	if err != nil {
		return false, err
	}
	if p.doc != nil && p.doc.Equal(doc) {
		return false, nil
	}
	p.doc = doc
	p.clampCursor()
	return true, nil
}

func (p *Pane) clampCursor() {
	lines := p.doc.LineCount()
	p.cursor.Line = max(min(p.cursor.Line, lines-1), 0)
	p.cursor = p.doc.PositionAt(p.doc.OffsetAt(p.cursor))
	p.top = max(min(p.top, lines-1), 0)
}

// hover returns the decoration under the cursor.
func (p *Pane) hover() (highlight.Decoration, bool) {
	for _, decorations := range p.decorations {
		for _, d := range decorations {
			if d.Range.Contains(p.cursor) {
				return d, true
			}
		}
	}
	return highlight.Decoration{}, false
}

// ConfigReloader reads configuration and pattern sets again after one of the
// watched configuration files changed.
type ConfigReloader func() (config.Settings, []patternmatch.PatternSet, error)

// ViewerOptions wires a viewer to its collaborators.
type ViewerOptions struct {
	// Prompter answers the highlight command. When nil the terminal quick
	// pick is opened on demand.
	Prompter highlight.Prompter
	// Reload is called when a path in ConfigFiles changes.
	Reload      ConfigReloader
	ConfigFiles []string
	// Clipboard receives yanked matches. When nil the system clipboard is
	// used.
	Clipboard Copier
}

// Copier takes text yanked from the viewer.
type Copier interface {
	Copy(text string) error
}

type fileChanged struct{ path string }

type quitSignal struct{}

// Viewer is the interactive host: it shows one pane at a time with its
// decorations and annotation lenses and runs the highlight command.
type Viewer struct {
	screen      tcell.Screen
	session     *highlight.Session
	panes       []*Pane
	focus       int
	opts        ViewerOptions
	configFiles map[string]struct{}

	lenses     []highlight.Annotation
	styles     map[highlight.Style]tcell.Style
	diagnostic string
	message    string
}

// NewViewer creates a viewer over panes. The first pane gets focus.
func NewViewer(screen tcell.Screen, panes []*Pane, sets []patternmatch.PatternSet, settings config.Settings, opts ViewerOptions) *Viewer {
	v := &Viewer{
		screen:      screen,
		panes:       panes,
		opts:        opts,
		configFiles: make(map[string]struct{}, len(opts.ConfigFiles)),
		styles:      make(map[highlight.Style]tcell.Style),
	}
	for _, path := range opts.ConfigFiles {
		if abs, err := filepath.Abs(path); err == nil {
			v.configFiles[abs] = struct{}{}
		}
	}
	v.session = highlight.NewSession(sets, settings, highlight.WithDiagnostics(v.reportDiagnostic))
	if len(panes) > 0 {
		v.session.FocusChanged(panes[0])
	}
	return v
}

// Session exposes the highlight session driving the viewer.
func (v *Viewer) Session() *highlight.Session { return v.session }

// Focused returns the pane with focus.
func (v *Viewer) Focused() *Pane {
	if len(v.panes) == 0 {
		return nil
	}
	return v.panes[v.focus]
}

func (v *Viewer) reportDiagnostic(err error) {
	v.diagnostic = strings.ReplaceAll(err.Error(), "\n", "; ")
}

// FileChanged queues a change notification for path. Safe to call from any
// goroutine.
func (v *Viewer) FileChanged(path string) {
	_ = v.screen.PostEvent(tcell.NewEventInterrupt(fileChanged{path: path}))
}

// Run draws the viewer and handles events until the user quits or ctx is
// cancelled. The screen must already be initialised.
func (v *Viewer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = v.screen.PostEvent(tcell.NewEventInterrupt(quitSignal{}))
	}()

	v.Draw()
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if v.HandleEvent(ev) {
			return nil
		}
		v.Draw()
	}
}

// HandleEvent applies one event and reports whether the viewer should exit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventInterrupt:
		switch data := ev.Data().(type) {
		case quitSignal:
			return true
		case fileChanged:
			v.handleFileChanged(data.path)
		}
	case *tcell.EventError:
		slog.Error("screen error", "error", ev.Error())
		return true
	}
	return false
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	pane := v.Focused()
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyTab:
		v.switchFocus(1)
	case tcell.KeyBacktab:
		v.switchFocus(-1)
	case tcell.KeyUp:
		v.moveCursor(pane, -1, 0)
	case tcell.KeyDown:
		v.moveCursor(pane, 1, 0)
	case tcell.KeyLeft:
		v.moveCursor(pane, 0, -1)
	case tcell.KeyRight:
		v.moveCursor(pane, 0, 1)
	case tcell.KeyPgUp:
		v.moveCursor(pane, -v.textHeight(), 0)
	case tcell.KeyPgDn:
		v.moveCursor(pane, v.textHeight(), 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return true
		case 'h':
			v.runHighlightCommand()
		case 'c':
			v.session.Select(highlight.OptionClear, false)
			v.message = "highlights cleared"
		case 'k':
			v.moveCursor(pane, -1, 0)
		case 'j':
			v.moveCursor(pane, 1, 0)
		case 'n':
			v.jumpToMatch(pane, true)
		case 'N':
			v.jumpToMatch(pane, false)
		case 'y':
			v.yankMatch(pane)
		}
	}
	return false
}

func (v *Viewer) switchFocus(delta int) {
	if len(v.panes) < 2 {
		return
	}
	v.focus = (v.focus + delta + len(v.panes)) % len(v.panes)
	slog.Debug("focus changed", "path", v.Focused().path)
	v.session.FocusChanged(v.Focused())
}

func (v *Viewer) moveCursor(pane *Pane, lines, chars int) {
	if pane == nil {
		return
	}
	pane.cursor.Line += lines
	pane.cursor.Character = max(pane.cursor.Character+chars, 0)
	pane.clampCursor()
}

// jumpToMatch moves the cursor to the next or previous decorated range.
func (v *Viewer) jumpToMatch(pane *Pane, forward bool) {
	if pane == nil {
		return
	}
	var starts []highlight.Position
	for _, decorations := range pane.decorations {
		for _, d := range decorations {
			starts = append(starts, d.Range.Start)
		}
	}
	if len(starts) == 0 {
		return
	}
	slices.SortFunc(starts, func(a, b highlight.Position) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})

	target := starts[0]
	if forward {
		for _, s := range starts {
			if pane.cursor.Before(s) {
				target = s
				break
			}
		}
	} else {
		target = starts[len(starts)-1]
		for i := len(starts) - 1; i >= 0; i-- {
			if starts[i].Before(pane.cursor) {
				target = starts[i]
				break
			}
		}
	}
	pane.cursor = target
}

// yankMatch copies the text of the match under the cursor.
func (v *Viewer) yankMatch(pane *Pane) {
	if pane == nil {
		return
	}
	d, ok := pane.hover()
	if !ok {
		v.message = "no match under cursor"
		return
	}
	runes := []rune(pane.doc.Text())
	text := string(runes[pane.doc.OffsetAt(d.Range.Start):pane.doc.OffsetAt(d.Range.End)])

	copier := v.opts.Clipboard
	if copier == nil {
		copier = clipboard.New()
	}
	if err := copier.Copy(text); err != nil {
		slog.Error("failed to copy match", "error", err)
		v.message = err.Error()
		return
	}
	v.message = fmt.Sprintf("copied %q", text)
}

func (v *Viewer) prompter() (highlight.Prompter, func(), error) {
	if v.opts.Prompter != nil {
		return v.opts.Prompter, func() {}, nil
	}
	qp, err := NewQuickPick()
	if err != nil {
		return nil, nil, err
	}
	return qp, func() { _ = qp.Close() }, nil
}

// runHighlightCommand hands the terminal to the quick pick and applies the
// choice.
func (v *Viewer) runHighlightCommand() {
	if err := v.screen.Suspend(); err != nil {
		slog.Error("failed to suspend screen", "error", err)
		return
	}
	rendered, err := func() (bool, error) {
		p, done, err := v.prompter()
		if err != nil {
			return false, err
		}
		defer done()
		return v.session.RunHighlightCommand(p)
	}()
	if rerr := v.screen.Resume(); rerr != nil {
		slog.Error("failed to resume screen", "error", rerr)
	}

	switch {
	case err != nil:
		slog.Error("highlight command failed", "error", err)
		v.message = err.Error()
	case rendered:
		v.message = describeSelection(v.session.Selection())
	default:
		v.message = ""
	}
}

func describeSelection(s highlight.Selection) string {
	if s.Empty() {
		return "no highlights"
	}
	mode := highlight.IsolationAnywhere
	if s.Isolated {
		mode = highlight.IsolationSeparated
	}
	return fmt.Sprintf("%s (%s)", s.Choice, strings.ToLower(mode))
}

func (v *Viewer) handleFileChanged(path string) {
	if _, ok := v.configFiles[path]; ok && v.opts.Reload != nil {
		settings, sets, err := v.opts.Reload()
		if err != nil {
			slog.Error("failed to reload configuration", "path", path, "error", err)
			v.message = err.Error()
		} else {
			v.styles = make(map[highlight.Style]tcell.Style)
			v.session.ConfigChanged(settings, sets)
			v.message = "configuration reloaded"
		}
	}

	for _, pane := range v.panes {
		if pane.path != path {
			continue
		}
		changed, err := pane.Reload()
		if err != nil {
			slog.Error("failed to reload document", "path", path, "error", err)
			v.message = err.Error()
			continue
		}
		if changed {
			v.session.DocumentChanged(pane.Document())
		}
	}
}

func (v *Viewer) textHeight() int {
	_, height := v.screen.Size()
	return max(height-1, 1)
}

func (v *Viewer) tcellStyle(style highlight.Style) tcell.Style {
	if s, ok := v.styles[style]; ok {
		return s
	}
	s := tcell.StyleDefault.Reverse(true)
	if fg, bg, err := ParseStyle(style); err != nil {
		slog.Warn("falling back to reverse video", "error", err)
	} else {
		s = tcell.StyleDefault.Foreground(fg.Tcell()).Background(bg.Tcell())
	}
	v.styles[style] = s
	return s
}

// refreshLenses asks for annotations again when the provider has signalled
// a change.
func (v *Viewer) refreshLenses(pane *Pane) {
	select {
	case <-v.session.Annotations().Changes():
		v.lenses = v.session.Annotations().ProvideAnnotations(pane.Document())
	default:
	}
}

// Draw renders the focused pane and the status bar.
func (v *Viewer) Draw() {
	v.screen.Clear()
	width, _ := v.screen.Size()
	height := v.textHeight()

	pane := v.Focused()
	if pane != nil {
		v.refreshLenses(pane)
		v.scrollToCursor(pane, width, height).WriteToScreen(v.screen, 0)
	}
	v.drawStatus(pane, width, height)
	v.screen.Show()
}

// scrollToCursor moves the pane's first visible line until the cursor line
// fits on screen and returns the resulting layout.
func (v *Viewer) scrollToCursor(pane *Pane, width, height int) *TextBuffer {
	if pane.cursor.Line < pane.top {
		pane.top = pane.cursor.Line
	}
	for {
		buffer, visible := v.layout(pane, width, height)
		if visible || pane.top >= pane.cursor.Line {
			return buffer
		}
		pane.top = max(pane.top+1, pane.cursor.Line-height+1)
	}
}

// layout builds the visible rows: lens rows above annotated lines, then the
// line itself with decorations and the cursor. It reports whether the cursor
// line fits on screen.
func (v *Viewer) layout(pane *Pane, width, height int) (*TextBuffer, bool) {
	buffer := NewTextBuffer(width, height)
	lensStyle := tcell.StyleDefault.Dim(true).Italic(true)
	cursorStyle := tcell.StyleDefault.Reverse(true)

	lenses := make(map[int][]highlight.Annotation)
	for _, a := range v.lenses {
		lenses[a.Range.Start.Line] = append(lenses[a.Range.Start.Line], a)
	}

	used, visible := 0, false
	lines := pane.doc.Lines()
	for y := pane.top; y < len(lines) && used < height; y++ {
		line := strings.TrimRight(lines[y], "\r")
		if lens, ok := lenses[y]; ok {
			runes := []rune(line)
			col := len(runes)
			for _, a := range lens {
				col = min(col, a.Range.Start.Character)
			}
			indent := strings.Repeat(" ", runewidth.StringWidth(string(runes[:col])))
			titles := make([]string, len(lens))
			for i, a := range lens {
				titles[i] = a.Title
			}
			used += buffer.ScreenRows(buffer.AddRow(indent+strings.Join(titles, LensSeparator), lensStyle))
		}

		row := buffer.AddRow(line, tcell.StyleDefault)
		for style, decorations := range pane.decorations {
			ts := v.tcellStyle(style)
			for _, d := range decorations {
				if d.Range.Start.Line > y || d.Range.End.Line < y {
					continue
				}
				start, end := 0, len([]rune(line))
				if d.Range.Start.Line == y {
					start = d.Range.Start.Character
				}
				if d.Range.End.Line == y {
					end = d.Range.End.Character
				}
				buffer.SetStyle(row, start, end, ts)
			}
		}
		if y == pane.cursor.Line {
			runes := []rune(line)
			r := ' '
			if pane.cursor.Character < len(runes) {
				r = runes[pane.cursor.Character]
			}
			buffer.SetCell(row, pane.cursor.Character, r, cursorStyle)
		}
		used += buffer.ScreenRows(row)
		if y == pane.cursor.Line {
			visible = used <= height
		}
	}
	return buffer, visible
}

func (v *Viewer) drawStatus(pane *Pane, width, y int) {
	style := tcell.StyleDefault.Reverse(true)
	for x := range width {
		v.screen.SetContent(x, y, ' ', nil, style)
	}

	parts := []string{}
	if pane != nil {
		parts = append(parts, fmt.Sprintf("%s [%d/%d] %s", filepath.Base(pane.path), v.focus+1, len(v.panes), pane.cursor))
	}
	parts = append(parts, describeSelection(v.session.Selection()))
	if pane != nil {
		if d, ok := pane.hover(); ok {
			hover := d.HoverMessage
			for _, a := range v.lenses {
				if a.Range == d.Range {
					hover += " (" + a.Tooltip + ")"
					break
				}
			}
			parts = append(parts, hover)
		}
	}
	if v.message != "" {
		parts = append(parts, v.message)
	}
	if v.diagnostic != "" {
		parts = append(parts, "! "+v.diagnostic)
	}

	x := 0
	for _, r := range strings.Join(parts, "  ") {
		if x >= width {
			break
		}
		v.screen.SetContent(x, y, r, nil, style)
		x += cellWidth(r)
	}
}
