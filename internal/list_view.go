package internal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/Hanaasagi/patlight/internal/highlight"
	fz "github.com/Hanaasagi/patlight/pkg/fuzzymatch"
)

const (
	// Default configuration
	defaultMaxVisibleItems = 10
	defaultWidth           = 80
	defaultHeight          = 24

	// Control characters
	ctrlC = 3   // Ctrl+C
	esc   = 27  // ESC
	del   = 127 // Backspace/Delete
	bs    = 8   // Backspace
	enter = 13  // Enter
	ctrlU = 21  // Ctrl+U (clear input)
	ctrlP = 16  // Ctrl+P (up)
	ctrlN = 14  // Ctrl+N (down)
	ctrlJ = 10  // Ctrl+J (down)
	ctrlK = 11  // Ctrl+K (up)
)

// Prompt titles.
const (
	SetPromptTitle       = "Select pattern set"
	IsolationPromptTitle = "Match isolation"
)

var cursorPositionRegex = regexp.MustCompile(`\x1b\[(\d+);(\d+)R`)

// ListView is an inline dropdown drawn below the cursor on a terminal. It
// serves as the quick pick of the highlight command.
type ListView struct {
	title           string
	candidates      []string
	filteredMatches []fz.Candidate
	selectedIndex   int
	scrollOffset    int
	query           string
	fuzzyMatcher    *fz.Matcher

	// Display configuration
	maxVisibleItems    int
	originalTotalWidth int // counter width from the unfiltered count

	// Terminal state
	originalState *term.State
	fd            int // -1 when input is not a terminal
	width         int
	height        int
	startRow      int

	// Terminal I/O
	ttyin  *bufio.Reader
	ttyout io.Writer
	closer io.Closer

	selectColor *color.Color
	matchColor  *color.Color
}

func newListView(in io.Reader, out io.Writer) *ListView {
	lv := &ListView{
		fuzzyMatcher:    fz.NewMatcher(false),
		maxVisibleItems: defaultMaxVisibleItems,
		fd:              -1,
		width:           defaultWidth,
		height:          defaultHeight,
		ttyin:           bufio.NewReader(in),
		ttyout:          out,
		selectColor:     color.New(color.BgCyan, color.FgBlack),
		matchColor:      color.New(color.FgGreen, color.Bold),
	}
	lv.startRow = lv.height - 1
	return lv
}

// reset prepares the view for a new prompt.
func (lv *ListView) reset(title string, candidates []string) {
	lv.title = title
	lv.candidates = candidates
	lv.filteredMatches = nil
	lv.selectedIndex = 0
	lv.scrollOffset = 0
	lv.query = ""
	lv.originalTotalWidth = len(strconv.Itoa(len(candidates)))
}

// initTerminal switches a real terminal into raw mode and finds the cursor.
func (lv *ListView) initTerminal() error {
	if lv.fd < 0 {
		return nil
	}

	var err error
	lv.originalState, err = term.MakeRaw(lv.fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}

	if lv.width, lv.height, err = term.GetSize(lv.fd); err != nil {
		lv.width, lv.height = defaultWidth, defaultHeight
	}

	if err := lv.getCurrentPosition(); err != nil {
		lv.startRow = lv.height - 1
	}
	return nil
}

// getCurrentPosition asks the terminal for the cursor position.
func (lv *ListView) getCurrentPosition() error {
	lv.write("\x1b[6n")

	buf := make([]byte, 32)
	n, err := lv.ttyin.Read(buf)
	if err != nil {
		return err
	}

	matches := cursorPositionRegex.FindSubmatch(buf[:n])
	if len(matches) < 3 {
		return errors.New("failed to parse cursor position")
	}
	row, _ := strconv.Atoi(string(matches[1]))
	lv.startRow = row - 1
	return nil
}

// cleanup restores terminal state
func (lv *ListView) cleanup() {
	if lv.originalState != nil {
		_ = term.Restore(lv.fd, lv.originalState)
		lv.originalState = nil
	}
}

// Close releases the terminal opened by NewQuickPick.
func (lv *ListView) Close() error {
	if lv.closer == nil {
		return nil
	}
	return lv.closer.Close()
}

func (lv *ListView) write(text string) {
	_, _ = io.WriteString(lv.ttyout, text)
}

func (lv *ListView) writeColored(text string, c *color.Color) {
	if lv.fd < 0 {
		lv.write(text)
		return
	}
	_, _ = c.Fprint(lv.ttyout, text)
}

func (lv *ListView) moveCursor(row, col int) {
	if lv.fd < 0 {
		lv.write("\r\n")
		return
	}
	lv.write(fmt.Sprintf("\x1b[%d;%dH", row+1, col+1))
}

func (lv *ListView) clearLine() {
	if lv.fd >= 0 {
		lv.write("\x1b[2K")
	}
}

// makeSpace scrolls the terminal so the popup fits below the cursor.
func (lv *ListView) makeSpace(lines int) {
	if lv.fd < 0 {
		return
	}
	lv.moveCursor(lv.startRow, 0)
	for range lines {
		lv.write("\n")
	}
	lv.moveCursor(lv.startRow, 0)
}

func (lv *ListView) clearPopupArea(totalLines int) {
	if lv.fd < 0 {
		return
	}
	for i := range totalLines {
		lv.moveCursor(lv.startRow+i, 0)
		lv.clearLine()
	}
	lv.moveCursor(lv.startRow, 0)
}

// updateFilter updates the filtered matches based on current query
func (lv *ListView) updateFilter() {
	lv.filteredMatches = lv.fuzzyMatcher.Filter(lv.query, lv.candidates)

	if lv.selectedIndex >= len(lv.filteredMatches) {
		lv.selectedIndex = 0
	}
	lv.constrainSelection()
}

// constrainSelection adjusts the scroll offset to ensure the selected item is visible
func (lv *ListView) constrainSelection() {
	count := len(lv.filteredMatches)
	if count == 0 {
		lv.scrollOffset = 0
		return
	}

	lv.selectedIndex = max(min(lv.selectedIndex, count-1), 0)

	numItems := min(lv.maxVisibleItems, count)
	minOffset := max(lv.selectedIndex-numItems+1, 0)
	maxOffset := max(min(count-numItems, lv.selectedIndex), 0)

	lv.scrollOffset = max(min(lv.scrollOffset, maxOffset), minOffset)
}

func (lv *ListView) moveUp() {
	if lv.selectedIndex > 0 {
		lv.selectedIndex--
		lv.constrainSelection()
	}
}

func (lv *ListView) moveDown() {
	if lv.selectedIndex < len(lv.filteredMatches)-1 {
		lv.selectedIndex++
		lv.constrainSelection()
	}
}

func (lv *ListView) clearQuery() {
	lv.query = ""
	lv.updateFilter()
}

func (lv *ListView) appendToQuery(r rune) {
	lv.query += string(r)
	lv.updateFilter()
}

func (lv *ListView) backspaceQuery() {
	if q := []rune(lv.query); len(q) > 0 {
		lv.query = string(q[:len(q)-1])
		lv.updateFilter()
	}
}

// calculateDisplayMetrics calculates the display dimensions
func (lv *ListView) calculateDisplayMetrics() (visibleCount, totalLines int) {
	visibleCount = min(lv.maxVisibleItems, len(lv.candidates))
	totalLines = visibleCount + 1 // +1 for prompt
	return
}

// ensureSpace moves the popup up when it would run off the bottom.
func (lv *ListView) ensureSpace(totalLines int) {
	if lv.startRow+totalLines >= lv.height {
		lv.startRow = max(lv.height-totalLines-1, 0)
	}
}

func (lv *ListView) counterText() string {
	selected := 0
	if len(lv.filteredMatches) > 0 {
		selected = lv.selectedIndex + 1
	}
	return fmt.Sprintf("[ %*d/%-*d ]",
		lv.originalTotalWidth, selected,
		lv.originalTotalWidth, len(lv.filteredMatches))
}

func (lv *ListView) promptPrefix() string {
	return fmt.Sprintf("%s %s > ", lv.counterText(), lv.title)
}

func (lv *ListView) renderPrompt() {
	lv.moveCursor(lv.startRow, 0)
	lv.clearLine()
	lv.write(lv.promptPrefix() + lv.query)
}

func (lv *ListView) renderMatches(visibleCount int) {
	for i := range visibleCount {
		lv.moveCursor(lv.startRow+1+i, 0)
		lv.clearLine()

		matchIndex := lv.scrollOffset + i
		if matchIndex >= len(lv.filteredMatches) {
			continue
		}
		lv.renderSingleMatch(lv.filteredMatches[matchIndex], matchIndex == lv.selectedIndex)
	}
}

// renderSingleMatch draws one option, marking the fuzzy-matched runes.
func (lv *ListView) renderSingleMatch(match fz.Candidate, selected bool) {
	indicator := "   "
	if selected {
		indicator = " > "
	}
	lv.write(indicator)

	text := runewidth.Truncate(match.Text, lv.width-len(indicator), "...")
	if selected {
		lv.writeColored(text, lv.selectColor)
		return
	}
	if lv.fd < 0 {
		lv.write(text)
		return
	}
	lv.matchColor.EnableColor()
	lv.write(fz.Highlight(fz.Candidate{Text: text, Indices: match.Indices}, func(s string) string {
		return lv.matchColor.Sprint(s)
	}))
}

func (lv *ListView) positionCursor() {
	if lv.fd < 0 {
		return
	}
	col := runewidth.StringWidth(lv.promptPrefix() + lv.query)
	lv.write(fmt.Sprintf("\x1b[%d;%dH", lv.startRow+1, col+1))
}

func (lv *ListView) render() {
	visibleCount, totalLines := lv.calculateDisplayMetrics()
	lv.ensureSpace(totalLines)
	lv.renderPrompt()
	lv.renderMatches(visibleCount)
	lv.positionCursor()
}

type inputResult int

const (
	inputContinue inputResult = iota
	inputAccept
	inputCancel
)

// handleEscape distinguishes a bare ESC from an arrow key sequence. Escape
// sequences arrive in one read, so a sequence is only treated as one when
// its bytes are already buffered.
func (lv *ListView) handleEscape() inputResult {
	if lv.ttyin.Buffered() < 2 {
		return inputCancel
	}
	next, _ := lv.ttyin.ReadByte()
	if next != '[' {
		return inputCancel
	}
	code, _ := lv.ttyin.ReadByte()
	switch code {
	case 'A':
		lv.moveUp()
	case 'B':
		lv.moveDown()
	case 'C', 'D':
	default:
		return inputCancel
	}
	return inputContinue
}

func (lv *ListView) handleInput() (inputResult, error) {
	r, _, err := lv.ttyin.ReadRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return inputCancel, nil
		}
		return inputCancel, err
	}

	switch r {
	case ctrlC:
		return inputCancel, nil
	case esc:
		return lv.handleEscape(), nil
	case del, bs:
		lv.backspaceQuery()
	case enter, '\n':
		if len(lv.filteredMatches) > 0 {
			return inputAccept, nil
		}
	case ctrlU:
		lv.clearQuery()
	case ctrlP, ctrlK:
		lv.moveUp()
	case ctrlN:
		lv.moveDown()
	default:
		if r >= 32 && r != del && r != ctrlJ {
			lv.appendToQuery(r)
		}
	}
	return inputContinue, nil
}

// Pick shows options under title and returns the chosen one. ok is false
// when the user cancelled.
func (lv *ListView) Pick(title string, options []string) (string, bool, error) {
	if len(options) == 0 {
		return "", false, nil
	}
	lv.reset(title, options)

	if err := lv.initTerminal(); err != nil {
		return "", false, err
	}
	defer lv.cleanup()

	lv.updateFilter()

	_, totalLines := lv.calculateDisplayMetrics()
	lv.ensureSpace(totalLines)
	lv.makeSpace(totalLines)
	defer lv.clearPopupArea(totalLines)

	for {
		lv.render()

		result, err := lv.handleInput()
		if err != nil {
			return "", false, err
		}
		switch result {
		case inputAccept:
			return lv.filteredMatches[lv.selectedIndex].Text, true, nil
		case inputCancel:
			return "", false, nil
		}
	}
}

// PickSet shows the pattern set quick pick.
func (lv *ListView) PickSet(options []string) (string, bool, error) {
	return lv.Pick(SetPromptTitle, options)
}

// PickIsolation shows the isolation quick pick. Separated occurrences come
// first.
func (lv *ListView) PickIsolation() (bool, bool, error) {
	choice, ok, err := lv.Pick(IsolationPromptTitle, []string{
		highlight.IsolationSeparated,
		highlight.IsolationAnywhere,
	})
	if err != nil || !ok {
		return false, false, err
	}
	return choice == highlight.IsolationSeparated, true, nil
}

// NewQuickPick opens /dev/tty for a terminal quick pick.
func NewQuickPick() (*ListView, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open /dev/tty: %w", err)
	}
	lv := newListView(tty, tty)
	lv.closer = tty
	if term.IsTerminal(int(tty.Fd())) {
		lv.fd = int(tty.Fd())
	}
	return lv, nil
}

// NewLineQuickPick reads keystrokes from in without touching terminal
// modes and writes a plain listing to out.
func NewLineQuickPick(in io.Reader, out io.Writer) *ListView {
	return newListView(in, out)
}

var _ highlight.Prompter = (*ListView)(nil)
