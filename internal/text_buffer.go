package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/adrg/xdg"
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/Hanaasagi/patlight/internal/config"
)

type TextCell struct {
	Rune  rune
	Style tcell.Style
}

// TextBuffer holds logical rows of styled runes and wraps them only when
// written to a screen.
type TextBuffer struct {
	rows   [][]TextCell
	width  int // Terminal width
	height int // Rows available for text
}

func NewTextBuffer(width, height int) *TextBuffer {
	return &TextBuffer{width: width, height: height}
}

func (tb *TextBuffer) String() string {
	var sb strings.Builder
	for i, row := range tb.rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, cell := range row {
			sb.WriteRune(cell.Rune)
		}
	}
	return sb.String()
}

// AddRow appends text as a new logical row and returns its index.
func (tb *TextBuffer) AddRow(text string, style tcell.Style) int {
	row := make([]TextCell, 0, len(text))
	for _, r := range text {
		row = append(row, TextCell{Rune: r, Style: style})
	}
	tb.rows = append(tb.rows, row)
	return len(tb.rows) - 1
}

// SetStyle restyles the runes [start, end) of row. Out of range columns are
// ignored.
func (tb *TextBuffer) SetStyle(row, start, end int, style tcell.Style) {
	if row < 0 || row >= len(tb.rows) {
		return
	}
	cells := tb.rows[row]
	for x := max(start, 0); x < min(end, len(cells)); x++ {
		cells[x].Style = style
	}
}

// SetCell overwrites one rune of row, growing the row with blanks if needed.
func (tb *TextBuffer) SetCell(row, col int, r rune, style tcell.Style) {
	if row < 0 || row >= len(tb.rows) || col < 0 {
		return
	}
	for len(tb.rows[row]) <= col {
		tb.rows[row] = append(tb.rows[row], TextCell{Rune: ' '})
	}
	tb.rows[row][col] = TextCell{Rune: r, Style: style}
}

// Rows returns the number of logical rows.
func (tb *TextBuffer) Rows() int {
	return len(tb.rows)
}

func cellWidth(r rune) int {
	width := runewidth.RuneWidth(r)
	if width <= 0 {
		width = 1
	}
	return width
}

func displayRune(r rune) rune {
	if r == '\t' || unicode.IsControl(r) {
		return ' '
	}
	return r
}

// ScreenRows returns how many screen lines row occupies once wrapped.
func (tb *TextBuffer) ScreenRows(row int) int {
	if tb.width <= 0 || row < 0 || row >= len(tb.rows) {
		return 1
	}
	lines, x := 1, 0
	for _, cell := range tb.rows[row] {
		w := cellWidth(cell.Rune)
		if x+w > tb.width {
			lines++
			x = 0
		}
		x += w
	}
	return lines
}

func (tb *TextBuffer) dumpSnapshot() error {
	unixMilli := time.Now().UnixMilli()

	appDir := filepath.Join(xdg.StateHome, config.AppName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return err
	}
	filePath := filepath.Join(appDir, fmt.Sprintf("snapshot-%d.txt", unixMilli))
	return os.WriteFile(filePath, []byte(tb.String()), 0o644)
}

// WriteToScreen draws the rows starting at logical row top, wrapping long rows.
func (tb *TextBuffer) WriteToScreen(screen tcell.Screen, top int) {
	if tb.width <= 0 {
		return
	}

	if IsDebugMode() {
		tb.dumpSnapshot() // nolint
	}

	screenY := 0
	for y := max(top, 0); y < len(tb.rows) && screenY < tb.height; y++ {
		x := 0
		for _, cell := range tb.rows[y] {
			w := cellWidth(cell.Rune)
			if x+w > tb.width {
				screenY++
				x = 0
				if screenY >= tb.height {
					break
				}
			}
			screen.SetContent(x, screenY, displayRune(cell.Rune), nil, cell.Style)
			x += w
		}
		screenY++
	}
}
