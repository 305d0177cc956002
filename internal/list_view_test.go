package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
)

var setOptions = []string{"Default", "Custom", highlight.OptionAll, highlight.OptionClear}

func pickWith(t *testing.T, input string, options []string) (string, bool) {
	t.Helper()
	lv := NewLineQuickPick(strings.NewReader(input), &bytes.Buffer{})
	choice, ok, err := lv.PickSet(options)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return choice, ok
}

func TestListViewEnterChoosesFirst(t *testing.T) {
	choice, ok := pickWith(t, "\r", setOptions)
	if !ok || choice != "Default" {
		t.Errorf("Expected Default, got %q (ok=%v)", choice, ok)
	}
}

func TestListViewFuzzyFilter(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cus\r", "Custom"},
		{"clr\n", highlight.OptionClear},
		{"all\r", highlight.OptionAll},
		{"cusx\x7f\r", "Custom"},
		{"zzz\x15def\r", "Default"},
	}
	for _, tt := range tests {
		choice, ok := pickWith(t, tt.input, setOptions)
		if !ok || choice != tt.want {
			t.Errorf("%q: expected %q, got %q (ok=%v)", tt.input, tt.want, choice, ok)
		}
	}
}

func TestListViewNavigation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"\x0e\r", "Custom"},
		{"\x0e\x0e\x10\r", "Custom"},
		{"\x1b[B\x1b[B\r", highlight.OptionAll},
		{"\x1b[A\r", "Default"},
		{"\x0e\x0e\x0e\x0e\x0e\r", highlight.OptionClear},
	}
	for _, tt := range tests {
		choice, ok := pickWith(t, tt.input, setOptions)
		if !ok || choice != tt.want {
			t.Errorf("%q: expected %q, got %q (ok=%v)", tt.input, tt.want, choice, ok)
		}
	}
}

func TestListViewCancel(t *testing.T) {
	for _, input := range []string{"\x1b", "\x03", "de", "zzz\r\x1b", ""} {
		if choice, ok := pickWith(t, input, setOptions); ok {
			t.Errorf("%q: expected cancel, got %q", input, choice)
		}
	}
}

func TestListViewNoOptions(t *testing.T) {
	if _, ok := pickWith(t, "\r", nil); ok {
		t.Error("Expected cancel without options")
	}
}

func TestListViewIsolation(t *testing.T) {
	tests := []struct {
		input    string
		isolated bool
		ok       bool
	}{
		{"\r", true, true},
		{"\x0e\r", false, true},
		{"anywhere\r", false, true},
		{"\x1b", false, false},
	}
	for _, tt := range tests {
		lv := NewLineQuickPick(strings.NewReader(tt.input), &bytes.Buffer{})
		isolated, ok, err := lv.PickIsolation()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if isolated != tt.isolated || ok != tt.ok {
			t.Errorf("%q: got isolated=%v ok=%v", tt.input, isolated, ok)
		}
	}
}

func TestListViewDrivesHighlightCommand(t *testing.T) {
	printer := NewPrinter(highlight.NewTextDocument("mem://doc", "TODO x FIXMEnow"))
	session := highlight.NewSession(defaultSets(), config.Defaults())
	session.FocusChanged(printer)

	var out bytes.Buffer
	lv := NewLineQuickPick(strings.NewReader("def\r\r"), &out)
	rendered, err := session.RunHighlightCommand(lv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rendered {
		t.Fatal("Expected a render")
	}
	if got := len(printer.Decorations(session.Style())); got != 1 {
		t.Errorf("Expected only the isolated TODO, got %d decorations", got)
	}
	if !strings.Contains(out.String(), SetPromptTitle) || !strings.Contains(out.String(), IsolationPromptTitle) {
		t.Errorf("Expected both prompts in output, got %q", out.String())
	}
}

func TestListViewScrolling(t *testing.T) {
	options := make([]string, 15)
	for i := range options {
		options[i] = strings.Repeat("x", i+1)
	}
	lv := NewLineQuickPick(strings.NewReader(""), &bytes.Buffer{})
	lv.reset("t", options)
	lv.updateFilter()

	for range 12 {
		lv.moveDown()
	}
	if lv.selectedIndex != 12 {
		t.Errorf("Expected index 12, got %d", lv.selectedIndex)
	}
	if lv.scrollOffset != 3 {
		t.Errorf("Expected scroll offset 3, got %d", lv.scrollOffset)
	}
	for range 20 {
		lv.moveUp()
	}
	if lv.selectedIndex != 0 || lv.scrollOffset != 0 {
		t.Errorf("Expected top, got index %d offset %d", lv.selectedIndex, lv.scrollOffset)
	}
}
