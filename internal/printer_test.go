package internal

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

func defaultSets() []patternmatch.PatternSet {
	return []patternmatch.PatternSet{
		{
			Name: "Default",
			Patterns: []patternmatch.Pattern{
				{Source: patternmatch.LiteralSource("TODO"), Description: "This is a todo item"},
				{Source: patternmatch.LiteralSource("FIXME"), Description: "This is a fixme item"},
			},
		},
	}
}

func printDocument(t *testing.T, text string, isolated bool, opts PrintOptions) string {
	t.Helper()
	printer := NewPrinter(highlight.NewTextDocument("mem://doc", text))
	session := highlight.NewSession(defaultSets(), config.Defaults())
	session.FocusChanged(printer)
	session.Select("Default", isolated)

	var out bytes.Buffer
	annotations := session.Annotations().ProvideAnnotations(printer.Document())
	if err := printer.Print(&out, annotations, opts); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	return out.String()
}

func TestPrinterPlain(t *testing.T) {
	got := printDocument(t, "# TODO fix this\n# FIXMEnow", false, PrintOptions{})
	if got != "# TODO fix this\n# FIXMEnow\n" {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestPrinterLenses(t *testing.T) {
	got := printDocument(t, "# TODO fix this\n# FIXMEnow", true, PrintOptions{Annotations: true})
	want := "  This is a todo item\n# TODO fix this\n# FIXMEnow\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPrinterJoinsLensesOnOneLine(t *testing.T) {
	got := printDocument(t, "x TODO FIXME", false, PrintOptions{Annotations: true})
	want := "  This is a todo item | This is a fixme item\nx TODO FIXME\n"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestPrinterLensIndentUsesDisplayWidth(t *testing.T) {
	got := printDocument(t, "日本 TODO", false, PrintOptions{Annotations: true})
	if !strings.HasPrefix(got, "     This is a todo item\n") {
		t.Errorf("Expected five columns of indent, got %q", got)
	}
}

func TestPrinterColors(t *testing.T) {
	got := printDocument(t, "a TODO b", false, PrintOptions{Color: true})

	// default background is rgba(0, 0, 255, 1)
	if !strings.Contains(got, "48;2;0;0;255") {
		t.Errorf("Expected background escape, got %q", got)
	}
	if !strings.HasPrefix(got, "a \x1b[") {
		t.Errorf("Text before the match should be plain, got %q", got)
	}
	if !strings.Contains(got, "TODO\x1b[") || !strings.HasSuffix(got, " b\n") {
		t.Errorf("Only the match should be painted, got %q", got)
	}
}

func TestPrinterMultiLineDecoration(t *testing.T) {
	printer := NewPrinter(highlight.NewTextDocument("mem://doc", "ab\ncd\n"))
	style := highlight.Style{Background: "red", Foreground: "default"}
	printer.SetDecorations(style, []highlight.Decoration{{
		Range: highlight.Range{
			Start: highlight.Position{Line: 0, Character: 1},
			End:   highlight.Position{Line: 1, Character: 1},
		},
	}})

	var out bytes.Buffer
	if err := printer.Print(&out, nil, PrintOptions{Color: true}); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 segments, got %q", out.String())
	}
	if !strings.HasPrefix(lines[0], "a\x1b[") || !strings.HasPrefix(lines[1], "\x1b[") || !strings.HasSuffix(lines[1], "d") {
		t.Errorf("Unexpected painting %q", out.String())
	}
}

func TestPrinterClearedStyleIsDropped(t *testing.T) {
	printer := NewPrinter(highlight.NewTextDocument("mem://doc", "TODO"))
	style := highlight.Style{Background: "red", Foreground: "white"}
	printer.SetDecorations(style, []highlight.Decoration{{Range: highlight.Range{End: highlight.Position{Character: 4}}}})
	printer.SetDecorations(style, nil)

	var out bytes.Buffer
	if err := printer.Print(&out, nil, PrintOptions{Color: true}); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if out.String() != "TODO\n" {
		t.Errorf("Expected plain output, got %q", out.String())
	}
	if len(printer.Decorations(style)) != 0 {
		t.Error("Expected no decorations")
	}
}
