package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/internal/patternstore"
)

func testEnvironment() *environment {
	return &environment{
		settings: config.Defaults(),
		sets:     patternstore.DefaultFile().PatternSets(),
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.toml"),
		"--patterns", filepath.Join(dir, "patterns.json"),
	}, args...))
	err := root.Execute()
	return out.String(), err
}

func decodeRecords(t *testing.T, out string) []scanRecord {
	t.Helper()
	var records []scanRecord
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var r scanRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		records = append(records, r)
	}
	return records
}

func TestReadDocumentsFromStdin(t *testing.T) {
	docs, err := readDocuments(nil, strings.NewReader("a TODO"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].URI() != stdinURI || docs[0].Text() != "a TODO" {
		t.Errorf("Unexpected documents %+v", docs)
	}
}

func TestReadDocumentsFromFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("NOTE one"), 0o644); err != nil {
		t.Fatal(err)
	}

	docs, err := readDocuments([]string{path}, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(docs) != 1 || !strings.HasPrefix(docs[0].URI(), "file://") || !strings.HasSuffix(docs[0].URI(), "/notes.txt") {
		t.Errorf("Unexpected documents %+v", docs)
	}

	if _, err := readDocuments([]string{filepath.Join(t.TempDir(), "missing")}, nil); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestRunScan(t *testing.T) {
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "# TODO\nNOTE: x")}
	var out, errOut bytes.Buffer

	err := runScan(&out, &errOut, testEnvironment(), docs, selectionOptions{set: highlight.OptionAll})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	records := decodeRecords(t, out.String())
	want := []scanRecord{
		{File: "mem://a", Start: 2, End: 6, Line: 0, Character: 2, Description: "This is a todo item", Set: "Default", Expression: "TODO"},
		{File: "mem://a", Start: 7, End: 11, Line: 1, Character: 0, Description: "This is a note", Set: "Custom", Expression: "NOTE"},
	}
	if len(records) != len(want) {
		t.Fatalf("Expected %d records, got %d: %+v", len(want), len(records), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("Record %d: expected %+v, got %+v", i, want[i], records[i])
		}
	}
	if errOut.Len() != 0 {
		t.Errorf("Unexpected diagnostics %q", errOut.String())
	}
}

func TestRunScanIsolated(t *testing.T) {
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "TODOs and TODO")}
	var out, errOut bytes.Buffer

	if err := runScan(&out, &errOut, testEnvironment(), docs, selectionOptions{set: "Default", isolate: true}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	records := decodeRecords(t, out.String())
	if len(records) != 1 || records[0].Start != 10 {
		t.Errorf("Expected only the separated TODO, got %+v", records)
	}
}

func TestRunScanUnknownSet(t *testing.T) {
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "TODO")}
	var out, errOut bytes.Buffer

	if err := runScan(&out, &errOut, testEnvironment(), docs, selectionOptions{set: "Nope"}); err == nil {
		t.Error("Expected an error for an unknown set")
	}
	if err := runScan(&out, &errOut, testEnvironment(), docs, selectionOptions{set: highlight.OptionClear}); err != nil {
		t.Errorf("Clear should scan nothing, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestRunScanWithoutSets(t *testing.T) {
	env := &environment{settings: config.Defaults(), sets: nil}
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "TODO")}

	for _, set := range []string{highlight.OptionAll, highlight.OptionClear} {
		var out, errOut bytes.Buffer
		if err := runScan(&out, &errOut, env, docs, selectionOptions{set: set}); err != nil {
			t.Errorf("%s: an empty set list should scan nothing, got %v", set, err)
		}
		if out.Len() != 0 || errOut.Len() != 0 {
			t.Errorf("%s: expected no output, got %q and %q", set, out.String(), errOut.String())
		}
	}
}

func TestRunScanReportsDiagnostics(t *testing.T) {
	env := testEnvironment()
	env.sets = append(env.sets, patternstore.File{Sets: []patternstore.SetEntry{{
		Name:     "Broken",
		Patterns: []patternstore.PatternEntry{{Regex: "(", Description: "broken"}},
	}}}.PatternSets()...)
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "TODO")}
	var out, errOut bytes.Buffer

	if err := runScan(&out, &errOut, env, docs, selectionOptions{set: highlight.OptionAll}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(decodeRecords(t, out.String())) != 1 {
		t.Errorf("Valid patterns should still match, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "mem://a") {
		t.Errorf("Expected a diagnostic naming the document, got %q", errOut.String())
	}
}

func TestRunShow(t *testing.T) {
	docs := []*highlight.TextDocument{
		highlight.NewTextDocument("mem://a", "# TODO fix"),
		highlight.NewTextDocument("mem://b", "plain"),
	}
	var out, errOut bytes.Buffer

	opts := &showOptions{selectionOptions: selectionOptions{set: "Default"}, noColor: true}
	if err := runShow(&out, &errOut, testEnvironment(), docs, opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := "==> mem://a <==\n  This is a todo item\n# TODO fix\n\n==> mem://b <==\nplain\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestRunShowWithoutAnnotations(t *testing.T) {
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "# TODO fix")}
	var out, errOut bytes.Buffer

	opts := &showOptions{selectionOptions: selectionOptions{set: highlight.OptionClear}, noColor: true, noAnnotations: true}
	if err := runShow(&out, &errOut, testEnvironment(), docs, opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.String() != "# TODO fix\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestRunShowUnknownSet(t *testing.T) {
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "# TODO fix")}
	var out, errOut bytes.Buffer

	opts := &showOptions{selectionOptions: selectionOptions{set: "NoSuchSet"}, noColor: true}
	err := runShow(&out, &errOut, testEnvironment(), docs, opts)
	if err == nil || !strings.Contains(err.Error(), `unknown pattern set "NoSuchSet"`) {
		t.Errorf("Expected an unknown set error, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestRunShowAllWithoutSets(t *testing.T) {
	env := &environment{settings: config.Defaults(), sets: nil}
	docs := []*highlight.TextDocument{highlight.NewTextDocument("mem://a", "# TODO fix")}
	var out, errOut bytes.Buffer

	opts := &showOptions{selectionOptions: selectionOptions{set: highlight.OptionAll}, noColor: true}
	if err := runShow(&out, &errOut, env, docs, opts); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.String() != "# TODO fix\n" {
		t.Errorf("Expected plain output, got %q", out.String())
	}
}

func TestWriteSets(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	sets := patternstore.File{Sets: []patternstore.SetEntry{{
		Name:          "Code",
		PatternPrefix: `\b`,
		Patterns: []patternstore.PatternEntry{
			{Pattern: "TODO", Description: "todo"},
			{Regex: "XXX+", Description: "marker"},
		},
	}}}.PatternSets()

	var out bytes.Buffer
	writeSets(&out, sets)
	want := "Code prefix \"\\\\b\" postfix \"\"\n  TODO    todo\n  /XXX+/  marker\n"
	if out.String() != want {
		t.Errorf("Expected %q, got %q", want, out.String())
	}
}

func TestScanCommand(t *testing.T) {
	out, err := execute(t, "x FIXME", "scan")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	records := decodeRecords(t, out)
	if len(records) != 1 || records[0].File != stdinURI || records[0].Set != "Default" {
		t.Errorf("Unexpected records %+v", records)
	}
}

func TestShowCommand(t *testing.T) {
	out, err := execute(t, "DEBUG here", "show", "--set", "Custom", "--no-color")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != "This is a debug statement\nDEBUG here\n" {
		t.Errorf("Unexpected output %q", out)
	}
}

func TestSetsCommandSeedsPatternFile(t *testing.T) {
	dir := t.TempDir()
	patterns := filepath.Join(dir, "patterns.json")
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", filepath.Join(dir, "config.toml"), "--patterns", patterns, "sets"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := os.Stat(patterns); err != nil {
		t.Errorf("Expected the pattern file to be seeded: %v", err)
	}
	if !strings.Contains(out.String(), "Default") || !strings.Contains(out.String(), "Custom") {
		t.Errorf("Expected both default sets, got %q", out.String())
	}
}

func TestViewRequiresFiles(t *testing.T) {
	if _, err := execute(t, "", "view"); err == nil {
		t.Error("Expected an error without files")
	}
}
