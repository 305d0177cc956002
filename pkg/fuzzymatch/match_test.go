package fuzzymatch

import (
	"reflect"
	"testing"
)

func texts(cs []Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Text)
	}
	return out
}

func TestFilterEmptyQueryKeepsOrder(t *testing.T) {
	options := []string{"Default", "Custom", "All", "Clear Highlights"}
	got := NewMatcher(false).Filter("", options)

	if !reflect.DeepEqual(texts(got), options) {
		t.Errorf("Expected %v, got %v", options, texts(got))
	}
	for i, c := range got {
		if c.Original != i {
			t.Errorf("Expected original index %d, got %d", i, c.Original)
		}
	}
}

func TestFilterExactFirst(t *testing.T) {
	got := NewMatcher(false).Filter("abc", []string{"a_bc", "acb", "abc"})
	if len(got) == 0 || got[0].Text != "abc" {
		t.Errorf("Expected 'abc' to rank first, got %v", texts(got))
	}
}

func TestFilterRequiresOrder(t *testing.T) {
	got := NewMatcher(false).Filter("abc", []string{"acb", "cab", "bac"})
	if len(got) != 0 {
		t.Errorf("Expected no matches, got %v", texts(got))
	}
}

func TestFilterCaseSensitivity(t *testing.T) {
	options := []string{"Clear Highlights"}
	if got := NewMatcher(false).Filter("clh", options); len(got) != 1 {
		t.Errorf("Expected case-insensitive match, got %v", texts(got))
	}
	if got := NewMatcher(true).Filter("clh", options); len(got) != 0 {
		t.Errorf("Expected no case-sensitive match, got %v", texts(got))
	}
}

func TestFilterIndices(t *testing.T) {
	got := NewMatcher(false).Filter("al", []string{"All"})
	if len(got) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Indices, []int{0, 1}) {
		t.Errorf("Expected indices [0 1], got %v", got[0].Indices)
	}
}

func TestHighlight(t *testing.T) {
	c := Candidate{Text: "Clear Highlights", Indices: []int{0, 1, 6}}
	got := Highlight(c, func(s string) string { return "[" + s + "]" })
	if got != "[Cl]ear [H]ighlights" {
		t.Errorf("unexpected highlight %q", got)
	}
	if got := Highlight(Candidate{Text: "x"}, func(s string) string { return "!" }); got != "x" {
		t.Errorf("Expected untouched text, got %q", got)
	}
}
