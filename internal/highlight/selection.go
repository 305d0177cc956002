package highlight

import (
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// Sentinel options offered after the set names.
const (
	OptionAll   = "All"
	OptionClear = "Clear Highlights"
)

// Isolation prompt options.
const (
	IsolationSeparated = "Only separated occurrences"
	IsolationAnywhere  = "Anywhere in text"
)

// Phase is the position of the highlight command flow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSetChosen
	PhaseIsolationChosen
)

func (p Phase) String() string {
	switch p {
	case PhaseSetChosen:
		return "set-chosen"
	case PhaseIsolationChosen:
		return "isolation-chosen"
	default:
		return "idle"
	}
}

// Selection is which sets are active and whether matches must be isolated.
type Selection struct {
	// Choice is the option that produced ActiveSets. It lets a reload of the
	// pattern file resolve the selection again.
	Choice     string
	ActiveSets []patternmatch.PatternSet
	Isolated   bool
}

// Empty reports whether no set is active.
func (s Selection) Empty() bool {
	return len(s.ActiveSets) == 0
}

// Equal compares active sets and isolation structurally.
func (s Selection) Equal(other Selection) bool {
	if s.Isolated != other.Isolated || len(s.ActiveSets) != len(other.ActiveSets) {
		return false
	}
	for i := range s.ActiveSets {
		if !s.ActiveSets[i].Equal(other.ActiveSets[i]) {
			return false
		}
	}
	return true
}

// Options lists the set names in load order followed by the sentinels.
func Options(sets []patternmatch.PatternSet) []string {
	options := make([]string, 0, len(sets)+2)
	for _, set := range sets {
		options = append(options, set.Name)
	}
	return append(options, OptionAll, OptionClear)
}

// ResolveChoice returns the sets selected by choice: every set for
// OptionAll, otherwise every set named choice. Duplicate names are unioned
// in load order.
func ResolveChoice(choice string, sets []patternmatch.PatternSet) []patternmatch.PatternSet {
	var active []patternmatch.PatternSet
	for _, set := range sets {
		if choice == OptionAll || set.Name == choice {
			active = append(active, set)
		}
	}
	return active
}

// Prompter asks the user for the two choices of the highlight command.
// ok is false when the user cancelled.
type Prompter interface {
	PickSet(options []string) (choice string, ok bool, err error)
	PickIsolation() (isolated bool, ok bool, err error)
}
