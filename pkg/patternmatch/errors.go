package patternmatch

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern is matched by every *InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrMatchTimeout is matched by every *MatchTimeoutError.
	ErrMatchTimeout = errors.New("match timeout")
)

// InvalidPatternError reports a concatenated expression that does not
// compile. It only affects the pattern it names.
type InvalidPatternError struct {
	SetName     string
	Description string
	Expression  string
	Err         error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("set %q pattern %q: invalid expression %q: %v", e.SetName, e.Description, e.Expression, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

func (e *InvalidPatternError) Is(target error) bool { return target == ErrInvalidPattern }

// MatchTimeoutError reports an expression that exceeded its match timeout.
// Matches found before the timeout are kept.
type MatchTimeoutError struct {
	SetName     string
	Description string
	Expression  string
	Err         error
}

func (e *MatchTimeoutError) Error() string {
	return fmt.Sprintf("set %q pattern %q: expression %q timed out: %v", e.SetName, e.Description, e.Expression, e.Err)
}

func (e *MatchTimeoutError) Unwrap() error { return e.Err }

func (e *MatchTimeoutError) Is(target error) bool { return target == ErrMatchTimeout }
