package patternmatch

import (
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single match attempt.
const DefaultMatchTimeout = 2 * time.Second

// Expression is a compiled matcher for one pattern of one set.
type Expression struct {
	source string
	re     *regexp2.Regexp
}

// Source returns the concatenated expression text.
func (e *Expression) Source() string {
	return e.source
}

type cacheEntry struct {
	expr *Expression
	err  error
}

// Compiler builds expressions and memoises them by source text. The cached
// values are immutable, so a Compiler is safe for concurrent use.
type Compiler struct {
	timeout time.Duration
	cache   map[string]cacheEntry
	mutex   sync.RWMutex
}

// NewCompiler returns a compiler whose expressions abort a match attempt
// after timeout. A non-positive timeout disables the limit.
func NewCompiler(timeout time.Duration) *Compiler {
	return &Compiler{
		timeout: timeout,
		cache:   make(map[string]cacheEntry),
	}
}

var defaultCompiler = NewCompiler(DefaultMatchTimeout)

// Compile builds the expression for p within set using the default compiler.
func Compile(p Pattern, set PatternSet, isolation *IsolationBoundary) (*Expression, error) {
	return defaultCompiler.Compile(p, set, isolation)
}

// ExpressionSource concatenates, in order, the isolation prefix (when
// isolation is non-nil), the set prefix, the pattern, the set postfix and
// the isolation postfix.
func ExpressionSource(p Pattern, set PatternSet, isolation *IsolationBoundary) string {
	var sb strings.Builder
	if isolation != nil {
		sb.WriteString(isolation.Prefix)
	}
	sb.WriteString(set.Prefix)
	sb.WriteString(p.Source.expression())
	sb.WriteString(set.Postfix)
	if isolation != nil {
		sb.WriteString(isolation.Postfix)
	}
	return sb.String()
}

// Compile builds the case-insensitive expression for p within set. The
// returned error is an *InvalidPatternError.
func (c *Compiler) Compile(p Pattern, set PatternSet, isolation *IsolationBoundary) (*Expression, error) {
	source := ExpressionSource(p, set, isolation)

	entry := c.lookup(source)
	if entry == nil {
		entry = c.store(source)
	}
	if entry.err != nil {
		return nil, &InvalidPatternError{
			SetName:     set.Name,
			Description: p.Description,
			Expression:  source,
			Err:         entry.err,
		}
	}
	return entry.expr, nil
}

func (c *Compiler) lookup(source string) *cacheEntry {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if entry, ok := c.cache[source]; ok {
		return &entry
	}
	return nil
}

func (c *Compiler) store(source string) *cacheEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Check again after acquiring write lock
	if entry, ok := c.cache[source]; ok {
		return &entry
	}

	var entry cacheEntry
	re, err := regexp2.Compile(source, regexp2.IgnoreCase)
	if err != nil {
		entry.err = err
	} else {
		if c.timeout > 0 {
			re.MatchTimeout = c.timeout
		}
		entry.expr = &Expression{source: source, re: re}
	}
	c.cache[source] = entry
	return &entry
}
