package patternmatch

import (
	"errors"
	"log/slog"
	"time"
)

// ScanResult is the outcome of one scan. Records are ordered by set, then by
// pattern, then by position; they are not globally sorted.
type ScanResult struct {
	Records     []MatchRecord
	Diagnostics []error
}

// Err joins the diagnostics, or returns nil when the scan was clean.
func (r ScanResult) Err() error {
	return errors.Join(r.Diagnostics...)
}

// Scanner runs expressions from its compiler over text snapshots.
type Scanner struct {
	compiler *Compiler
}

// ScannerOption configures a Scanner.
type ScannerOption func(*scannerConfig)

type scannerConfig struct {
	timeout time.Duration
}

// WithMatchTimeout bounds each match attempt.
func WithMatchTimeout(d time.Duration) ScannerOption {
	return func(c *scannerConfig) {
		c.timeout = d
	}
}

// NewScanner creates a scanner with its own expression cache.
func NewScanner(opts ...ScannerOption) *Scanner {
	cfg := scannerConfig{timeout: DefaultMatchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.timeout == DefaultMatchTimeout {
		return &Scanner{compiler: defaultCompiler}
	}
	return &Scanner{compiler: NewCompiler(cfg.timeout)}
}

var defaultScanner = &Scanner{compiler: defaultCompiler}

// Scan runs every pattern of every set over text using the default scanner.
func Scan(text string, sets []PatternSet, isolation *IsolationBoundary) ScanResult {
	return defaultScanner.Scan(text, sets, isolation)
}

// Scan runs every pattern of every set over text. A pattern that fails to
// compile or times out adds a diagnostic and scanning moves on.
func (s *Scanner) Scan(text string, sets []PatternSet, isolation *IsolationBoundary) ScanResult {
	var result ScanResult
	if len(sets) == 0 {
		return result
	}

	runes := []rune(text)
	seen := make(map[string]bool)
	report := func(err error) {
		key := err.Error()
		if seen[key] {
			return
		}
		seen[key] = true
		result.Diagnostics = append(result.Diagnostics, err)
	}

	for _, set := range sets {
		for _, p := range set.Patterns {
			expr, err := s.compiler.Compile(p, set, isolation)
			if err != nil {
				report(err)
				continue
			}

			records, err := expr.scan(runes, p, set)
			result.Records = append(result.Records, records...)
			if err != nil {
				report(err)
			}
		}
	}

	slog.Debug("scan completed", "runes", len(runes), "sets", len(sets), "records", len(result.Records), "diagnostics", len(result.Diagnostics))
	return result
}

// scan finds successive matches. A zero-length match resumes one rune after
// its start, so a text of n runes costs at most n+1 attempts.
func (e *Expression) scan(runes []rune, p Pattern, set PatternSet) ([]MatchRecord, error) {
	var records []MatchRecord

	pos := 0
	for pos <= len(runes) {
		m, err := e.re.FindRunesMatchStartingAt(runes, pos)
		if err != nil {
			return records, &MatchTimeoutError{
				SetName:     set.Name,
				Description: p.Description,
				Expression:  e.source,
				Err:         err,
			}
		}
		if m == nil {
			break
		}

		records = append(records, MatchRecord{
			Start:            m.Index,
			End:              m.Index + m.Length,
			Description:      p.Description,
			SetName:          set.Name,
			SourceExpression: e.source,
		})

		if m.Length > 0 {
			pos = m.Index + m.Length
		} else {
			pos = m.Index + 1
		}
	}

	return records, nil
}
