// Package patternstore locates, seeds and parses the pattern-set file.
package patternstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// File is the on-disk shape of the pattern-set file.
type File struct {
	Sets []SetEntry `json:"sets" yaml:"sets" toml:"sets"`
}

type SetEntry struct {
	Name           string         `json:"name" yaml:"name" toml:"name"`
	PatternPrefix  string         `json:"patternPrefix,omitempty" yaml:"patternPrefix,omitempty" toml:"patternPrefix,omitempty"`
	PatternPostfix string         `json:"patternPostfix,omitempty" yaml:"patternPostfix,omitempty" toml:"patternPostfix,omitempty"`
	Patterns       []PatternEntry `json:"patterns" yaml:"patterns" toml:"patterns"`
}

// PatternEntry holds either a pattern string (a /body/flags string is a
// regular expression, anything else a literal) or an explicit regex.
type PatternEntry struct {
	Pattern     string `json:"pattern,omitempty" yaml:"pattern,omitempty" toml:"pattern,omitempty"`
	Regex       string `json:"regex,omitempty" yaml:"regex,omitempty" toml:"regex,omitempty"`
	Description string `json:"description" yaml:"description" toml:"description"`
}

// DefaultFile is written when no pattern-set file exists yet.
func DefaultFile() File {
	return File{
		Sets: []SetEntry{
			{
				Name: "Default",
				Patterns: []PatternEntry{
					{Pattern: "TODO", Description: "This is a todo item"},
					{Pattern: "FIXME", Description: "This is a fixme item"},
				},
			},
			{
				Name: "Custom",
				Patterns: []PatternEntry{
					{Pattern: "NOTE", Description: "This is a note"},
					{Pattern: "DEBUG", Description: "This is a debug statement"},
				},
			},
		},
	}
}

// PatternSets converts the file into engine values, resolving each source
// once.
func (f File) PatternSets() []patternmatch.PatternSet {
	sets := make([]patternmatch.PatternSet, 0, len(f.Sets))
	for _, entry := range f.Sets {
		set := patternmatch.PatternSet{
			Name:     entry.Name,
			Prefix:   entry.PatternPrefix,
			Postfix:  entry.PatternPostfix,
			Patterns: make([]patternmatch.Pattern, 0, len(entry.Patterns)),
		}
		for _, p := range entry.Patterns {
			source := patternmatch.ParseSource(p.Pattern)
			if p.Regex != "" {
				source = patternmatch.RegexSource(p.Regex)
			}
			set.Patterns = append(set.Patterns, patternmatch.Pattern{
				Source:      source,
				Description: p.Description,
			})
		}
		sets = append(sets, set)
	}
	return sets
}

// Decode parses data according to the extension of path. Unknown
// extensions are read as JSON.
func Decode(path string, data []byte) (File, error) {
	var f File
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}
	if err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Encode renders f in the format implied by the extension of path.
func Encode(path string, f File) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(f)
	case ".toml":
		var sb strings.Builder
		if err := toml.NewEncoder(&sb).Encode(f); err != nil {
			return nil, err
		}
		return []byte(sb.String()), nil
	default:
		return json.MarshalIndent(f, "", "  ")
	}
}

// Load reads the pattern-set file at path.
func Load(path string) ([]patternmatch.PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns file %s: %w", path, err)
	}
	f, err := Decode(path, data)
	if err != nil {
		return nil, err
	}
	return f.PatternSets(), nil
}

// LoadOrSeed reads path, first writing the default sets when it does not
// exist.
func LoadOrSeed(path string) ([]patternmatch.PatternSet, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := Seed(path); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("accessing patterns file %s: %w", path, err)
	}
	return Load(path)
}

// Seed writes the default sets to path, creating parent directories.
func Seed(path string) error {
	data, err := Encode(path, DefaultFile())
	if err != nil {
		return fmt.Errorf("encoding default patterns: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating patterns directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing patterns file %s: %w", path, err)
	}
	slog.Info("seeded default patterns file", "path", path)
	return nil
}
