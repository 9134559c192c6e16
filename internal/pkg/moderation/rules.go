package moderation

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultRules is the rule set shipped with the binary.
//
//go:embed rules.yaml
var defaultRules []byte

const (
	PatternKindRegex  = "regex"
	PatternKindRepeat = "repeat"
)

// RuleFile is the YAML layout of a moderation rule set.
type RuleFile struct {
	Words             map[string][]string `yaml:"words"`
	Patterns          []PatternSpec       `yaml:"patterns"`
	MinLength         int                 `yaml:"min_length"`
	LowRatingMax      int                 `yaml:"low_rating_max"`
	LowRatingMinWords int                 `yaml:"low_rating_min_words"`
}

// PatternSpec describes one suspicious pattern. Repeat patterns exist because
// Go regexps have no back-references.
type PatternSpec struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Expr   string `yaml:"expr"`
	MinRun int    `yaml:"min_run"`
}

// Rules is the compiled, read-only form of a RuleFile.
type Rules struct {
	words             []string
	patterns          []pattern
	minLength         int
	lowRatingMax      int
	lowRatingMinWords int
}

type pattern struct {
	name  string
	match func(string) bool
}

// ParseRules compiles a YAML rule document.
func ParseRules(data []byte) (*Rules, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moderation rules: %w", err)
	}
	return CompileRules(file)
}

// CompileRules validates a RuleFile and builds the matchers.
func CompileRules(file RuleFile) (*Rules, error) {
	r := &Rules{
		minLength:         file.MinLength,
		lowRatingMax:      file.LowRatingMax,
		lowRatingMinWords: file.LowRatingMinWords,
	}
	if r.minLength <= 0 {
		r.minLength = 3
	}
	if r.lowRatingMax <= 0 {
		r.lowRatingMax = 2
	}
	if r.lowRatingMinWords <= 0 {
		r.lowRatingMinWords = 4
	}

	seen := make(map[string]struct{})
	for _, category := range sortedKeys(file.Words) {
		for _, w := range file.Words[category] {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			r.words = append(r.words, w)
		}
	}
	// one typed word must never count as two matches
	for i, a := range r.words {
		for j, b := range r.words {
			if i != j && strings.Contains(a, b) {
				return nil, fmt.Errorf("word %q contains word %q", a, b)
			}
		}
	}

	for _, spec := range file.Patterns {
		switch spec.Kind {
		case PatternKindRegex, "":
			re, err := regexp.Compile(spec.Expr)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: %w", spec.Name, err)
			}
			r.patterns = append(r.patterns, pattern{name: spec.Name, match: re.MatchString})
		case PatternKindRepeat:
			if spec.MinRun < 2 {
				return nil, fmt.Errorf("pattern %q: min_run must be at least 2", spec.Name)
			}
			n := spec.MinRun
			r.patterns = append(r.patterns, pattern{name: spec.Name, match: func(s string) bool {
				return hasRun(s, n)
			}})
		default:
			return nil, fmt.Errorf("pattern %q: unknown kind %q", spec.Name, spec.Kind)
		}
	}
	return r, nil
}

// Words returns a copy of the flattened word list.
func (r *Rules) Words() []string {
	out := make([]string, len(r.words))
	copy(out, r.words)
	return out
}

// hasRun reports whether s contains the same rune n or more times in a row.
func hasRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, c := range s {
		if i > 0 && c == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = c
	}
	return false
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
