package moderation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Severity is ordered: None < Low < Medium < High.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	default:
		return "none"
	}
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// raise returns the larger of s and to.
func (s Severity) raise(to Severity) Severity {
	if to > s {
		return to
	}
	return s
}

const (
	reasonWords        = "Palavras inadequadas detectadas: %s"
	reasonPattern      = "Padrão suspeito detectado"
	reasonShort        = "Comentário muito curto"
	reasonLowRating    = "Avaliação baixa com linguagem ofensiva"
	manualReviewPrefix = "Requer revisão manual: "
	issueSeparator     = "; "
)

// Verdict is the outcome of classifying one comment.
type Verdict struct {
	Approved bool     `json:"approved"`
	Severity Severity `json:"severity"`
	Reason   *string  `json:"reason"`
}

// Classifier applies a compiled rule set. It holds no mutable state and is
// safe for concurrent use.
type Classifier struct {
	rules *Rules
}

// New builds a classifier over rules.
func New(rules *Rules) *Classifier {
	return &Classifier{rules: rules}
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the classifier built from the embedded rule file.
func Default() *Classifier {
	defaultOnce.Do(func() {
		rules, err := ParseRules(defaultRules)
		if err != nil {
			panic(fmt.Sprintf("moderation: embedded rules are invalid: %v", err))
		}
		defaultClassifier = New(rules)
	})
	return defaultClassifier
}

// Classify is a shortcut for Default().Classify.
func Classify(comment *string, rating int) Verdict {
	return Default().Classify(comment, rating)
}

// Classify scores a feedback comment together with its rating.
func (c *Classifier) Classify(comment *string, rating int) Verdict {
	if comment == nil || strings.TrimSpace(*comment) == "" {
		return Verdict{Approved: true, Severity: SeverityNone}
	}
	text := *comment
	lower := strings.ToLower(text)

	var (
		issues   []string
		severity = SeverityNone
	)

	var found []string
	for _, w := range c.rules.words {
		if strings.Contains(lower, w) {
			found = append(found, w)
		}
	}
	if len(found) > 0 {
		issues = append(issues, fmt.Sprintf(reasonWords, strings.Join(found, ", ")))
		if len(found) > 2 {
			severity = severity.raise(SeverityHigh)
		} else {
			severity = severity.raise(SeverityMedium)
		}
	}

	for _, p := range c.rules.patterns {
		if p.match(text) {
			issues = append(issues, reasonPattern)
			severity = severity.raise(SeverityMedium)
			break
		}
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < c.rules.minLength {
		issues = append(issues, reasonShort)
		severity = severity.raise(SeverityLow)
	}

	if rating <= c.rules.lowRatingMax && len(found) >= c.rules.lowRatingMinWords {
		issues = append(issues, reasonLowRating)
		severity = severity.raise(SeverityHigh)
	}

	return decide(severity, issues)
}

func decide(severity Severity, issues []string) Verdict {
	joined := strings.Join(issues, issueSeparator)
	switch severity {
	case SeverityHigh:
		return Verdict{Approved: false, Severity: severity, Reason: &joined}
	case SeverityMedium:
		reason := manualReviewPrefix + joined
		return Verdict{Approved: false, Severity: severity, Reason: &reason}
	case SeverityLow:
		if joined == "" {
			return Verdict{Approved: true, Severity: severity}
		}
		return Verdict{Approved: true, Severity: severity, Reason: &joined}
	default:
		return Verdict{Approved: true, Severity: SeverityNone}
	}
}
