package learning

import (
	"regexp"
	"strings"
)

// Target is a (competency, level) pair pulled out of a question.
type Target struct {
	Competency string `json:"competency"`
	Level      string `json:"level"`
}

// StructuredExtractor turns a free-text question into a Target. A false
// return means "no structured match" and is never an error.
type StructuredExtractor interface {
	Extract(question string) (Target, bool)
}

// ExtractorFunc adapts a function to StructuredExtractor.
type ExtractorFunc func(question string) (Target, bool)

func (f ExtractorFunc) Extract(question string) (Target, bool) { return f(question) }

// ExtractorChain tries each extractor in order and returns the first match.
type ExtractorChain []StructuredExtractor

func (c ExtractorChain) Extract(question string) (Target, bool) {
	for _, e := range c {
		if e == nil {
			continue
		}
		if t, ok := e.Extract(question); ok {
			return t, true
		}
	}
	return Target{}, false
}

var (
	completePhrase = regexp.MustCompile(`(?i)complete\s+"?(.+?)"?\s*\(Level:\s*(E\d+)`)
	levelToken     = regexp.MustCompile(`(?i)\bE\d+\b`)
)

// PhraseExtractor matches questions shaped like
// `How to complete Azure (Level: E1)`. The competency is the shortest span
// between "complete" and "(Level", optionally quoted.
type PhraseExtractor struct{}

func (PhraseExtractor) Extract(question string) (Target, bool) {
	m := completePhrase.FindStringSubmatch(question)
	if len(m) != 3 {
		return Target{}, false
	}
	name := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `"`))
	level := NormalizeLevel(m[2])
	if name == "" || level == "" {
		return Target{}, false
	}
	return Target{Competency: name, Level: level}, true
}

// LevelToken finds the first E<digits> token anywhere in text.
func LevelToken(text string) (string, bool) {
	tok := levelToken.FindString(text)
	if tok == "" {
		return "", false
	}
	return NormalizeLevel(tok), true
}

// MatchCatalogName returns the catalog name contained in text,
// case-insensitively. When several match, the longest wins so "Azure DevOps"
// beats "Azure"; equal lengths keep the earliest name in the slice, which
// callers pass in ascending first-id order.
func MatchCatalogName(text string, names []string) (string, bool) {
	hay := strings.ToLower(text)
	best := ""
	for _, n := range names {
		needle := strings.ToLower(strings.TrimSpace(n))
		if needle == "" || !strings.Contains(hay, needle) {
			continue
		}
		if len(strings.TrimSpace(n)) > len(best) {
			best = strings.TrimSpace(n)
		}
	}
	return best, best != ""
}
