package learning

import "strings"

var sequenceLevels = []string{"e0", "e1", "e2", "e3", "e4"}

// AccuracyCheck is one pass/fail heuristic of an accuracy report.
type AccuracyCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

type AccuracyReport struct {
	Target Target          `json:"target"`
	Parsed bool            `json:"parsed"`
	Checks []AccuracyCheck `json:"checks"`
	Score  float64         `json:"score"`
}

// EvaluateAnswer scores answer against the target parsed from question:
// the competency is named, a low ladder level (E0-E4) appears, and the
// target level appears. All three are case-insensitive substring checks, so
// "E1s" counts as naming E1. Score is passed/3. An unparseable question
// scores 0 with no checks.
func EvaluateAnswer(extractor StructuredExtractor, question, answer string) AccuracyReport {
	if extractor == nil {
		extractor = PhraseExtractor{}
	}
	target, ok := extractor.Extract(question)
	if !ok {
		return AccuracyReport{}
	}
	lower := strings.ToLower(answer)
	checks := []AccuracyCheck{
		{Name: "competency_named", Passed: strings.Contains(lower, strings.ToLower(target.Competency))},
		{Name: "sequence_present", Passed: containsAny(lower, sequenceLevels)},
		{Name: "target_level_named", Passed: strings.Contains(lower, strings.ToLower(target.Level))},
	}
	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}
	return AccuracyReport{
		Target: target,
		Parsed: true,
		Checks: checks,
		Score:  float64(passed) / float64(len(checks)),
	}
}

// ComputeAnswerAccuracy is EvaluateAnswer with the default phrase
// extractor, returning only the score.
func ComputeAnswerAccuracy(question, answer string) float64 {
	return EvaluateAnswer(PhraseExtractor{}, question, answer).Score
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
