package learning

import (
	"fmt"
	"strings"

	types "github.com/yungbote/competency-advisor/internal/domain"
)

const (
	// NoMatchAnswer is returned when retrieval finds nothing.
	NoMatchAnswer = "No matching competency found in database."
	// InsufficientContextAnswer is the sentence the model is told to emit
	// when the context cannot answer the question.
	InsufficientContextAnswer = "I cannot find this information in the competency database."
)

// Source is the caller-facing citation of one catalog row.
type Source struct {
	CompetencyID int64  `json:"competency_id"`
	Name         string `json:"name"`
	FocusArea    string `json:"focus_area"`
	Level        string `json:"level"`
}

func SourcesOf(rows []*types.Competency) []Source {
	out := make([]Source, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, Source{
			CompetencyID: r.ID,
			Name:         r.Name,
			FocusArea:    r.FocusArea,
			Level:        r.ProficiencyLevel,
		})
	}
	return out
}

// ContextBlock renders rows as the context section of the answer prompt.
func ContextBlock(rows []*types.Competency) string {
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf(
			"Competency: %s\nDescription: %s\nCategory: %s\nFocus Area: %s\nProficiency: %s",
			r.Name, r.Description, r.Category, r.FocusArea, r.ProficiencyLevel,
		))
	}
	return strings.Join(parts, "\n\n")
}

// BuildAnswerPrompt constrains the model to the retrieved context.
func BuildAnswerPrompt(question string, rows []*types.Competency) string {
	var b strings.Builder
	b.WriteString("You are a competency assistant.\n")
	b.WriteString("Answer ONLY using the provided context.\n")
	b.WriteString("If information is not present, say:\n")
	fmt.Fprintf(&b, "%q\n\n", InsufficientContextAnswer)
	b.WriteString("Context:\n")
	b.WriteString(ContextBlock(rows))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer clearly and concisely using the context.\n")
	return b.String()
}

// EmbeddingText is the document embedded for a catalog row.
func EmbeddingText(r *types.Competency) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf(
		"Competency Name: %s\nDescription: %s\nCategory: %s\nFocus Area: %s\nSub Focus Area: %s\nMicroskills: %s\nProficiency Level: %s",
		r.Name, r.Description, r.Category, r.FocusArea, r.SubFocusArea, r.Microskills, r.ProficiencyLevel,
	)
}
