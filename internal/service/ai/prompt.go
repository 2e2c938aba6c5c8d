package ai

import (
	"fmt"
	"strings"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

const tutorPreamble = `You are EduBridge, an AI tutor specifically designed for children from underprivileged backgrounds. Your goal is to:

1. Explain concepts in simple, step-by-step language
2. Use relatable examples from everyday life
3. Be encouraging and patient
4. Focus on building foundational understanding
5. Use appropriate language level for the age group`

var tutorGuidelines = []string{
	"Keep explanations under 150 words",
	"Use emojis to make content engaging",
	"Provide practical examples",
	"Ask follow-up questions to check understanding",
	"Be culturally sensitive and inclusive",
}

// BuildSystemPrompt renders the tutor instructions for the query's context.
func BuildSystemPrompt(q Query) string {
	q = q.withDefaults()

	var b strings.Builder
	b.WriteString(tutorPreamble)
	b.WriteString("\n\nContext:\n")
	fmt.Fprintf(&b, "- Subject: %s\n", q.Subject)
	fmt.Fprintf(&b, "- Difficulty: %s\n", q.Difficulty)
	fmt.Fprintf(&b, "- Age Group: %s\n", q.AgeGroup)
	fmt.Fprintf(&b, "- Language: %s\n", q.Language)
	b.WriteString("\nGuidelines:\n- ")
	b.WriteString(strings.Join(tutorGuidelines, "\n- "))
	if q.Language != chat.English {
		fmt.Fprintf(&b, "\n- Answer in %s", languageName(q.Language))
	}
	return b.String()
}

// BuildPrompt is the single-string form sent to completion endpoints.
func BuildPrompt(q Query) string {
	return fmt.Sprintf("%s\n\nStudent Question: %s\n\nResponse:", BuildSystemPrompt(q), q.Utterance)
}

func languageName(l chat.Language) string {
	for _, info := range chat.Catalog() {
		if info.Code == l {
			return info.Name
		}
	}
	return string(l)
}
