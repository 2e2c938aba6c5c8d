package topic

import (
	"strings"
	"unicode"
)

// Subject is the curriculum area used as a hint for the model endpoint.
type Subject string

const (
	Math     Subject = "math"
	Science  Subject = "science"
	Language Subject = "language"
	General  Subject = "general"
)

var subjectBuckets = []struct {
	subject  Subject
	keywords []string
}{
	{subject: Math, keywords: []string{"math", "number", "addition", "subtraction", "multiplication", "division", "fraction", "decimal", "geometry"}},
	{subject: Science, keywords: []string{"science", "physics", "chemistry", "biology", "electricity", "magnet", "gravity", "water", "plant", "animal"}},
	{subject: Language, keywords: []string{"language", "grammar", "verb", "noun", "sentence", "spelling", "reading", "writing"}},
}

const maxConcepts = 5

// DetectSubject buckets a question into a subject; math wins over science,
// science over language.
func DetectSubject(query string) Subject {
	normalized := Normalize(query)
	for _, bucket := range subjectBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(normalized, keyword) {
				return bucket.subject
			}
		}
	}
	return General
}

// ExtractConcepts returns up to five distinct capitalised words longer than
// three letters, in order of appearance.
func ExtractConcepts(text string) []string {
	seen := make(map[string]struct{})
	concepts := make([]string, 0, maxConcepts)

	for _, word := range strings.Split(text, " ") {
		clean := strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && unicode.IsLetter(r) {
				return r
			}
			return -1
		}, word)

		if len(clean) <= 3 || !unicode.IsUpper(rune(clean[0])) {
			continue
		}
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		concepts = append(concepts, clean)
		if len(concepts) == maxConcepts {
			break
		}
	}

	return concepts
}
