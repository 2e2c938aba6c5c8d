package ai

import (
	"context"
	"errors"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
	"github.com/edubridge/tutor/backend/internal/model/chat"
)

// ErrNetworkFailure marks a reply collaborator that could not be reached or
// answered with an error status.
var ErrNetworkFailure = errors.New("reply collaborator unavailable")

// Difficulty of the material the student is working on.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// AgeGroup of the student.
type AgeGroup string

const (
	Child AgeGroup = "child"
	Teen  AgeGroup = "teen"
	Adult AgeGroup = "adult"
)

// Reply sources reported in metrics and API responses.
const (
	SourceStatic   = "static"
	SourceModel    = "model"
	SourceChat     = "chat_model"
	SourceFallback = "fallback"
)

const (
	defaultModelConfidence = 0.85
	staticConfidence       = 0.7
)

// Query is one student question plus the learning context around it.
type Query struct {
	Utterance  string        `json:"utterance"`
	Subject    topic.Subject `json:"subject"`
	Difficulty Difficulty    `json:"difficulty"`
	AgeGroup   AgeGroup      `json:"ageGroup"`
	Language   chat.Language `json:"language"`
}

// NewQuery fills the context a tutoring session implies: beginner material
// for a child, subject detected from the utterance.
func NewQuery(utterance string, lang chat.Language) Query {
	return Query{
		Utterance:  utterance,
		Subject:    topic.DetectSubject(utterance),
		Difficulty: Beginner,
		AgeGroup:   Child,
		Language:   lang.OrDefault(),
	}
}

func (q Query) withDefaults() Query {
	if q.Subject == "" {
		q.Subject = topic.DetectSubject(q.Utterance)
	}
	if q.Difficulty == "" {
		q.Difficulty = Beginner
	}
	if q.AgeGroup == "" {
		q.AgeGroup = Child
	}
	q.Language = q.Language.OrDefault()
	return q
}

// Reply is a collaborator's answer.
type Reply struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Subject    topic.Subject `json:"subject"`
	Concepts   []string      `json:"concepts"`
	Source     string        `json:"source"`
}

// Responder answers a tutoring query.
type Responder interface {
	Respond(ctx context.Context, q Query) (*Reply, error)
}

func newReply(q Query, text string, confidence float64, source string) *Reply {
	return &Reply{
		Text:       text,
		Confidence: confidence,
		Subject:    q.Subject,
		Concepts:   topic.ExtractConcepts(text),
		Source:     source,
	}
}
