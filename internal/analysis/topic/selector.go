package topic

import (
	_ "embed"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

// Topic is the coarse subject bucket a canned reply is chosen from.
type Topic string

const (
	Electricity Topic = "electricity"
	Fractions   Topic = "fractions"
	Verbs       Topic = "verbs"
	Default     Topic = "default"
)

//go:embed responses.yaml
var responsesYAML []byte

var defaultSelector = MustParse(responsesYAML)

type rule struct {
	topic    Topic
	keywords []string
}

// Selector picks a canned reply by keyword. It is read-only after Parse and
// safe for concurrent use.
type Selector struct {
	rules   []rule
	replies map[chat.Language]map[Topic]string
}

type tableFile struct {
	Rules []struct {
		Topic    Topic    `yaml:"topic"`
		Keywords []string `yaml:"keywords"`
	} `yaml:"rules"`
	Replies map[chat.Language]map[Topic]string `yaml:"replies"`
}

// Parse builds a Selector from a YAML table. English must define every topic
// and every supported language must define a default reply.
func Parse(data []byte) (*Selector, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse response table: %w", err)
	}

	selector := &Selector{replies: make(map[chat.Language]map[Topic]string, len(file.Replies))}

	for _, r := range file.Rules {
		if r.Topic == "" || r.Topic == Default {
			return nil, fmt.Errorf("rule topic %q is not selectable", r.Topic)
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, keyword := range r.Keywords {
			if normalized := Normalize(keyword); normalized != "" {
				keywords = append(keywords, normalized)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("rule %q has no keywords", r.Topic)
		}
		selector.rules = append(selector.rules, rule{topic: r.Topic, keywords: keywords})
	}

	for lang, replies := range file.Replies {
		table := make(map[Topic]string, len(replies))
		for t, text := range replies {
			if text = strings.TrimSpace(text); text != "" {
				table[t] = text
			}
		}
		selector.replies[lang] = table
	}

	english, ok := selector.replies[chat.English]
	if !ok {
		return nil, fmt.Errorf("response table has no %q entries", chat.English)
	}
	for _, r := range selector.rules {
		if _, ok := english[r.topic]; !ok {
			return nil, fmt.Errorf("%q table is missing topic %q", chat.English, r.topic)
		}
	}
	for _, lang := range chat.Languages() {
		table, ok := selector.replies[lang]
		if !ok {
			return nil, fmt.Errorf("response table has no %q entries", lang)
		}
		if _, ok := table[Default]; !ok {
			return nil, fmt.Errorf("%q table is missing the default reply", lang)
		}
	}

	return selector, nil
}

// MustParse is Parse for tables compiled into the binary.
func MustParse(data []byte) *Selector {
	selector, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return selector
}

// DefaultSelector returns the selector built from the bundled tables.
func DefaultSelector() *Selector {
	return defaultSelector
}

// Select is DefaultSelector().Select.
func Select(utterance string, lang chat.Language) string {
	return defaultSelector.Select(utterance, lang)
}

// Normalize folds case and composes the text so keyword tests are
// case-insensitive across scripts.
func Normalize(text string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(text)))
}

// Classify returns the first topic whose keywords occur in the utterance.
func (s *Selector) Classify(utterance string) Topic {
	normalized := Normalize(utterance)
	if normalized == "" {
		return Default
	}

	for _, r := range s.rules {
		for _, keyword := range r.keywords {
			if strings.Contains(normalized, keyword) {
				return r.topic
			}
		}
	}
	return Default
}

// Select returns the reply for the utterance in the requested language.
// Languages without a table use English.
func (s *Selector) Select(utterance string, lang chat.Language) string {
	return s.Reply(s.Classify(utterance), lang)
}

// Reply looks up a topic entry, falling back to the English entry and then to
// the language's default.
func (s *Selector) Reply(t Topic, lang chat.Language) string {
	table, ok := s.replies[lang]
	if !ok {
		table = s.replies[chat.English]
	}
	if text, ok := table[t]; ok {
		return text
	}
	if text, ok := s.replies[chat.English][t]; ok {
		return text
	}
	if text, ok := table[Default]; ok {
		return text
	}
	return s.replies[chat.English][Default]
}

// Topics lists the selectable topics in evaluation order.
func (s *Selector) Topics() []Topic {
	topics := make([]Topic, 0, len(s.rules))
	for _, r := range s.rules {
		topics = append(topics, r.topic)
	}
	return topics
}
