package tone

import (
	"strings"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
)

// Tone is the delivery style suggested to the browser synthesizer.
type Tone string

const (
	Neutral     Tone = "neutral"
	Cheerful    Tone = "cheerful"
	Excited     Tone = "excited"
	Gentle      Tone = "gentle"
	Encouraging Tone = "encouraging"

	// struggling only describes the student; it is never returned.
	struggling Tone = "struggling"
)

// Decision is the tone for one spoken reply and how strongly to apply it,
// from 1 to 5.
type Decision struct {
	Tone      Tone    `json:"tone"`
	Intensity float32 `json:"intensity"`
	Score     int     `json:"-"`
}

var keywordBuckets = map[Tone][]string{
	Cheerful: {
		"great", "good job", "well done", "awesome", "yay", "😊", "🙂", "👏", "🤗",
		"बहुत अच्छा", "शाबाश", "அருமை", "சூப்பர்", "చాలా బాగుంది", "భలే",
	},
	Excited: {
		"wow", "amazing", "magic", "imagine", "🎉", "✨", "🌟", "⚡", "🚀",
		"वाह", "कल्पना", "ஆஹா", "கற்பனை", "వావ్", "ఊహించు",
	},
	Gentle: {
		"slowly", "step by step", "let's try", "don't worry", "it's okay",
		"धीरे", "चिंता मत", "மெதுவாக", "கவலைப்படாதே", "నెమ్మదిగా", "చింతించకు",
	},
	struggling: {
		"don't understand", "dont understand", "confused", "too hard", "difficult", "i can't", "help me",
		"समझ नहीं", "मुश्किल", "புரியவில்லை", "கடினம்", "అర్థం కాలేదు", "కష్టం",
	},
}

var punctuationBoost = map[Tone]int{
	Cheerful: 2,
	Excited:  3,
}

// Analyze picks the tone for reply. A struggling student always gets an
// encouraging delivery; otherwise the reply's own wording decides and the
// student's mood is used only when the reply is flat.
func Analyze(utterance, reply string) Decision {
	if score := strugglingScore(utterance); score > 0 {
		return withIntensity(Decision{Tone: Encouraging, Score: score})
	}

	user := scoreText(utterance)
	final := scoreText(reply)
	if final.Score == 0 && user.Score > 0 {
		final = user
	}
	if final.Score == 0 {
		return Decision{Tone: Neutral, Intensity: 3}
	}
	return withIntensity(final)
}

func withIntensity(d Decision) Decision {
	intensity := 2 + float32(d.Score)/4
	switch d.Tone {
	case Excited:
		intensity++
	case Gentle, Encouraging:
		intensity = min(intensity, 3.5)
	}
	d.Intensity = max(1, min(intensity, 5))
	return d
}

// strugglingScore counts struggle keywords on their own so punctuation can
// never outrank them.
func strugglingScore(text string) int {
	return keywordScore(topic.Normalize(text), keywordBuckets[struggling])
}

func keywordScore(normalized string, keywords []string) int {
	if normalized == "" {
		return 0
	}
	score := 0
	for _, word := range keywords {
		if strings.Contains(normalized, topic.Normalize(word)) {
			score += 3
		}
	}
	return score
}

func scoreText(text string) Decision {
	normalized := topic.Normalize(text)
	if normalized == "" {
		return Decision{Tone: Neutral}
	}

	scores := make(map[Tone]int)
	for label, keywords := range keywordBuckets {
		if label == struggling {
			continue
		}
		scores[label] = keywordScore(normalized, keywords)
	}

	if exclamations := strings.Count(text, "!"); exclamations > 0 {
		scores[Excited] += exclamations * punctuationBoost[Excited]
		if exclamations == 1 {
			scores[Cheerful] += punctuationBoost[Cheerful]
		}
	}

	best := Neutral
	bestScore := 0
	for _, label := range []Tone{Excited, Cheerful, Gentle} {
		if scores[label] > bestScore {
			best = label
			bestScore = scores[label]
		}
	}
	return Decision{Tone: best, Score: bestScore}
}
