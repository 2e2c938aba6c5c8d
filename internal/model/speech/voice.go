package speech

import (
	"golang.org/x/text/language"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

// Browser speech settings shared by every language. Slightly slow and
// slightly high for young listeners.
const (
	DefaultRate   = 0.8
	DefaultPitch  = 1.1
	DefaultVolume = 0.9
)

var voiceTags = map[chat.Language]language.Tag{
	chat.English: language.AmericanEnglish,
	chat.Hindi:   language.MustParse("hi-IN"),
	chat.Tamil:   language.MustParse("ta-IN"),
	chat.Telugu:  language.MustParse("te-IN"),
}

var greetings = map[chat.Language]string{
	chat.English: "Hello! I'm EduBridge, ready to help you learn!",
	chat.Hindi:   "नमस्ते! मैं EduBridge हूँ, आपकी मदद करने के लिए तैयार हूँ!",
	chat.Tamil:   "வணக்கம்! நான் EduBridge, உங்களுக்கு கற்றுக் கொடுக்க தயார்!",
	chat.Telugu:  "నమస్కారం! నేను EduBridge, మీకు నేర్పడానికి సిద్ధంగా ఉన్నాను!",
}

// VoiceProfile is what the browser needs to configure recognition and
// synthesis for a language.
type VoiceProfile struct {
	Language chat.Language `json:"language"`
	Tag      string        `json:"tag"`
	Rate     float64       `json:"rate"`
	Pitch    float64       `json:"pitch"`
	Volume   float64       `json:"volume"`
}

// ResolveProfile returns the profile for lang; unknown codes get English.
func ResolveProfile(lang chat.Language) VoiceProfile {
	lang = lang.OrDefault()
	return VoiceProfile{
		Language: lang,
		Tag:      voiceTags[lang].String(),
		Rate:     DefaultRate,
		Pitch:    DefaultPitch,
		Volume:   DefaultVolume,
	}
}

// Greeting is the sample sentence used to test speech output.
func Greeting(lang chat.Language) string {
	return greetings[lang.OrDefault()]
}
