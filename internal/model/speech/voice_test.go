package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/edubridge/tutor/backend/internal/model/chat"
)

func TestResolveProfile(t *testing.T) {
	cases := map[chat.Language]string{
		chat.English:        "en-US",
		chat.Hindi:          "hi-IN",
		chat.Tamil:          "ta-IN",
		chat.Telugu:         "te-IN",
		chat.Language("fr"): "en-US",
	}

	for lang, tag := range cases {
		profile := ResolveProfile(lang)
		assert.Equal(t, tag, profile.Tag, lang)
		assert.InDelta(t, 0.8, profile.Rate, 1e-9)
		assert.InDelta(t, 1.1, profile.Pitch, 1e-9)
		assert.InDelta(t, 0.9, profile.Volume, 1e-9)
	}
}

func TestGreetingCoversEveryLanguage(t *testing.T) {
	for _, lang := range chat.Languages() {
		assert.NotEmpty(t, Greeting(lang), lang)
	}
	assert.Equal(t, Greeting(chat.English), Greeting(chat.Language("xx")))
}
