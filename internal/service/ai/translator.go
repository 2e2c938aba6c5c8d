package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/pkg/log"
)

// Translator calls the translation endpoint. It never fails: on any error
// the original text comes back unchanged.
type Translator struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

type translationRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Domain         string `json:"domain"`
}

type translationResponse struct {
	TranslatedText string `json:"translated_text"`
}

// NewTranslator builds a translator. An empty endpoint disables translation.
func NewTranslator(endpoint, apiKey string, httpClient *http.Client) *Translator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Translator{endpoint: strings.TrimSpace(endpoint), apiKey: apiKey, http: httpClient}
}

// Enabled reports whether an endpoint is configured.
func (t *Translator) Enabled() bool {
	return t != nil && t.endpoint != ""
}

// Translate converts text between languages. The bool reports whether the
// endpoint produced the result.
func (t *Translator) Translate(ctx context.Context, text string, from, to chat.Language) (string, bool) {
	if !t.Enabled() || from == to || strings.TrimSpace(text) == "" {
		return text, false
	}

	body, err := json.Marshal(translationRequest{
		Text:           text,
		SourceLanguage: string(from),
		TargetLanguage: string(to),
		Domain:         "educational",
	})
	if err != nil {
		return text, false
	}

	var decoded translationResponse
	if err := postJSON(ctx, t.http, t.endpoint, t.apiKey, body, &decoded); err != nil {
		log.Warnw("translation failed", "from", from, "to", to, "error", err)
		return text, false
	}
	if decoded.TranslatedText == "" {
		return text, false
	}
	return decoded.TranslatedText, true
}
