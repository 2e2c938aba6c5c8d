package reply

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/internal/service/ai"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

// Handler answers one-off questions without opening a session.
type Handler struct {
	selector   *topic.Selector
	translator *ai.Translator
}

// New creates the reply handler. A nil selector uses the embedded table and a
// nil translator echoes text back.
func New(selector *topic.Selector, translator *ai.Translator) *Handler {
	if selector == nil {
		selector = topic.DefaultSelector()
	}
	return &Handler{selector: selector, translator: translator}
}

// RegisterRoutes mounts the stateless endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reply", h.handleReply)
	r.Post("/translate", h.handleTranslate)
}

type replyRequest struct {
	Utterance string `json:"utterance"`
	Language  string `json:"language"`
}

type replyResponse struct {
	Reply    string        `json:"reply"`
	Topic    topic.Topic   `json:"topic"`
	Subject  topic.Subject `json:"subject"`
	Concepts []string      `json:"concepts"`
	Language chat.Language `json:"language"`
}

type translateRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

type translateResponse struct {
	Text       string        `json:"text"`
	From       chat.Language `json:"from"`
	To         chat.Language `json:"to"`
	Translated bool          `json:"translated"`
}

func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var payload replyRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang, ok := parseLanguage(payload.Language)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+payload.Language)
		return
	}

	t := h.selector.Classify(payload.Utterance)
	text := h.selector.Reply(t, lang)
	utils.RespondJSON(w, http.StatusOK, replyResponse{
		Reply:    text,
		Topic:    t,
		Subject:  topic.DetectSubject(payload.Utterance),
		Concepts: topic.ExtractConcepts(text),
		Language: lang,
	})
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var payload translateRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}

	from, ok := parseLanguage(payload.From)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+payload.From)
		return
	}
	to, ok := parseLanguage(payload.To)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+payload.To)
		return
	}

	text, translated := h.translator.Translate(r.Context(), payload.Text, from, to)
	utils.RespondJSON(w, http.StatusOK, translateResponse{
		Text:       text,
		From:       from,
		To:         to,
		Translated: translated,
	})
}

// parseLanguage treats an empty code as English.
func parseLanguage(raw string) (chat.Language, bool) {
	if strings.TrimSpace(raw) == "" {
		return chat.English, true
	}
	return chat.ParseLanguage(raw)
}
