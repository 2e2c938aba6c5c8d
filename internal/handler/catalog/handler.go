package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

// Handler serves the static catalogs the client renders from.
type Handler struct{}

// New creates the catalog handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the catalog endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleLanguages)
}

type languageEntry struct {
	chat.LanguageInfo
	Welcome string `json:"welcome"`
}

func (h *Handler) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	catalog := chat.Catalog()
	entries := make([]languageEntry, 0, len(catalog))
	for _, info := range catalog {
		entries = append(entries, languageEntry{LanguageInfo: info, Welcome: chat.WelcomeText(info.Code)})
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"default":   chat.English,
		"languages": entries,
	})
}
