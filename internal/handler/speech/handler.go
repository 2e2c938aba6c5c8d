package speech

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	speechmodel "github.com/edubridge/tutor/backend/internal/model/speech"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

// Handler serves the speech bridge: voice profiles over HTTP and the
// per-session websocket.
type Handler struct {
	sessions *chatservice.Service
}

// New creates the speech handler.
func New(sessions *chatservice.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/speech/profile", h.handleProfile)

	ws := NewWebSocketHandler(h.sessions)
	ws.RegisterWebSocketRoutes(r)
}

type profileResponse struct {
	speechmodel.VoiceProfile
	Greeting string `json:"greeting"`
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("language")
	lang := chat.English
	if raw != "" {
		parsed, ok := chat.ParseLanguage(raw)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+raw)
			return
		}
		lang = parsed
	}

	utils.RespondJSON(w, http.StatusOK, profileResponse{
		VoiceProfile: speechmodel.ResolveProfile(lang),
		Greeting:     speechmodel.Greeting(lang),
	})
}
