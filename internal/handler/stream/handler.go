package stream

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/edubridge/tutor/backend/internal/handler/session"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/pkg/log"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Handler streams session events to the browser over Server-Sent Events.
type Handler struct {
	sessions  *chatservice.Service
	keepAlive time.Duration
}

// New creates the stream handler.
func New(sessions *chatservice.Service) *Handler {
	return &Handler{sessions: sessions, keepAlive: keepAliveInterval}
}

// RegisterRoutes mounts the event stream on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	loop, err := h.sessions.Get(sessionID)
	if err != nil {
		utils.RespondError(w, session.StatusFor(err), err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, unsubscribe := loop.Subscribe()
	defer unsubscribe()

	ctx := r.Context()
	snapshot, err := loop.Snapshot(ctx)
	if err != nil {
		utils.RespondError(w, session.StatusFor(err), err.Error())
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	log.Infow("event stream opened", "session", sessionID)

	initial := chatservice.Event{Type: chatservice.EventSnapshot, SessionID: sessionID, Snapshot: snapshot}
	if err := utils.SendSSEEvent(w, flusher, string(initial.Type), initial); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Infow("event stream closed by client", "session", sessionID)
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, string(ev.Type), ev); err != nil {
				return
			}
			if ev.Type == chatservice.EventClosed {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return
			}
		}
	}
}
