package session

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edubridge/tutor/backend/internal/model/chat"
	chatservice "github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

// Handler exposes tutoring sessions over REST.
type Handler struct {
	sessions *chatservice.Service
}

// New creates the session handler.
func New(sessions *chatservice.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts /sessions on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(sr chi.Router) {
		sr.Post("/", h.handleCreate)
		sr.Route("/{sessionID}", func(s chi.Router) {
			s.Get("/", h.handleGet)
			s.Delete("/", h.handleEnd)
			s.Post("/messages", h.handleSubmit)
			s.Put("/language", h.handleLanguage)
		})
	})
}

type languageRequest struct {
	Language string `json:"language"`
}

type submitRequest struct {
	Text string `json:"text"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	// An empty body, chunked or not, selects the defaults.
	var payload languageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang := chat.English
	if payload.Language != "" {
		parsed, ok := chat.ParseLanguage(payload.Language)
		if !ok {
			utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+payload.Language)
			return
		}
		lang = parsed
	}

	snapshot, err := h.sessions.CreateSession(r.Context(), lang)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, snapshot)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.sessions.Snapshot(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) handleEnd(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(chi.URLParam(r, "sessionID")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload submitRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.sessions.Submit(r.Context(), chi.URLParam(r, "sessionID"), payload.Text)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusAccepted, msg)
}

func (h *Handler) handleLanguage(w http.ResponseWriter, r *http.Request) {
	var payload languageRequest
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lang, ok := chat.ParseLanguage(payload.Language)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported language: "+payload.Language)
		return
	}

	snapshot, err := h.sessions.ChangeLanguage(r.Context(), chi.URLParam(r, "sessionID"), lang)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

// StatusFor maps session errors onto HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound), errors.Is(err, chatservice.ErrSessionClosed):
		return http.StatusNotFound
	case errors.Is(err, chatservice.ErrEmptyMessage), errors.Is(err, chatservice.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, chatservice.ErrReplyPending), errors.Is(err, chatservice.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	utils.RespondError(w, StatusFor(err), err.Error())
}
