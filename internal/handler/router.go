package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/edubridge/tutor/backend/internal/analysis/topic"
	"github.com/edubridge/tutor/backend/internal/handler/catalog"
	"github.com/edubridge/tutor/backend/internal/handler/reply"
	"github.com/edubridge/tutor/backend/internal/handler/session"
	"github.com/edubridge/tutor/backend/internal/handler/speech"
	"github.com/edubridge/tutor/backend/internal/handler/stream"
	"github.com/edubridge/tutor/backend/internal/metrics"
	middlewarePkg "github.com/edubridge/tutor/backend/internal/middleware"
	aiService "github.com/edubridge/tutor/backend/internal/service/ai"
	chatService "github.com/edubridge/tutor/backend/internal/service/chat"
	"github.com/edubridge/tutor/backend/pkg/utils"
)

// Deps are the services the HTTP layer is built on. Sessions is required.
type Deps struct {
	Sessions       *chatService.Service
	Selector       *topic.Selector
	Translator     *aiService.Translator
	Metrics        *metrics.Metrics
	AllowedOrigins []string
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.AllowedOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": deps.Sessions.Count(),
		})
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		catalog.New().RegisterRoutes(api)
		session.New(deps.Sessions).RegisterRoutes(api)
		stream.New(deps.Sessions).RegisterRoutes(api)
		speech.New(deps.Sessions).RegisterRoutes(api)
		reply.New(deps.Selector, deps.Translator).RegisterRoutes(api)
	})

	return r
}
