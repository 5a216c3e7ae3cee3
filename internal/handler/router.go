package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/handler/live"
	"github.com/zhouzirui/z-meeting/internal/handler/profile"
	"github.com/zhouzirui/z-meeting/internal/handler/session"
	"github.com/zhouzirui/z-meeting/internal/handler/voice"
	middlewarePkg "github.com/zhouzirui/z-meeting/internal/middleware"
	meetingService "github.com/zhouzirui/z-meeting/internal/service/meeting"
	"github.com/zhouzirui/z-meeting/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(svc *meetingService.Service, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	profileHandler := profile.New(svc)
	sessionHandler := session.New(svc)
	voiceHandler := voice.New(svc)
	liveHandler := live.New(svc, logger)

	r.Route("/api", func(api chi.Router) {
		api.Get("/", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondMessage(w, http.StatusOK, "AI Meeting Assistant API")
		})

		profileHandler.RegisterRoutes(api)
		sessionHandler.RegisterRoutes(api)
		voiceHandler.RegisterRoutes(api)
		liveHandler.RegisterRoutes(api)
	})

	return r
}
