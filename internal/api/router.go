package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/livescribe/internal/config"
	"github.com/yegors/livescribe/internal/translation"
	"github.com/yegors/livescribe/internal/websocket"
	"github.com/yegors/livescribe/pkg/logger"
)

// Router wires the HTTP endpoints
type Router struct {
	handler  *Handler
	static   *StaticFileHandler
	wsServer *websocket.Server
	config   *config.Config
	logger   *logger.Logger
}

// NewRouter creates the router. wsServer may be nil to disable /ws.
func NewRouter(cfg *config.Config, provider translation.Provider, wsServer *websocket.Server, log *logger.Logger) *Router {
	return &Router{
		handler:  NewHandler(cfg, provider, log),
		static:   NewStaticFileHandler(cfg.Server.StaticFilesDir, cfg.IsProduction(), log),
		wsServer: wsServer,
		config:   cfg,
		logger:   log.Named("router"),
	}
}

// Routes returns the HTTP handler for all endpoints
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(Recoverer(rt.logger))
	r.Use(SecurityHeaders)
	if rt.config.IsProduction() && rt.config.Server.ForceHTTPS {
		r.Use(ForceHTTPS)
	}

	// The upgrade needs the raw connection, so it stays outside compression
	if rt.wsServer != nil {
		r.Get("/ws", rt.wsServer.HandleConnection)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))

		r.Get("/health", rt.handler.GetHealth)

		r.Route("/api", func(r chi.Router) {
			r.Get("/config", rt.handler.GetConfig)
			r.Get("/languages", rt.handler.GetLanguages)
			r.Post("/translate", rt.handler.Translate)
			r.NotFound(func(w http.ResponseWriter, r *http.Request) {
				WriteError(w, http.StatusNotFound, "Not found")
			})
		})

		r.Get("/*", rt.static.ServeHTTP)
	})

	return r
}
