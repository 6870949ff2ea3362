package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/attendance-console-go/internal/config"
	"github.com/cmlabs-hris/attendance-console-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-console-go/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

func NewRouter(
	cfg *config.Config,
	sessions *session.Manager,
	authHandler AuthHandler,
	mapHandler MapHandler,
	directoryHandler DirectoryHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-console"),
		slog.String("version", "v1.0.0"),
		slog.String("env", cfg.App.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.App.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		r.Post("/auth/login", authHandler.Login)

		// Requires a dashboard session
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionRequired(sessions))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/session", authHandler.Session)

			r.Route("/map", func(r chi.Router) {
				r.Get("/markers", mapHandler.Markers)
				r.Put("/viewport", mapHandler.SetViewport)
				r.Post("/zoom-to", mapHandler.ZoomTo)
				r.Delete("/state", mapHandler.ResetState)
				r.Get("/stream", mapHandler.Stream)
			})

			r.Route("/resources/{kind}", func(r chi.Router) {
				r.Get("/", directoryHandler.List)
				r.Post("/", directoryHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", directoryHandler.Get)
					r.Put("/", directoryHandler.Update)
					r.Delete("/", directoryHandler.Delete)
				})
			})
		})
	})
	return r
}
