package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterConfig wires the handlers served by NewRouter.
type RouterConfig struct {
	Auth          *AuthHandler
	Departments   *DepartmentHandler
	Platform      *PlatformHandler
	Presentations *PresentationHandler
	Guard         SessionGuard
	Logger        *slog.Logger
}

// NewRouter builds the gateway routes. Everything under /plateforme passes
// through RequireSession.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)
	responder := newResponder(logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responder.writeError(req.Context(), w, http.StatusMethodNotAllowed, nil)
	})

	r.Get("/", cfg.Auth.Home)
	r.Get(LoginPath, cfg.Auth.Home)
	r.Post(LoginPath, cfg.Auth.Login)
	r.Post("/deconnexion", cfg.Auth.Logout)
	r.Post("/inscription", cfg.Auth.Register)
	r.Post("/mot-de-passe-oublie", cfg.Auth.ForgotPassword)
	r.Post("/changer-mot-de-passe", cfg.Auth.ChangePassword)

	r.Route("/departements", func(r chi.Router) {
		r.Get("/", cfg.Departments.List)
		r.Post("/", cfg.Departments.Create)
		r.Get("/test", cfg.Departments.TestConnection)
		r.Get("/{id}", cfg.Departments.Get)
		r.Put("/{id}", cfg.Departments.Update)
		r.Delete("/{id}", cfg.Departments.Delete)
	})

	r.Route("/plateforme", func(r chi.Router) {
		r.Use(RequireSession(cfg.Guard, logger))

		r.Get("/", cfg.Platform.Dashboard)
		r.Get("/calendrier", cfg.Platform.Calendar)
		r.Get("/recherche", cfg.Platform.Search)

		r.Get("/notifications", cfg.Platform.Notifications)
		r.Put("/notifications/lu", cfg.Platform.MarkAllRead)
		r.Put("/notifications/{id}/lu", cfg.Platform.MarkRead)
		r.Delete("/notifications/{id}", cfg.Platform.DeleteNotification)

		r.Get("/profil", cfg.Auth.Profile)
		r.Put("/profil", cfg.Auth.UpdateProfile)

		r.Get("/presentations", cfg.Presentations.List)
		r.Post("/presentations", cfg.Presentations.Create)
		r.Get("/presentations/{id}", cfg.Presentations.Detail)
		r.Put("/presentations/{id}", cfg.Presentations.Update)
		r.Delete("/presentations/{id}", cfg.Presentations.Delete)
		r.Post("/presentations/{id}/commentaires", cfg.Presentations.AddComment)
		r.Post("/presentations/{id}/votes", cfg.Presentations.CastVote)

		r.Put("/commentaires/{id}", cfg.Presentations.UpdateComment)
		r.Delete("/commentaires/{id}", cfg.Presentations.DeleteComment)
		r.Delete("/votes/{id}", cfg.Presentations.DeleteVote)
	})

	return r
}
