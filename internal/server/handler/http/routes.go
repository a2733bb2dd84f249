package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/middleware"
	"github.com/atinyakov/winnermind/internal/models"
	"github.com/atinyakov/winnermind/internal/service"
)

// Handlers groups every handler of the API.
type Handlers struct {
	Auth       *AuthHandler
	Settings   *SettingsHandler
	Goals      *GoalsHandler
	Challenges *ChallengesHandler
	Programs   *ProgramsHandler
	Admin      *AdminHandler
}

// NewHandlers builds the handlers over the workspace manager.
func NewHandlers(ws Workspaces, resolver *service.SettingsResolver, identity IdentityService, logger *zap.Logger) Handlers {
	b := base{Workspaces: ws, Log: logger}
	return Handlers{
		Auth:       &AuthHandler{base: b, Identity: identity},
		Settings:   &SettingsHandler{base: b, Resolver: resolver},
		Goals:      &GoalsHandler{base: b},
		Challenges: &ChallengesHandler{base: b},
		Programs:   &ProgramsHandler{base: b},
		Admin:      &AdminHandler{base: b},
	}
}

// NewRouter constructs the HTTP handler of the API.
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") rejects non-JSON bodies
//  2. WithRequestLogging(logger) logs every request
//  3. SessionAuth(auth) attaches the session of a bearer token
//
// Everything except register, login and the settings read needs a session;
// catalog writes and /api/admin need a privileged one.
func NewRouter(
	h Handlers,
	auth middleware.Authenticator,
	privileged func(*models.Session) bool,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.SessionAuth(auth))

	admin := middleware.RequirePrivileged(privileged)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/settings", h.Settings.Get)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)

			r.Post("/logout", h.Auth.Logout)
			r.Patch("/settings", h.Settings.Update)

			r.Route("/goals", func(r chi.Router) {
				r.Get("/", h.Goals.List)
				r.Post("/", h.Goals.Create)
				r.Get("/categories", h.Goals.Categories)
				r.Get("/stream", h.Goals.Stream)
				r.Patch("/{id}", h.Goals.Update)
				r.Delete("/{id}", h.Goals.Delete)
				r.Post("/{id}/subgoals", h.Goals.AddSubGoal)
				r.Patch("/{id}/subgoals/{subID}", h.Goals.UpdateSubGoal)
				r.Delete("/{id}/subgoals/{subID}", h.Goals.DeleteSubGoal)
			})

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", h.Challenges.List)
				r.Post("/{id}/participants", h.Challenges.Join)
				r.Delete("/{id}/participants", h.Challenges.Leave)
				r.With(admin).Post("/", h.Challenges.Create)
				r.With(admin).Patch("/{id}", h.Challenges.Update)
				r.With(admin).Delete("/{id}", h.Challenges.Delete)
			})

			r.Route("/programs", func(r chi.Router) {
				r.Get("/", h.Programs.List)
				r.With(admin).Post("/", h.Programs.Create)
				r.With(admin).Patch("/{id}", h.Programs.Update)
				r.With(admin).Delete("/{id}", h.Programs.Delete)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)
				r.Get("/users", h.Admin.List)
				r.Put("/users/{id}/role", h.Admin.UpdateRole)
				r.Delete("/users/{id}", h.Admin.Delete)
				r.Get("/settings/global", h.Settings.GetGlobal)
				r.Put("/settings/global", h.Settings.PutGlobal)
			})
		})
	})

	return r
}
