package main

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/i18n"
	"github.com/diewo77/go-materiel/internal/config"
	"github.com/diewo77/go-materiel/internal/db"
	"github.com/diewo77/go-materiel/internal/handlers"
	"github.com/diewo77/go-materiel/internal/middleware"
	"github.com/diewo77/go-materiel/internal/services"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// App is the main application handler that sets up all routes.
type App struct {
	router chi.Router
	db     *gorm.DB
	log    *slog.Logger
}

// NewApp wires the router: global middleware, public routes, then the
// routes that need a bearer token.
func NewApp(cfg *config.Config, gdb *gorm.DB, svc *services.Services, tokens *auth.TokenIssuer, log *slog.Logger) *App {
	a := &App{router: chi.NewRouter(), db: gdb, log: log}
	authn := auth.NewAuthenticator(tokens, svc.Users.Resolve)
	h := handlers.New(svc, tokens, log)

	r := a.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.StripSlashes)
	r.Use(middleware.Prefs)
	r.Use(authn.Middleware)

	// Public routes
	r.Get("/", a.welcome)
	r.Get("/healthz", a.health)
	r.Handle("/metrics", promhttp.Handler())
	h.Public(r)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)
		h.Protected(r)
	})
	return a
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

func (a *App) welcome(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"message": i18n.T(i18n.LangFromContext(r.Context()), "welcome"),
	})
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), a.db); err != nil {
		a.log.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
