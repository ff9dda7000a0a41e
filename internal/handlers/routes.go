package handlers

import (
	"log/slog"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/internal/services"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers of every resource.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	MaterialTypes *MaterialTypeHandler
	Materiels     *MaterielHandler
	Localisations *LocalisationHandler
	Requests      *RequestHandler
	Cart          *CartHandler
}

func New(svc *services.Services, tokens *auth.TokenIssuer, log *slog.Logger) *Handlers {
	return &Handlers{
		Auth:          NewAuthHandler(svc.Users, tokens, log),
		Users:         NewUserHandler(svc.Users, log),
		MaterialTypes: NewMaterialTypeHandler(svc.MaterialTypes, log),
		Materiels:     NewMaterielHandler(svc.Materiels, log),
		Localisations: NewLocalisationHandler(svc.Localisations, log),
		Requests:      NewRequestHandler(svc.Requests, log),
		Cart:          NewCartHandler(svc.Cart, log),
	}
}

// Public mounts the routes reachable without a token.
func (h *Handlers) Public(r chi.Router) {
	r.Post("/token", h.Auth.Token)
}

// Protected mounts the routes that need an authenticated caller. Admin-only
// operations are refused by the services, not here.
func (h *Handlers) Protected(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.Users.List)
		r.Post("/", h.Users.Create)
		r.Get("/me", h.Users.Me)
		r.Delete("/{id}", h.Users.Delete)
	})
	r.Route("/material_types", func(r chi.Router) {
		r.Get("/", h.MaterialTypes.List)
		r.Post("/", h.MaterialTypes.Create)
		r.Put("/{id}", h.MaterialTypes.Update)
		r.Delete("/{id}", h.MaterialTypes.Delete)
	})
	r.Route("/materiels", func(r chi.Router) {
		r.Get("/", h.Materiels.List)
		r.Post("/", h.Materiels.Create)
		r.Get("/{id}", h.Materiels.Get)
		r.Put("/{id}", h.Materiels.Update)
		r.Delete("/{id}", h.Materiels.Delete)
	})
	r.Route("/localisations", func(r chi.Router) {
		r.Get("/", h.Localisations.List)
		r.Post("/", h.Localisations.Create)
		r.Get("/{id}", h.Localisations.Get)
		r.Put("/{id}", h.Localisations.Update)
		r.Delete("/{id}", h.Localisations.Delete)
	})
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.Requests.List)
		r.Post("/", h.Requests.Create)
		r.Post("/direct", h.Requests.CreateDirect)
		r.Get("/{id}", h.Requests.Get)
		r.Put("/{id}", h.Requests.UpdateStatus)
		r.Delete("/{id}", h.Requests.Delete)
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Cart.Get)
		r.Post("/items", h.Cart.AddItem)
		r.Delete("/items/{id}", h.Cart.RemoveItem)
		r.Post("/submit", h.Cart.Submit)
	})
}
