package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
)

type UserHandler struct {
	users *services.UserService
	log   *slog.Logger
}

func NewUserHandler(users *services.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
		IsAdmin  bool   `json:"is_admin"`
	}
	if !decode(w, r, &body) {
		return
	}
	u, err := h.users.Create(r.Context(), principal(r), services.UserInput{
		Username: body.Username,
		Password: body.Password,
		IsAdmin:  body.IsAdmin,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

// Me returns the caller's own account.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.Get(r.Context(), principal(r).ID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}
