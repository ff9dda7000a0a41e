package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
)

type MaterialTypeHandler struct {
	types *services.MaterialTypeService
	log   *slog.Logger
}

func NewMaterialTypeHandler(types *services.MaterialTypeService, log *slog.Logger) *MaterialTypeHandler {
	return &MaterialTypeHandler{types: types, log: log}
}

type materialTypeBody struct {
	Name string `json:"name"`
}

func (h *MaterialTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.types.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *MaterialTypeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body materialTypeBody
	if !decode(w, r, &body) {
		return
	}
	mt, err := h.types.Create(r.Context(), principal(r), body.Name)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mt)
}

func (h *MaterialTypeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body materialTypeBody
	if !decode(w, r, &body) {
		return
	}
	mt, err := h.types.Update(r.Context(), principal(r), id, body.Name)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mt)
}

func (h *MaterialTypeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.types.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}
