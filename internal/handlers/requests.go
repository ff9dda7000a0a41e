package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
)

type RequestHandler struct {
	requests *services.RequestService
	log      *slog.Logger
}

func NewRequestHandler(requests *services.RequestService, log *slog.Logger) *RequestHandler {
	return &RequestHandler{requests: requests, log: log}
}

type requestBody struct {
	MaterielID  uint    `json:"materiel_id"`
	RequestType string  `json:"request_type"`
	Description *string `json:"description"`
}

func (b requestBody) input() services.RequestInput {
	return services.RequestInput{MaterielID: b.MaterielID, RequestType: b.RequestType, Description: b.Description}
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.requests.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	req, err := h.requests.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if !decode(w, r, &body) {
		return
	}
	req, err := h.requests.Create(r.Context(), principal(r), body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

// CreateDirect files a request on behalf of the materiel's owner. Admin only.
func (h *RequestHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if !decode(w, r, &body) {
		return
	}
	req, err := h.requests.CreateDirect(r.Context(), principal(r), body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, req)
}

func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	req, err := h.requests.UpdateStatus(r.Context(), principal(r), id, body.Status)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *RequestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.requests.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}
