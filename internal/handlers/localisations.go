package handlers

import (
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
)

type LocalisationHandler struct {
	localisations *services.LocalisationService
	log           *slog.Logger
}

func NewLocalisationHandler(localisations *services.LocalisationService, log *slog.Logger) *LocalisationHandler {
	return &LocalisationHandler{localisations: localisations, log: log}
}

type localisationBody struct {
	NomEtablissement   string `json:"nom_etablissement"`
	Secteur            string `json:"secteur"`
	NumeroChambre      string `json:"numero_chambre"`
	NomCompletResident string `json:"nom_complet_resident"`
	OwnerID            *uint  `json:"owner_id"`
}

func (b localisationBody) input() services.LocalisationInput {
	return services.LocalisationInput{
		NomEtablissement:   b.NomEtablissement,
		Secteur:            b.Secteur,
		NumeroChambre:      b.NumeroChambre,
		NomCompletResident: b.NomCompletResident,
		OwnerID:            b.OwnerID,
	}
}

func (h *LocalisationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.localisations.List(r.Context(), principal(r), r.URL.Query().Get("search_query"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *LocalisationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	loc, err := h.localisations.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loc)
}

func (h *LocalisationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body localisationBody
	if !decode(w, r, &body) {
		return
	}
	loc, err := h.localisations.Create(r.Context(), principal(r), body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, loc)
}

func (h *LocalisationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body localisationBody
	if !decode(w, r, &body) {
		return
	}
	loc, err := h.localisations.Update(r.Context(), principal(r), id, body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loc)
}

func (h *LocalisationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.localisations.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}
