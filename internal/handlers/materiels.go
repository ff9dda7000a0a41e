package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/internal/services"
	"github.com/diewo77/go-materiel/validation"
)

type MaterielHandler struct {
	materiels *services.MaterielService
	log       *slog.Logger
}

func NewMaterielHandler(materiels *services.MaterielService, log *slog.Logger) *MaterielHandler {
	return &MaterielHandler{materiels: materiels, log: log}
}

type materielBody struct {
	MaterialTypeID   *uint   `json:"material_type_id"`
	ReferenceInterne *string `json:"reference_interne"`
	LocalisationID   *uint   `json:"localisation_id"`
	OwnerID          *uint   `json:"owner_id"`
	DateLivraison    *date   `json:"date_livraison"`
	DateReprise      *date   `json:"date_reprise"`
}

func (b materielBody) input() services.MaterielInput {
	return services.MaterielInput{
		MaterialTypeID:   b.MaterialTypeID,
		ReferenceInterne: b.ReferenceInterne,
		LocalisationID:   b.LocalisationID,
		OwnerID:          b.OwnerID,
		DateLivraison:    b.DateLivraison.ptr(),
		DateReprise:      b.DateReprise.ptr(),
	}
}

// List supports search_query, material_type_id, start_date/end_date on the
// delivery date and start_date_reprise/end_date_reprise on the pickup date.
func (h *MaterielHandler) List(w http.ResponseWriter, r *http.Request) {
	f, v := parseMaterielFilter(r)
	if !v.Empty() {
		writeServiceError(w, r, h.log, &services.ValidationError{Fields: v})
		return
	}
	list, err := h.materiels.List(r.Context(), principal(r), f)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func parseMaterielFilter(r *http.Request) (services.MaterielFilter, validation.Violations) {
	q := r.URL.Query()
	v := validation.Violations{}
	f := services.MaterielFilter{Search: q.Get("search_query")}
	if raw := q.Get("material_type_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 0)
		validation.Check("material_type_id", err == nil && id > 0, v)
		if err == nil {
			typeID := uint(id)
			f.MaterialTypeID = &typeID
		}
	}
	bound := func(field string, end bool) *time.Time {
		raw := q.Get(field)
		if raw == "" {
			return nil
		}
		t, dateOnly, err := parseDate(raw)
		if err != nil {
			v[field] = "invalid_value"
			return nil
		}
		if end && dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t
	}
	f.DeliveryFrom = bound("start_date", false)
	f.DeliveryTo = bound("end_date", true)
	f.PickupFrom = bound("start_date_reprise", false)
	f.PickupTo = bound("end_date_reprise", true)
	return f, v
}

func (h *MaterielHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.materiels.Get(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *MaterielHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body materielBody
	if !decode(w, r, &body) {
		return
	}
	m, err := h.materiels.Create(r.Context(), principal(r), body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *MaterielHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body materielBody
	if !decode(w, r, &body) {
		return
	}
	m, err := h.materiels.Update(r.Context(), principal(r), id, body.input())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *MaterielHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.materiels.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}
