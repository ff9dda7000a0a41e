package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/diewo77/go-materiel/httpx"
	"github.com/diewo77/go-materiel/i18n"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/services"
)

type CartHandler struct {
	cart *services.CartService
	log  *slog.Logger
}

func NewCartHandler(cart *services.CartService, log *slog.Logger) *CartHandler {
	return &CartHandler{cart: cart, log: log}
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Read(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cart)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body requestBody
	if !decode(w, r, &body) {
		return
	}
	item, err := h.cart.AddItem(r.Context(), principal(r), services.AddItemInput{
		MaterielID:  body.MaterielID,
		RequestType: body.RequestType,
		Description: body.Description,
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.cart.RemoveItem(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	httpx.NoContent(w)
}

type submitResponse struct {
	Message  string           `json:"message"`
	BatchID  string           `json:"batch_id"`
	Requests []models.Request `json:"requests"`
	Notified bool             `json:"notified"`
}

// Submit turns the cart into a batch of requests.
func (h *CartHandler) Submit(w http.ResponseWriter, r *http.Request) {
	res, err := h.cart.Submit(r.Context(), principal(r))
	if errors.Is(err, services.ErrInvalidState) {
		writeCode(w, r, http.StatusBadRequest, "cart_empty", nil)
		return
	}
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	code := "cart_submitted"
	if !res.Notified {
		code = "cart_submitted_nomail"
	}
	httpx.JSON(w, http.StatusOK, submitResponse{
		Message:  i18n.T(i18n.LangFromContext(r.Context()), code),
		BatchID:  res.BatchID,
		Requests: res.Requests,
		Notified: res.Notified,
	})
}
