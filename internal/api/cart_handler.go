package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nikolayk812/tourcart/internal/cart"
	"github.com/nikolayk812/tourcart/internal/domain"
	"github.com/nikolayk812/tourcart/internal/port"
	"github.com/rs/zerolog"
)

const maxRequestBody = 1 << 20

type CartHandler struct {
	carts     *cart.Registry
	publisher port.BookingPublisher
}

func NewCartHandler(carts *cart.Registry, publisher port.BookingPublisher) *CartHandler {
	return &CartHandler{
		carts:     carts,
		publisher: publisher,
	}
}

type CartResponse struct {
	Profile     string            `json:"profile"`
	Items       []domain.LineItem `json:"items"`
	ItemCount   int               `json:"itemCount"`
	TotalAmount domain.Money      `json:"totalAmount"`
	IsOpen      bool              `json:"isOpen"`
}

type QuoteRequest struct {
	UnitPrice domain.Money   `json:"unitPrice"`
	Adults    int            `json:"adults"`
	Children  int            `json:"children"`
	Rental    *domain.Extra  `json:"rental,omitempty"`
	Addons    []domain.Extra `json:"addons,omitempty"`
}

type QuoteResponse struct {
	LineTotal domain.Money `json:"lineTotal"`
}

type OpenRequest struct {
	Open bool `json:"open"`
}

func (h *CartHandler) aggregator(w http.ResponseWriter, r *http.Request) (*cart.Aggregator, bool) {
	agg, err := h.carts.Get(r.Context(), chi.URLParam(r, "profile"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_profile", err.Error())
		return nil, false
	}
	return agg, true
}

// existing resolves the profile without registering it. A nil aggregator with
// ok set means the profile has no cart.
func (h *CartHandler) existing(w http.ResponseWriter, r *http.Request) (*cart.Aggregator, bool) {
	agg, err := h.carts.Find(r.Context(), chi.URLParam(r, "profile"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_profile", err.Error())
		return nil, false
	}
	return agg, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func emptyCartResponse(profile string) CartResponse {
	return CartResponse{
		Profile:     profile,
		Items:       []domain.LineItem{},
		TotalAmount: domain.Cart{}.TotalAmount(),
	}
}

func cartResponse(agg *cart.Aggregator) CartResponse {
	snap := agg.Snapshot()
	items := snap.Items
	if items == nil {
		items = []domain.LineItem{}
	}

	return CartResponse{
		Profile:     snap.OwnerID,
		Items:       items,
		ItemCount:   snap.ItemCount(),
		TotalAmount: snap.TotalAmount(),
		IsOpen:      agg.IsOpen(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.existing(w, r)
	if !ok {
		return
	}
	if agg == nil {
		respondJSON(w, r, http.StatusOK, emptyCartResponse(chi.URLParam(r, "profile")))
		return
	}

	respondJSON(w, r, http.StatusOK, cartResponse(agg))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}

	var in domain.LineItemInput
	if !decode(w, r, &in) {
		return
	}

	item, err := agg.Add(r.Context(), in)
	if err != nil {
		respondItemError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, item)
}

func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.existing(w, r)
	if !ok {
		return
	}
	if agg == nil {
		respondError(w, r, http.StatusNotFound, "not_found", "item not found")
		return
	}

	var patch domain.LineItemPatch
	if !decode(w, r, &patch) {
		return
	}

	item, found, err := agg.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if !found {
		respondError(w, r, http.StatusNotFound, "not_found", "item not found")
		return
	}
	if err != nil {
		respondItemError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.existing(w, r)
	if !ok {
		return
	}
	if agg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	agg.Remove(r.Context(), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.existing(w, r)
	if !ok {
		return
	}
	if agg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	agg.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) SetOpen(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.aggregator(w, r)
	if !ok {
		return
	}

	var req OpenRequest
	if !decode(w, r, &req) {
		return
	}

	agg.SetOpen(req.Open)
	respondJSON(w, r, http.StatusOK, cartResponse(agg))
}

func (h *CartHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Adults < 1 || req.Children < 0 || req.Children > domain.MaxChildren {
		respondError(w, r, http.StatusBadRequest, "invalid_guests",
			fmt.Sprintf("adults must be at least 1 and children between 0 and %d", domain.MaxChildren))
		return
	}

	total, err := domain.Quote{
		UnitPrice: req.UnitPrice,
		Adults:    req.Adults,
		Children:  req.Children,
		Rental:    req.Rental,
		Addons:    req.Addons,
	}.LineTotal()
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_quote", err.Error())
		return
	}

	respondJSON(w, r, http.StatusOK, QuoteResponse{LineTotal: total})
}

func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	agg, ok := h.existing(w, r)
	if !ok {
		return
	}
	if agg == nil {
		respondError(w, r, http.StatusConflict, "empty_cart", cart.ErrEmptyCart.Error())
		return
	}

	confirmed, err := cart.Checkout(r.Context(), agg, h.publisher)
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		respondError(w, r, http.StatusConflict, "empty_cart", err.Error())
		return
	case err != nil:
		respondInternal(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, confirmed)
}

func respondItemError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidItem):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_item", err.Error())
	case errors.Is(err, cart.ErrLineCheckingOut):
		respondError(w, r, http.StatusConflict, "checking_out", err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
}
