package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

// CartService is the slice of the cart package the handlers need.
type CartService interface {
	Add(ctx context.Context, session domain.Session, productID primitive.ObjectID, variations map[string]string, quantity int) (*domain.Order, error)
	Update(ctx context.Context, session domain.Session, orderID primitive.ObjectID, variations map[string]string, quantity int) error
	Remove(ctx context.Context, session domain.Session, orderID primitive.ObjectID) error
	List(ctx context.Context, session domain.Session) ([]domain.Order, error)
}

type CartHandler struct {
	cart CartService
}

func NewCartHandler(cart CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type AddToCartRequestDTO struct {
	ProductID  string            `json:"product_id"`
	Variations map[string]string `json:"variations"`
	Quantity   int               `json:"quantity"`
}

type UpdateCartItemRequestDTO struct {
	Variations map[string]string `json:"variations"`
	Quantity   int               `json:"quantity"`
}

// POST /api/v1/cart
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddToCartRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	order, err := h.cart.Add(r.Context(), session, productID, req.Variations, req.Quantity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	items, err := h.cart.List(r.Context(), session)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if items == nil {
		items = []domain.Order{}
	}

	respondJSON(w, http.StatusOK, items)
}

// PUT /api/v1/cart/{order_id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid object id")
		return
	}

	var req UpdateCartItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.cart.Update(r.Context(), session, orderID, req.Variations, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DELETE /api/v1/cart/{order_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a valid object id")
		return
	}

	if err := h.cart.Remove(r.Context(), session, orderID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
