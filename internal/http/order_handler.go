package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// LifecycleService is the slice of the lifecycle package the handlers need.
type LifecycleService interface {
	Checkout(ctx context.Context, session domain.Session, orderIDs []primitive.ObjectID) ([]domain.Order, error)
	Confirm(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error)
	Cancel(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error)
	ConfirmShipped(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error)
	SubmitReview(ctx context.Context, session domain.Session, id primitive.ObjectID, rating int, comment string) error
	BuyAgain(ctx context.Context, session domain.Session, id primitive.ObjectID) (*domain.Order, error)
}

type OrderHandler struct {
	lifecycle LifecycleService
	orders    repository.OrderRepository
}

func NewOrderHandler(lifecycle LifecycleService, orders repository.OrderRepository) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, orders: orders}
}

type CheckoutRequestDTO struct {
	OrderIDs []string `json:"order_ids"`
}

type CheckoutResponseDTO struct {
	Placed []domain.Order `json:"placed"`
	Failed string         `json:"failed,omitempty"` // id of the order that stopped the checkout
}

type ReviewRequestDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// POST /api/v1/checkout
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderIDs := make([]primitive.ObjectID, 0, len(req.OrderIDs))
	for _, raw := range req.OrderIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_order_id", "order ids must be valid object ids")
			return
		}
		orderIDs = append(orderIDs, id)
	}

	placed, err := h.lifecycle.Checkout(r.Context(), session, orderIDs)
	if err != nil {
		// partial success: some orders may already be placed
		if len(placed) > 0 {
			respondJSON(w, http.StatusMultiStatus, CheckoutResponseDTO{
				Placed: placed,
				Failed: req.OrderIDs[len(placed)],
			})
			return
		}
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CheckoutResponseDTO{Placed: placed})
}

// GET /api/v1/purchases?status=ORDERED
func (h *OrderHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	status := domain.OrderStatus(r.URL.Query().Get("status"))
	if !status.IsValid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be a valid order status")
		return
	}

	orders, err := h.orders.ListByBuyerStatus(r.Context(), session.UserID, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/shop/orders
func (h *OrderHandler) ListShopOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListBySeller(r.Context(), session.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// POST /api/v1/shop/orders/{order_id}/confirm
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Confirm)
}

// POST /api/v1/orders/{order_id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.Cancel)
}

// POST /api/v1/shop/orders/{order_id}/ship
func (h *OrderHandler) ConfirmShipped(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.lifecycle.ConfirmShipped)
}

func (h *OrderHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, domain.Session, primitive.ObjectID) (*domain.Order, error),
) {
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

	order, err := op(r.Context(), session, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// POST /api/v1/purchases/{order_id}/review
func (h *OrderHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
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

	var req ReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.lifecycle.SubmitReview(r.Context(), session, orderID, req.Rating, req.Comment); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"status": "reviewed"})
}

// POST /api/v1/purchases/{order_id}/buy-again
func (h *OrderHandler) BuyAgain(w http.ResponseWriter, r *http.Request) {
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

	clone, err := h.lifecycle.BuyAgain(r.Context(), session, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, clone)
}
