package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/projection"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// LiveHandler streams order snapshots over SSE. Each connection owns one
// change stream scoped to the caller, seeded with the current result set and
// updated incrementally, so the client never re-fetches the full list.
type LiveHandler struct {
	orders repository.OrderRepository
	log    *zap.Logger
}

func NewLiveHandler(orders repository.OrderRepository, log *zap.Logger) *LiveHandler {
	return &LiveHandler{orders: orders, log: log}
}

type LiveSnapshotDTO struct {
	Counts  map[domain.OrderStatus]int            `json:"counts"`
	Buckets map[domain.OrderStatus][]domain.Order `json:"buckets"`
}

// GET /api/v1/shop/orders/live
func (h *LiveHandler) ShopOrders(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	h.stream(w, r, repository.ViewFilter{SellerID: session.UserID}, func(ctx context.Context) ([]domain.Order, error) {
		return h.orders.ListBySeller(ctx, session.UserID)
	})
}

// GET /api/v1/purchases/live
func (h *LiveHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	h.stream(w, r, repository.ViewFilter{BuyerID: session.UserID}, func(ctx context.Context) ([]domain.Order, error) {
		var all []domain.Order
		for _, status := range []domain.OrderStatus{
			domain.OrderStatusOrdered,
			domain.OrderStatusShipping,
			domain.OrderStatusShipped,
			domain.OrderStatusCancelled,
		} {
			orders, err := h.orders.ListByBuyerStatus(ctx, session.UserID, status)
			if err != nil {
				return nil, err
			}
			all = append(all, orders...)
		}
		return all, nil
	})
}

func (h *LiveHandler) stream(
	w http.ResponseWriter,
	r *http.Request,
	filter repository.ViewFilter,
	seed func(ctx context.Context) ([]domain.Order, error),
) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming unsupported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	changes, err := h.orders.Watch(ctx, filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	view := projection.NewView(changes, h.log)
	closeView := func() {
		if err := view.Close(context.Background()); err != nil {
			h.log.Warn("failed to close change stream", zap.Error(err))
		}
	}

	initial, err := seed(ctx)
	if err != nil {
		closeView()
		handleServiceError(w, err)
		return
	}
	view.Seed(initial)

	done := make(chan struct{})
	go func() {
		defer close(done)
		view.Run(ctx)
	}()
	// Run owns the stream while it lives; stop it before closing the stream,
	// the two must never touch it concurrently.
	defer func() {
		cancel()
		<-done
		closeView()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeSnapshot(w, view); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case _, open := <-view.Updates():
			if !open {
				return
			}
			if err := writeSnapshot(w, view); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSnapshot(w http.ResponseWriter, view *projection.View) error {
	snapshot := LiveSnapshotDTO{
		Counts:  view.Counts(),
		Buckets: make(map[domain.OrderStatus][]domain.Order),
	}
	for _, status := range []domain.OrderStatus{
		domain.OrderStatusOrdered,
		domain.OrderStatusShipping,
		domain.OrderStatusShipped,
		domain.OrderStatusCancelled,
	} {
		snapshot.Buckets[status] = view.Bucket(status)
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
