package projection

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

// View is a live, filtered projection of orders for one viewer. It owns the
// underlying stream: Run consumes changes until the context is cancelled or
// Close is called, mirroring the subscribe-on-entry / unsubscribe-on-teardown
// listener lifecycle.
type View struct {
	idx     *StatusIndex
	stream  Stream
	log     *zap.Logger
	updates chan struct{}
}

func NewView(stream Stream, log *zap.Logger) *View {
	return &View{
		idx:     NewStatusIndex(),
		stream:  stream,
		log:     log,
		updates: make(chan struct{}, 1),
	}
}

func (v *View) Run(ctx context.Context) {
	defer close(v.updates)
	for {
		change, err := v.stream.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			v.log.Warn("order change stream ended", zap.Error(err))
			return
		}
		v.idx.Apply(change)
		v.notify()
	}
}

// Updates signals after each applied change; receivers drain it to re-read
// buckets. The channel is closed when the stream ends.
func (v *View) Updates() <-chan struct{} {
	return v.updates
}

func (v *View) Bucket(status domain.OrderStatus) []domain.Order {
	return v.idx.Bucket(status)
}

func (v *View) Counts() map[domain.OrderStatus]int {
	return v.idx.Counts()
}

func (v *View) Close(ctx context.Context) error {
	return v.stream.Close(ctx)
}

func (v *View) notify() {
	select {
	case v.updates <- struct{}{}:
	default: // a signal is already pending
	}
}

// Seed applies an initial result set before live changes start flowing.
func (v *View) Seed(orders []domain.Order) {
	for i := range orders {
		v.idx.Apply(Change{
			Kind:    ChangeUpsert,
			OrderID: orders[i].ID.Hex(),
			Order:   &orders[i],
		})
	}
}
