package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
)

type orderRepository struct {
	collection *mongo.Collection
}

func newOrderRepository(db *mongo.Database) *orderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	var order domain.Order

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (r *orderRepository) Insert(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = oid
	}
	return nil
}

func (r *orderRepository) Replace(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": order.ID}, order)
	if err != nil {
		return fmt.Errorf("failed to replace order: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id primitive.ObjectID, buyerID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "buyer_id": buyerID})
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) UpdateCartItem(ctx context.Context, id primitive.ObjectID, buyerID string, variations map[string]string, quantity int) error {
	filter := bson.M{
		"_id":      id,
		"buyer_id": buyerID,
		"status":   domain.OrderStatusAddedToCart,
	}
	update := bson.M{
		"$set": bson.M{
			"variations": variations,
			"quantity":   quantity,
			"updated_at": time.Now(),
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ListByBuyerStatus(ctx context.Context, buyerID string, status domain.OrderStatus) ([]domain.Order, error) {
	filter := bson.M{"buyer_id": buyerID, "status": status}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// ListBySeller returns everything that has been through checkout for this
// seller, newest first. Cart entries (no ordered_at yet) are excluded.
func (r *orderRepository) ListBySeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	filter := bson.M{"seller_id": sellerID, "ordered_at": bson.M{"$ne": nil}}
	opts := options.Find().SetSort(bson.D{{Key: "ordered_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode seller orders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) MarkShipping(ctx context.Context, id primitive.ObjectID, confirmedAt time.Time) error {
	return r.setStatus(ctx, id, bson.M{
		"status":       domain.OrderStatusShipping,
		"confirmed_at": confirmedAt,
		"updated_at":   time.Now(),
	})
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, cancelledAt time.Time) error {
	return r.setStatus(ctx, id, bson.M{
		"status":       domain.OrderStatusCancelled,
		"cancelled_at": cancelledAt,
		"updated_at":   time.Now(),
	})
}

func (r *orderRepository) MarkShipped(ctx context.Context, id primitive.ObjectID, shippedAt time.Time) error {
	return r.setStatus(ctx, id, bson.M{
		"status":     domain.OrderStatusShipped,
		"shipped_at": shippedAt,
		"updated_at": time.Now(),
	})
}

func (r *orderRepository) MarkReviewed(ctx context.Context, id primitive.ObjectID) error {
	return r.setStatus(ctx, id, bson.M{
		"reviewed":   true,
		"updated_at": time.Now(),
	})
}

func (r *orderRepository) setStatus(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
