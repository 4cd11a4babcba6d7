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

type productRepository struct {
	collection *mongo.Collection
}

func newProductRepository(db *mongo.Database) *productRepository {
	return &productRepository{
		collection: db.Collection("products"),
	}
}

func (r *productRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	var product domain.Product

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

func (r *productRepository) Insert(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	res, err := r.collection.InsertOne(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		product.ID = oid
	}
	return nil
}

func (r *productRepository) Replace(ctx context.Context, product *domain.Product) error {
	product.UpdatedAt = time.Now()

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID, "seller_id": product.SellerID}, product)
	if err != nil {
		return fmt.Errorf("failed to replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID, sellerID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "seller_id": sellerID})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	query := bson.M{}
	if filter.SellerID != "" {
		query["seller_id"] = filter.SellerID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if filter.Limit > 0 {
		opts = opts.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []domain.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *productRepository) SetStocks(ctx context.Context, id primitive.ObjectID, sellerID string, stocks []domain.StockEntry) error {
	filter := bson.M{"_id": id, "seller_id": sellerID}
	update := bson.M{
		"$set": bson.M{
			"stocks":     stocks,
			"updated_at": time.Now(),
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set stocks: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) AddImage(ctx context.Context, id primitive.ObjectID, sellerID, url string) error {
	filter := bson.M{"_id": id, "seller_id": sellerID}
	update := bson.M{
		"$push": bson.M{"images": url},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ApplyShipment moves stock into the sold counter for one shipment. The caller
// decides stockIndex inside the same transaction that read the product, so the
// positional update cannot land on a stale entry.
func (r *productRepository) ApplyShipment(ctx context.Context, id primitive.ObjectID, stockIndex, quantity int) error {
	if stockIndex < 0 {
		return ErrStockIndexOutOfRange
	}

	filter := bson.M{
		"_id": id,
		fmt.Sprintf("stocks.%d", stockIndex): bson.M{"$exists": true},
	}
	update := bson.M{
		"$inc": bson.M{
			"sold": quantity,
			fmt.Sprintf("stocks.%d.quantity", stockIndex): -quantity,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to apply shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrStockIndexOutOfRange
	}
	return nil
}

func (r *productRepository) AppendReview(ctx context.Context, id primitive.ObjectID, review domain.Review) error {
	update := bson.M{
		"$push": bson.M{"reviews": review},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to append review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}
