package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/projection"
)

// ViewFilter scopes a live subscription to one viewer. Exactly one of the two
// fields should be set.
type ViewFilter struct {
	BuyerID  string
	SellerID string
}

// Watch opens a change stream over the orders collection scoped to the filter.
// Cart entries never belong to a live view, so the match drops them server
// side. Deletes cannot be matched against the full document and pass through
// unfiltered; the projection index drops ids it never indexed.
func (r *orderRepository) Watch(ctx context.Context, filter ViewFilter) (projection.Stream, error) {
	notCart := bson.M{"$ne": domain.OrderStatusAddedToCart}

	match := bson.M{"operationType": "delete"}
	switch {
	case filter.BuyerID != "":
		match = bson.M{"$or": bson.A{
			bson.M{
				"fullDocument.buyer_id": filter.BuyerID,
				"fullDocument.status":   notCart,
			},
			bson.M{"operationType": "delete"},
		}}
	case filter.SellerID != "":
		match = bson.M{"$or": bson.A{
			bson.M{
				"fullDocument.seller_id": filter.SellerID,
				"fullDocument.status":    notCart,
			},
			bson.M{"operationType": "delete"},
		}}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	cs, err := r.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open order change stream: %w", err)
	}

	return &changeStream{cs: cs}, nil
}

type changeStream struct {
	cs *mongo.ChangeStream
}

type changeDocument struct {
	OperationType string        `bson:"operationType"`
	FullDocument  *domain.Order `bson:"fullDocument"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

func (s *changeStream) Next(ctx context.Context) (projection.Change, error) {
	for s.cs.Next(ctx) {
		var doc changeDocument
		if err := s.cs.Decode(&doc); err != nil {
			return projection.Change{}, fmt.Errorf("failed to decode change event: %w", err)
		}

		switch doc.OperationType {
		case "delete":
			return projection.Change{
				Kind:    projection.ChangeDelete,
				OrderID: doc.DocumentKey.ID.Hex(),
			}, nil
		case "insert", "update", "replace":
			// fullDocument can be absent when the document was deleted
			// between the update and the lookup; skip those.
			if doc.FullDocument == nil {
				continue
			}
			return projection.Change{
				Kind:    projection.ChangeUpsert,
				OrderID: doc.FullDocument.ID.Hex(),
				Order:   doc.FullDocument,
			}, nil
		default:
			continue
		}
	}

	if err := s.cs.Err(); err != nil {
		return projection.Change{}, err
	}
	return projection.Change{}, ctx.Err()
}

func (s *changeStream) Close(ctx context.Context) error {
	return s.cs.Close(ctx)
}
