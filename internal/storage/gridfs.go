package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists uploaded binaries (product photos, chat images).
type BlobStore interface {
	Save(ctx context.Context, entity, ownerID, purpose string, r io.Reader) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// GridFSStore keeps blobs next to the documents that reference them, so one
// database backup captures both. Keys look like products/<id>/image/<uuid>.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(db *mongo.Database) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName("uploads"))
	if err != nil {
		return nil, fmt.Errorf("failed to create gridfs bucket: %w", err)
	}
	return &GridFSStore{bucket: bucket}, nil
}

func (s *GridFSStore) Save(ctx context.Context, entity, ownerID, purpose string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s/%s/%s", entity, ownerID, purpose, uuid.NewString())
	if _, err := s.bucket.UploadFromStream(key, r); err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return key, nil
}

func (s *GridFSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stream, err := s.bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return stream, nil
}

func (s *GridFSStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cursor, err := s.bucket.FindContext(ctx, map[string]interface{}{"filename": key})
	if err != nil {
		return fmt.Errorf("failed to find blob: %w", err)
	}
	defer cursor.Close(ctx)

	var file struct {
		ID interface{} `bson:"_id"`
	}
	if !cursor.Next(ctx) {
		return ErrBlobNotFound
	}
	if err := cursor.Decode(&file); err != nil {
		return fmt.Errorf("failed to decode blob metadata: %w", err)
	}
	return s.bucket.DeleteContext(ctx, file.ID)
}
