package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

type BlobHandler struct {
	blobs storage.BlobStore
	log   *zap.Logger
}

func NewBlobHandler(blobs storage.BlobStore, log *zap.Logger) *BlobHandler {
	return &BlobHandler{blobs: blobs, log: log}
}

// GET /api/v1/uploads/*
func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		respondError(w, http.StatusBadRequest, "missing_key", "blob key is required")
		return
	}

	stream, err := h.blobs.Open(r.Context(), key)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, stream); err != nil {
		h.log.Warn("failed to stream blob", zap.String("key", key), zap.Error(err))
	}
}
