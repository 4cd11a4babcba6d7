package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

const defaultNotificationLimit = 50

type NotificationHandler struct {
	notifications repository.NotificationRepository
	tokens        repository.TokenRepository
}

func NewNotificationHandler(notifications repository.NotificationRepository, tokens repository.TokenRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, tokens: tokens}
}

type RegisterTokenRequestDTO struct {
	Token string `json:"token"`
}

// GET /api/v1/notifications?limit=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	limit := int64(defaultNotificationLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	notifications, err := h.notifications.ListByUser(r.Context(), session.UserID, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}

	respondJSON(w, http.StatusOK, notifications)
}

// POST /api/v1/notifications/{notification_id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "notification_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_notification_id", "notification_id must be a valid object id")
		return
	}

	if err := h.notifications.MarkRead(r.Context(), notificationID, session.UserID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "read"})
}

// PUT /api/v1/notifications/push-token
func (h *NotificationHandler) RegisterToken(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req RegisterTokenRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "missing_token", "token is required")
		return
	}

	err := h.tokens.Save(r.Context(), &domain.PushToken{
		UserID:    session.UserID,
		Token:     req.Token,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}
