package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/httputil"
	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/transport/http/middleware"
)

type NotificationService interface {
	List(ctx context.Context, userID int64, page int) (*model.NotificationPage, error)
	MarkRead(ctx context.Context, notificationID, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	SavePushToken(ctx context.Context, userID int64, token string) error
}

type NotificationHandler struct {
	notifService NotificationService
	log          logrus.FieldLogger
}

func NewNotificationHandler(notifService NotificationService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
		log:          logger.Component(log, "NotificationHandler"),
	}
}

// List handles GET /notifications?page=
// Returns 20 notifications per page, newest first, plus the unread count.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	page, ok := parseIntQuery(r, "page")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid page parameter")
		return
	}

	notifications, err := h.notifService.List(r.Context(), userID, page)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("list notifications")
		httputil.WriteInternalError(w, "Failed to get notifications")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Notifications retrieved successfully", notifications)
}

// Update handles PATCH /notifications/{id}
// Body: {"isRead": bool, "dismissed": bool}, at least one required.
func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	notificationID, ok := parseIDParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid notification ID")
		return
	}

	var req model.UpdateNotificationRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	notification, err := h.notifService.MarkRead(r.Context(), notificationID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoUpdateFields):
			httputil.WriteBadRequest(w, "At least one of isRead or dismissed is required")
		case errors.Is(err, model.ErrNotificationNotFound):
			httputil.WriteNotFound(w, "Notification not found or unauthorized")
		default:
			h.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "notification_id": notificationID}).Error("update notification")
			httputil.WriteInternalError(w, "Failed to update notification")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Notification updated successfully", notification)
}

// MarkAllRead handles POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	updated, err := h.notifService.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("mark all read")
		httputil.WriteInternalError(w, "Failed to mark notifications as read")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "All notifications marked as read", map[string]int64{"updated": updated})
}

// SavePushToken handles POST /notifications/push-token
func (h *NotificationHandler) SavePushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SavePushTokenRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.notifService.SavePushToken(r.Context(), userID, req.Token); err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidPushToken):
			httputil.WriteBadRequest(w, "Invalid push token")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		default:
			h.log.WithError(err).WithField("user_id", userID).Error("save push token")
			httputil.WriteInternalError(w, "Failed to save push token")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Push token saved successfully", nil)
}
