package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/metrics"
	"imaginarium/internal/model"
	"imaginarium/internal/push"
	"imaginarium/internal/repository"
)

// Notifier creates a notification for a recipient. EngagementService
// depends on this rather than on NotificationService directly.
type Notifier interface {
	Create(ctx context.Context, recipientID int64, title, message, icon string) (*model.Notification, error)
}

// NotificationService persists notifications and hands them to the push
// transport. Push delivery is best effort; it never fails the caller.
type NotificationService struct {
	notifRepo  repository.NotificationRepository
	userRepo   repository.UserRepository
	sender     push.Sender
	dispatcher push.Dispatcher // nil disables push
	log        logrus.FieldLogger
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	sender push.Sender,
	dispatcher push.Dispatcher,
	log logrus.FieldLogger,
) *NotificationService {
	return &NotificationService{
		notifRepo:  notifRepo,
		userRepo:   userRepo,
		sender:     sender,
		dispatcher: dispatcher,
		log:        logger.Component(log, "NotificationService"),
	}
}

// Create stores the notification, then tries to push it to the recipient's
// device. Only the insert can fail the call.
func (s *NotificationService) Create(ctx context.Context, recipientID int64, title, message, icon string) (*model.Notification, error) {
	n := &model.Notification{
		UserID:  recipientID,
		Title:   title,
		Message: message,
		Icon:    icon,
	}
	if err := s.notifRepo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	metrics.RecordNotification()

	s.dispatch(ctx, n)
	return n, nil
}

func (s *NotificationService) dispatch(ctx context.Context, n *model.Notification) {
	if s.dispatcher == nil || s.sender == nil {
		return
	}
	log := s.log.WithFields(logrus.Fields{"user_id": n.UserID, "notification_id": n.ID})

	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		log.WithError(err).Warn("push skipped: recipient lookup failed")
		metrics.RecordPushDispatch("failed")
		return
	}
	if user.PushToken == nil || !s.sender.ValidToken(*user.PushToken) {
		metrics.RecordPushDispatch("skipped")
		return
	}

	msg := push.Message{
		To:    *user.PushToken,
		Title: n.Title,
		Body:  n.Message,
		Data:  map[string]string{"icon": n.Icon},
	}
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		log.WithError(err).Warn("push dispatch failed")
		metrics.RecordPushDispatch("failed")
		return
	}
	metrics.RecordPushDispatch("dispatched")
}

// MarkRead updates the read/dismissed flags of the caller's notification.
// Someone else's notification is reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error) {
	if req.Empty() {
		return nil, model.ErrNoUpdateFields
	}
	return s.notifRepo.Update(ctx, notificationID, userID, req)
}

// List returns one page of notifications, newest first, with the unread
// badge count.
func (s *NotificationService) List(ctx context.Context, userID int64, page int) (*model.NotificationPage, error) {
	page, limit := model.NormalizePage(page, model.NotificationPageSize, model.NotificationPageSize, model.NotificationPageSize)

	total, unread, err := s.notifRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.notifRepo.ListByUser(ctx, userID, limit, model.Offset(page, limit))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Notification{}
	}

	return &model.NotificationPage{
		Notifications: items,
		UnreadCount:   unread,
		Pagination:    model.NewPagination(page, limit, total),
	}, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, userID)
}

// SavePushToken stores the device token used by later pushes. Tokens the
// transport would reject are refused up front.
func (s *NotificationService) SavePushToken(ctx context.Context, userID int64, token string) error {
	token = strings.TrimSpace(token)
	if token == "" || (s.sender != nil && !s.sender.ValidToken(token)) {
		return model.ErrInvalidPushToken
	}
	return s.userRepo.UpdatePushToken(ctx, userID, token)
}
