package repository

import (
	"context"
	"time"

	"imaginarium/internal/model"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ClaimHandle(ctx context.Context, userID int64, handle string) error
	UpdatePushToken(ctx context.Context, userID int64, token string) error
	Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.UserSummary, error)
}

type ImageRepository interface {
	Create(ctx context.Context, image *model.Image) error
	SetImageURL(ctx context.Context, id int64, url string) error
}

type CreationRepository interface {
	Create(ctx context.Context, creation *model.Creation) error
	GetByID(ctx context.Context, id int64) (*model.Creation, error)
	GetView(ctx context.Context, id, viewerID int64) (*model.CreationView, error)
	// Publish sets the display URL of a pending creation. It never
	// overwrites an already published one.
	Publish(ctx context.Context, id int64, displayURL string) error
	ListPublished(ctx context.Context, viewerID int64, limit, offset int) ([]model.CreationView, int, error)
	ListByUser(ctx context.Context, ownerID, viewerID int64, includePending bool, limit, offset int) ([]model.CreationView, int, error)
	Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.CreationView, error)
	DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LikeRepository manages the user/creation like edges. There is at most one
// edge per pair.
type LikeRepository interface {
	Exists(ctx context.Context, userID, creationID int64) (bool, error)
	Add(ctx context.Context, userID, creationID int64) (bool, error)
	Remove(ctx context.Context, userID, creationID int64) (bool, error)
}

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByCreation(ctx context.Context, creationID int64, limit, offset int) ([]model.Comment, int, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// Update is scoped by owner; another user's notification is reported as
	// ErrNotificationNotFound.
	Update(ctx context.Context, id, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Notification, error)
	CountByUser(ctx context.Context, userID int64) (total int, unread int, err error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
}
