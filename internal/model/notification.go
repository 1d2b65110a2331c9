package model

import "time"

// Notification icons.
const (
	NotificationIconHeart   = "heart"
	NotificationIconComment = "comment"
)

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"userId"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Icon      string    `db:"icon" json:"icon"`
	IsRead    bool      `db:"is_read" json:"isRead"`
	Dismissed bool      `db:"dismissed" json:"dismissed"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// UpdateNotificationRequest carries the only mutable notification flags.
// At least one must be set.
type UpdateNotificationRequest struct {
	IsRead    *bool `json:"isRead"`
	Dismissed *bool `json:"dismissed"`
}

func (r UpdateNotificationRequest) Empty() bool {
	return r.IsRead == nil && r.Dismissed == nil
}

type SavePushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unreadCount"`
	Pagination
}

const NotificationPageSize = 20
