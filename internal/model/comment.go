package model

import "time"

type Comment struct {
	ID         int64        `db:"id" json:"id"`
	Text       string       `db:"text" json:"text"`
	UserID     int64        `db:"user_id" json:"userId"`
	CreationID int64        `db:"creation_id" json:"creationId"`
	CreatedAt  time.Time    `db:"created_at" json:"createdAt"`
	User       *UserSummary `db:"-" json:"user,omitempty"`
}

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// CommentPage is one page of comments, newest first.
type CommentPage struct {
	Comments []Comment `json:"comments"`
	Pagination
}

const (
	MaxCommentLength = 1000
	CommentPageSize  = 10
)
