package model

import "time"

// Report flags a creation for moderation.
type Report struct {
	ID         int64     `db:"id" json:"id"`
	CreationID int64     `db:"creation_id" json:"creationId"`
	UserID     int64     `db:"user_id" json:"userId"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
