package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, user_id, title, message, icon, is_read, dismissed, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, title, message, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, dismissed, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, n.UserID, n.Title, n.Message, n.Icon).
		Scan(&n.ID, &n.IsRead, &n.Dismissed, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// Update folds the ownership check into the WHERE clause, so "not yours" and
// "does not exist" are indistinguishable to the caller.
func (r *notificationRepository) Update(ctx context.Context, id, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error) {
	query := `
		UPDATE notifications
		SET is_read = COALESCE($1::boolean, is_read),
		    dismissed = COALESCE($2::boolean, dismissed)
		WHERE id = $3 AND user_id = $4
		RETURNING ` + notificationColumns

	var n model.Notification
	err := r.db.GetContext(ctx, &n, query, req.IsRead, req.Dismissed, id, userID)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update notification: %w", err)
	}
	return &n, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	notifications := []model.Notification{}
	if err := r.db.SelectContext(ctx, &notifications, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountByUser(ctx context.Context, userID int64) (int, int, error) {
	var counts struct {
		Total  int `db:"total"`
		Unread int `db:"unread"`
	}
	query := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE NOT is_read) AS unread
		FROM notifications
		WHERE user_id = $1
	`
	if err := r.db.GetContext(ctx, &counts, query, userID); err != nil {
		return 0, 0, fmt.Errorf("count notifications: %w", err)
	}
	return counts.Total, counts.Unread, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return n, nil
}
