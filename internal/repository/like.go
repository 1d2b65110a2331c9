package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type likeRepository struct {
	db *sqlx.DB
}

func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Exists(ctx context.Context, userID, creationID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM creation_likes WHERE user_id = $1 AND creation_id = $2)`, userID, creationID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return exists, nil
}

// Add inserts the edge. Concurrent adds collapse onto the primary key, so
// the second caller gets false instead of a duplicate row.
func (r *likeRepository) Add(ctx context.Context, userID, creationID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO creation_likes (user_id, creation_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, creation_id) DO NOTHING
	`, userID, creationID)
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}
	return n > 0, nil
}

func (r *likeRepository) Remove(ctx context.Context, userID, creationID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM creation_likes WHERE user_id = $1 AND creation_id = $2`, userID, creationID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	return n > 0, nil
}
