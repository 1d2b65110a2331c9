package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create inserts the placeholder row; ImageURL is normally empty here.
func (r *imageRepository) Create(ctx context.Context, img *model.Image) error {
	query := `
		INSERT INTO images (prompt, user_id, image_url, is_premium)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, img.Prompt, img.UserID, img.ImageURL, img.IsPremium).
		Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *imageRepository) SetImageURL(ctx context.Context, id int64, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE images SET image_url = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("update image url: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update image url: image %d not found", id)
	}
	return nil
}
