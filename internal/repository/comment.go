package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment. A creation removed after the caller's existence
// check surfaces as ErrCreationNotFound through the foreign key.
func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	query := `
		INSERT INTO comments (text, user_id, creation_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.Text, c.UserID, c.CreationID).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return model.ErrCreationNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListByCreation returns one page of comments newest first with their authors.
func (r *commentRepository) ListByCreation(ctx context.Context, creationID int64, limit, offset int) ([]model.Comment, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE creation_id = $1`, creationID); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	query := `
		SELECT cm.id, cm.text, cm.user_id, cm.creation_id, cm.created_at,
		       u.name AS author_name, h.handle AS author_handle, u.profile_url AS author_profile_url
		FROM comments cm
		JOIN users u ON u.id = cm.user_id
		LEFT JOIN handles h ON h.id = u.handle_id
		WHERE cm.creation_id = $1
		ORDER BY cm.created_at DESC, cm.id DESC
		LIMIT $2 OFFSET $3
	`

	type commentRow struct {
		ID               int64     `db:"id"`
		Text             string    `db:"text"`
		UserID           int64     `db:"user_id"`
		CreationID       int64     `db:"creation_id"`
		CreatedAt        time.Time `db:"created_at"`
		AuthorName       string    `db:"author_name"`
		AuthorHandle     *string   `db:"author_handle"`
		AuthorProfileURL string    `db:"author_profile_url"`
	}

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, creationID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = model.Comment{
			ID:         row.ID,
			Text:       row.Text,
			UserID:     row.UserID,
			CreationID: row.CreationID,
			CreatedAt:  row.CreatedAt,
			User: &model.UserSummary{
				ID:         row.UserID,
				Name:       row.AuthorName,
				Handle:     row.AuthorHandle,
				ProfileURL: row.AuthorProfileURL,
			},
		}
	}
	return comments, total, nil
}
