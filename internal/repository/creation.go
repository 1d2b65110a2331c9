package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type creationRepository struct {
	db *sqlx.DB
}

func NewCreationRepository(db *sqlx.DB) CreationRepository {
	return &creationRepository{db: db}
}

// creationViewSelect projects a creation with its image, creator, counts and
// the viewer's like state. $1 is always the viewer id.
const creationViewSelect = `
	SELECT c.id, c.user_id, c.display_url, c.created_at,
	       i.prompt, i.image_url, i.is_premium,
	       (SELECT COUNT(*) FROM creation_likes l WHERE l.creation_id = c.id) AS like_count,
	       (SELECT COUNT(*) FROM comments cm WHERE cm.creation_id = c.id) AS comment_count,
	       EXISTS (SELECT 1 FROM creation_likes l WHERE l.creation_id = c.id AND l.user_id = $1) AS is_liked,
	       u.name AS creator_name, h.handle AS creator_handle, u.profile_url AS creator_profile_url
	FROM creations c
	JOIN images i ON i.id = c.image_id
	JOIN users u ON u.id = c.user_id
	LEFT JOIN handles h ON h.id = u.handle_id
`

func (r *creationRepository) Create(ctx context.Context, c *model.Creation) error {
	query := `
		INSERT INTO creations (user_id, image_id)
		VALUES ($1, $2)
		RETURNING id, display_url, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, c.UserID, c.ImageID).Scan(&c.ID, &c.DisplayURL, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert creation: %w", err)
	}
	return nil
}

func (r *creationRepository) GetByID(ctx context.Context, id int64) (*model.Creation, error) {
	var c model.Creation
	err := r.db.GetContext(ctx, &c,
		`SELECT id, user_id, image_id, display_url, created_at FROM creations WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrCreationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get creation: %w", err)
	}
	return &c, nil
}

func (r *creationRepository) GetView(ctx context.Context, id, viewerID int64) (*model.CreationView, error) {
	var v model.CreationView
	err := r.db.GetContext(ctx, &v, creationViewSelect+` WHERE c.id = $2`, viewerID, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrCreationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get creation view: %w", err)
	}
	v.Finalize()
	return &v, nil
}

// Publish is the single pending -> published transition.
func (r *creationRepository) Publish(ctx context.Context, id int64, displayURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE creations SET display_url = $1 WHERE id = $2 AND display_url IS NULL`, displayURL, id)
	if err != nil {
		return fmt.Errorf("publish creation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish creation: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM creations WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("check creation: %w", err)
	}
	if exists {
		return model.ErrCreationNotPending
	}
	return model.ErrCreationNotFound
}

// ListPublished returns the popularity-ordered feed. Ties on like count fall
// back to newest id first so pages are stable.
func (r *creationRepository) ListPublished(ctx context.Context, viewerID int64, limit, offset int) ([]model.CreationView, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM creations WHERE display_url IS NOT NULL`); err != nil {
		return nil, 0, fmt.Errorf("count feed: %w", err)
	}

	query := creationViewSelect + `
		WHERE c.display_url IS NOT NULL
		ORDER BY like_count DESC, c.id DESC
		LIMIT $2 OFFSET $3
	`
	views := []model.CreationView{}
	if err := r.db.SelectContext(ctx, &views, query, viewerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list feed: %w", err)
	}
	finalizeViews(views)
	return views, total, nil
}

func (r *creationRepository) ListByUser(ctx context.Context, ownerID, viewerID int64, includePending bool, limit, offset int) ([]model.CreationView, int, error) {
	countQuery := `SELECT COUNT(*) FROM creations c WHERE c.user_id = $1`
	filter := ` WHERE c.user_id = $2`
	if !includePending {
		countQuery += ` AND c.display_url IS NOT NULL`
		filter += ` AND c.display_url IS NOT NULL`
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, ownerID); err != nil {
		return nil, 0, fmt.Errorf("count user creations: %w", err)
	}

	query := creationViewSelect + filter + `
		ORDER BY c.created_at DESC, c.id DESC
		LIMIT $3 OFFSET $4
	`
	views := []model.CreationView{}
	if err := r.db.SelectContext(ctx, &views, query, viewerID, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list user creations: %w", err)
	}
	finalizeViews(views)
	return views, total, nil
}

// Search matches the creator's name or handles, or the prompt text. Pending
// and the searcher's own creations are never returned.
func (r *creationRepository) Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.CreationView, error) {
	sqlQuery := creationViewSelect + `
		WHERE c.display_url IS NOT NULL
		  AND c.user_id <> $1
		  AND (u.name ILIKE $2
		       OR i.prompt ILIKE $2
		       OR EXISTS (SELECT 1 FROM handles hh WHERE hh.user_id = u.id AND hh.handle ILIKE $2))
		ORDER BY c.id DESC
		LIMIT $3
	`
	views := []model.CreationView{}
	if err := r.db.SelectContext(ctx, &views, sqlQuery, excludeUserID, containsPattern(query), limit); err != nil {
		return nil, fmt.Errorf("search creations: %w", err)
	}
	finalizeViews(views)
	return views, nil
}

// DeletePendingBefore removes creations still pending at cutoff along with
// their image rows, returning how many were removed.
func (r *creationRepository) DeletePendingBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		WITH stale AS (
			DELETE FROM creations
			WHERE display_url IS NULL AND created_at < $1
			RETURNING image_id
		)
		DELETE FROM images WHERE id IN (SELECT image_id FROM stale)
	`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete pending creations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete pending creations: %w", err)
	}
	return n, nil
}

func finalizeViews(views []model.CreationView) {
	for i := range views {
		views[i].Finalize()
	}
}
