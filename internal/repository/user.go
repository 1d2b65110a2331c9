package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, profile_url, free_tokens, premium_tokens)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		u.Name, u.Email, u.PasswordHash, u.ProfileURL, u.FreeTokens, u.PremiumTokens,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.password_hash, u.profile_url, u.handle_id, h.handle,
		       u.push_token, u.free_tokens, u.premium_tokens, u.created_at
		FROM users u
		LEFT JOIN handles h ON h.id = u.handle_id
		WHERE u.id = $1
	`
	var u model.User
	err := r.db.GetContext(ctx, &u, query, id)
	if err == sql.ErrNoRows {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// ClaimHandle inserts a handle and points the user at it in one transaction.
func (r *userRepository) ClaimHandle(ctx context.Context, userID int64, handle string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var handleID int64
	err = tx.GetContext(ctx, &handleID,
		`INSERT INTO handles (handle, user_id) VALUES ($1, $2) RETURNING id`, handle, userID)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return model.ErrHandleTaken
		}
		return fmt.Errorf("insert handle: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE users SET handle_id = $1 WHERE id = $2`, handleID, userID); err != nil {
		return fmt.Errorf("link handle: %w", err)
	}

	return tx.Commit()
}

func (r *userRepository) UpdatePushToken(ctx context.Context, userID int64, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET push_token = $1 WHERE id = $2`, token, userID)
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update push token: %w", err)
	}
	if n == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Search matches name or any handle the user has claimed.
func (r *userRepository) Search(ctx context.Context, query string, excludeUserID int64, limit int) ([]model.UserSummary, error) {
	sqlQuery := `
		SELECT u.id, u.name, h.handle, u.profile_url, u.created_at
		FROM users u
		LEFT JOIN handles h ON h.id = u.handle_id
		WHERE u.id <> $2
		  AND (u.name ILIKE $1
		       OR EXISTS (SELECT 1 FROM handles hh WHERE hh.user_id = u.id AND hh.handle ILIKE $1))
		ORDER BY u.id DESC
		LIMIT $3
	`
	users := []model.UserSummary{}
	if err := r.db.SelectContext(ctx, &users, sqlQuery, containsPattern(query), excludeUserID, limit); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
