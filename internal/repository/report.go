package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imaginarium/internal/model"
)

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, rep *model.Report) error {
	query := `
		INSERT INTO reports (creation_id, user_id, reason)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, rep.CreationID, rep.UserID, rep.Reason).Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			return model.ErrCreationNotFound
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}
