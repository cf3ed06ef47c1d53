// internal/database/university_store.go
package database

import (
	"context"
	"time"

	"applynest/internal/models"
	"applynest/internal/utils"

	"github.com/google/uuid"
)

// SaveUniversity inserts a tracked university for a user.
func (p *PostgresDB) SaveUniversity(ctx context.Context, uni *models.University) error {
	if uni.CreatedAt.IsZero() {
		uni.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO universities (id, user_id, name, city, program_name, deadline, tuition, created_at)
		VALUES (:id, :user_id, :name, :city, :program_name, :deadline, :tuition, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, uni)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save university", err)
	}
	return nil
}

// UniversitiesByUser fetches the user's tracked universities, soonest
// deadline first with undated entries last.
func (p *PostgresDB) UniversitiesByUser(ctx context.Context, userID uuid.UUID) ([]*models.University, error) {
	query := `
		SELECT id, user_id, name, city, program_name, deadline, tuition, created_at
		FROM universities
		WHERE user_id = $1
		ORDER BY deadline ASC NULLS LAST, created_at ASC
	`
	unis := []*models.University{}
	err := p.DB.SelectContext(ctx, &unis, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query universities", err)
	}
	return unis, nil
}

// DeleteUniversity removes a tracked university scoped by owner.
func (p *PostgresDB) DeleteUniversity(ctx context.Context, id, userID uuid.UUID) (int64, error) {
	result, err := p.DB.ExecContext(ctx, `DELETE FROM universities WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to delete university", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after delete", err)
	}
	return rowsAffected, nil
}
