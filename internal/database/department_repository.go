package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/civicpulse/classifier/internal/domain"
)

// DepartmentRepository handles department lookups for report routing.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository creates a new department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetByCategory finds the active department responsible for a category.
// Returns domain.ErrNotFound when no department owns it.
func (r *DepartmentRepository) GetByCategory(ctx context.Context, category string) (*domain.Department, error) {
	var dept domain.Department
	query := `
		SELECT id, name, category, email, active, created_at
		FROM departments
		WHERE LOWER(category) = LOWER($1) AND active
		LIMIT 1`

	if err := r.db.GetContext(ctx, &dept, query, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("department for category %q: %w", category, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get department for category %q: %w", category, err)
	}

	return &dept, nil
}

// ListAdminIDs returns the user ids of the department's admins.
func (r *DepartmentRepository) ListAdminIDs(ctx context.Context, departmentID int64) ([]int64, error) {
	var ids []int64
	query := `
		SELECT user_id
		FROM department_admins
		WHERE department_id = $1
		ORDER BY user_id`

	if err := r.db.SelectContext(ctx, &ids, query, departmentID); err != nil {
		return nil, fmt.Errorf("list admins for department %d: %w", departmentID, err)
	}

	return ids, nil
}
