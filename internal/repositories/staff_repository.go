package repository

import (
	"context"
	"database/sql"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/utils"
)

// StaffRepository reads the staff/admin directory. A row here carries the
// role and active flag that decide what a logged-in identity may do.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*models.StaffUser, error)
	UpdateProfile(ctx context.Context, id string, name, email *string) error
}

type staffRepository struct {
	DB *sql.DB
}

func NewStaffRepo(db *sql.DB) StaffRepository {
	return &staffRepository{DB: db}
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*models.StaffUser, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	staff := &models.StaffUser{}

	var roleStr string

	query := `SELECT id, email, name, role, is_active, created_at, updated_at
			  FROM staff_users
			  WHERE id = $1`

	err := r.DB.QueryRowContext(dbCtx, query, id).
		Scan(&staff.ID, &staff.Email, &staff.Name, &roleStr, &staff.IsActive, &staff.CreatedAt, &staff.UpdatedAt)
	if err != nil {
		return nil, err
	}

	role, err := models.ParseRole(roleStr)
	if err != nil {
		return nil, err
	}

	staff.Role = role

	return staff, nil
}

func (r *staffRepository) UpdateProfile(ctx context.Context, id string, name, email *string) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	query := `UPDATE staff_users
			  SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = NOW()
			  WHERE id = $1`

	result, err := r.DB.ExecContext(dbCtx, query, id, name, email)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return sql.ErrNoRows
	}

	return nil
}
