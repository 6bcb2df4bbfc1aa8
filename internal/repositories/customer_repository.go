package repository

import (
	"context"
	"database/sql"

	"github.com/eshop-labs/commerce-engine/internal/models"
	"github.com/eshop-labs/commerce-engine/internal/utils"
)

// CustomerRepository looks up storefront customers by email. Anyone found
// here and not in the staff directory logs in with the customer role.
type CustomerRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
}

type customerRepository struct {
	DB *sql.DB
}

func NewCustomerRepo(db *sql.DB) CustomerRepository {
	return &customerRepository{DB: db}
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*models.Customer, error) {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	customer := &models.Customer{}

	query := `SELECT id, email, name, created_at
			  FROM customers
			  WHERE email = $1`

	err := r.DB.QueryRowContext(dbCtx, query, email).
		Scan(&customer.ID, &customer.Email, &customer.Name, &customer.CreatedAt)
	if err != nil {
		return nil, err
	}

	return customer, nil
}
