package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	repository "github.com/eshop-labs/commerce-engine/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepository_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewCustomerRepo(db)
	ctx := context.Background()

	expectedSQL := regexp.QuoteMeta(`SELECT id, email, name, created_at
			  FROM customers
			  WHERE email = $1`)

	t.Run("Success", func(t *testing.T) {
		// Arrange
		now := time.Now()
		mock.ExpectQuery(expectedSQL).
			WithArgs("jane@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "created_at"}).
				AddRow("cust-1", "jane@example.com", "Jane", now))

		// Act
		customer, err := repo.GetByEmail(ctx, "jane@example.com")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "cust-1", customer.ID)
		assert.Equal(t, "jane@example.com", customer.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(expectedSQL).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		customer, err := repo.GetByEmail(ctx, "ghost@example.com")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, customer)
	})
}
