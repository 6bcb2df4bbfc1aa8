package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eshop-labs/commerce-engine/internal/models"
	repository "github.com/eshop-labs/commerce-engine/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewStaffRepo(db)
	ctx := context.Background()

	expectedSQL := regexp.QuoteMeta(`SELECT id, email, name, role, is_active, created_at, updated_at
			  FROM staff_users
			  WHERE id = $1`)

	staffColumns := []string{"id", "email", "name", "role", "is_active", "created_at", "updated_at"}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		now := time.Now()
		mock.ExpectQuery(expectedSQL).
			WithArgs("staff-1").
			WillReturnRows(sqlmock.NewRows(staffColumns).
				AddRow("staff-1", "staff@eshop.com", "Staff One", "inventory_manager", true, now, now))

		// Act
		staff, err := repo.GetByID(ctx, "staff-1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "staff-1", staff.ID)
		assert.Equal(t, models.RoleInventoryManager, staff.Role)
		assert.True(t, staff.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Legacy admin role normalizes to owner", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(expectedSQL).
			WithArgs("staff-2").
			WillReturnRows(sqlmock.NewRows(staffColumns).
				AddRow("staff-2", "boss@eshop.com", "Boss", "admin", true, now, now))

		staff, err := repo.GetByID(ctx, "staff-2")

		require.NoError(t, err)
		assert.Equal(t, models.RoleOwner, staff.Role)
	})

	t.Run("Unknown Role Rejected", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(expectedSQL).
			WithArgs("staff-3").
			WillReturnRows(sqlmock.NewRows(staffColumns).
				AddRow("staff-3", "x@eshop.com", "X", "superuser", true, now, now))

		staff, err := repo.GetByID(ctx, "staff-3")

		assert.Error(t, err)
		assert.Nil(t, staff)
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(expectedSQL).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		staff, err := repo.GetByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, staff)
	})
}

func TestStaffRepository_UpdateProfile(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewStaffRepo(db)
	ctx := context.Background()

	expectedSQL := regexp.QuoteMeta(`UPDATE staff_users
			  SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = NOW()
			  WHERE id = $1`)

	name := "New Name"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(expectedSQL).
			WithArgs("staff-1", &name, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateProfile(ctx, "staff-1", &name, nil)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Row Updated", func(t *testing.T) {
		mock.ExpectExec(expectedSQL).
			WithArgs("missing", &name, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateProfile(ctx, "missing", &name, nil)

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	t.Run("Database Error", func(t *testing.T) {
		dbError := errors.New("connection reset")
		mock.ExpectExec(expectedSQL).
			WithArgs("staff-1", &name, nil).
			WillReturnError(dbError)

		err := repo.UpdateProfile(ctx, "staff-1", &name, nil)

		assert.ErrorIs(t, err, dbError)
	})
}
