package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

func TestAdminRepositoryPromote(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewAdminRepository(db)
	deptID := int64(2)
	admin := &models.Admin{TeacherID: 5, AdminType: models.AdminTypeHOD, DepartmentID: &deptID}
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO admins")).
		WithArgs(int64(5), "hod", int64(2), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), created))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2")).
		WithArgs(int64(30), "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Promote(context.Background(), admin, 30))
	assert.Equal(t, int64(9), admin.ID)
	assert.Equal(t, created, admin.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminRepositoryDemoteRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	repo := NewAdminRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM admins WHERE teacher_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2")).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Demote(context.Background(), 5, 30)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
