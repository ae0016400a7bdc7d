package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type departmentStoreStub struct {
	departments map[int64]*models.Department
	dependents  map[int64]bool
	deleted     []int64
}

func newDepartmentStoreStub() *departmentStoreStub {
	return &departmentStoreStub{
		departments: map[int64]*models.Department{
			1: {ID: 1, Name: "Computer Science", Code: "CS01"},
			2: {ID: 2, Name: "Electronics", Code: "EC01"},
		},
		dependents: map[int64]bool{},
	}
}

func (s *departmentStoreStub) List(ctx context.Context) ([]models.Department, error) {
	return nil, nil
}

func (s *departmentStoreStub) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	if department, ok := s.departments[id]; ok {
		copied := *department
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *departmentStoreStub) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	for _, department := range s.departments {
		if department.Code == code {
			copied := *department
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *departmentStoreStub) Create(ctx context.Context, department *models.Department) error {
	department.ID = int64(len(s.departments) + 1)
	s.departments[department.ID] = department
	return nil
}

func (s *departmentStoreStub) Update(ctx context.Context, department *models.Department) error {
	s.departments[department.ID] = department
	return nil
}

func (s *departmentStoreStub) Delete(ctx context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *departmentStoreStub) HasDependents(ctx context.Context, id int64) (bool, error) {
	return s.dependents[id], nil
}

func TestDepartmentServiceCreate(t *testing.T) {
	svc := NewDepartmentService(newDepartmentStoreStub(), nil, nil)

	_, err := svc.Create(context.Background(), dto.DepartmentRequest{Name: "Civil", Code: "CS01"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))

	department, err := svc.Create(context.Background(), dto.DepartmentRequest{Name: "Civil", Code: "CE01"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), department.ID)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
}

func TestDepartmentServiceUpdate(t *testing.T) {
	svc := NewDepartmentService(newDepartmentStoreStub(), nil, nil)

	updated, err := svc.Update(context.Background(), 1, dto.DepartmentRequest{Name: "CSE", Code: "CS01"})
	require.NoError(t, err)
	assert.Equal(t, "CSE", updated.Name)

	_, err = svc.Update(context.Background(), 1, dto.DepartmentRequest{Name: "CSE", Code: "EC01"})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))

	_, err = svc.Update(context.Background(), 9, dto.DepartmentRequest{Name: "X", Code: "X1"})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDepartmentServiceDelete(t *testing.T) {
	store := newDepartmentStoreStub()
	store.dependents[1] = true
	svc := NewDepartmentService(store, nil, nil)

	err := svc.Delete(context.Background(), 1)
	assert.True(t, appErrors.Is(err, appErrors.ErrInUse))

	err = svc.Delete(context.Background(), 9)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	require.NoError(t, svc.Delete(context.Background(), 2))
	assert.Equal(t, []int64{2}, store.deleted)
}
