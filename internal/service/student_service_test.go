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

type studentStoreStub struct {
	filter  models.StudentFilter
	byRoll  map[string]*models.Student
	created *models.Student
	user    *models.User
}

func (s *studentStoreStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	s.filter = filter
	return nil, 0, nil
}

func (s *studentStoreStub) FindByRollNumber(ctx context.Context, rollNumber string) (*models.Student, error) {
	if student, ok := s.byRoll[rollNumber]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentStoreStub) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	user.ID = 20
	student.ID = 1
	student.UserID = &user.ID
	s.created, s.user = student, user
	return nil
}

type usernamesStub map[string]bool

func (u usernamesStub) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return u[username], nil
}

type departmentsStub map[int64]*models.Department

func (d departmentsStub) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	if department, ok := d[id]; ok {
		return department, nil
	}
	return nil, sql.ErrNoRows
}

type semestersStub map[int64]*models.Semester

func (s semestersStub) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	if semester, ok := s[id]; ok {
		return semester, nil
	}
	return nil, sql.ErrNoRows
}

type placementStub struct {
	batches  map[int]*models.Batch
	sections map[string]*models.Section
}

func (p placementStub) FindBatchByYear(ctx context.Context, admissionYear int, instituteID int64) (*models.Batch, error) {
	if batch, ok := p.batches[admissionYear]; ok {
		return batch, nil
	}
	return nil, sql.ErrNoRows
}

func (p placementStub) FindSectionByName(ctx context.Context, departmentID, batchID int64, name string) (*models.Section, error) {
	if section, ok := p.sections[name]; ok {
		return section, nil
	}
	return nil, sql.ErrNoRows
}

func newTestStudentService(store *studentStoreStub, usernames usernamesStub) *StudentService {
	shortCode := "CSE"
	departments := departmentsStub{2: {ID: 2, Name: "Computer Science", Code: "CS01", ShortCode: &shortCode}}
	semesters := semestersStub{3: {ID: 3, Name: "2-1"}}
	placement := placementStub{
		batches:  map[int]*models.Batch{2023: {ID: 4, AdmissionYear: 2023, RegulationID: models.RegulationR23}},
		sections: map[string]*models.Section{"cse-a": {ID: 6, Name: "cse-a", DepartmentID: 2, BatchID: 4}},
	}
	return NewStudentService(store, usernames, departments, semesters, placement, nil, nil)
}

func TestStudentServiceCreatePlacesByRollNumber(t *testing.T) {
	store := &studentStoreStub{}
	svc := newTestStudentService(store, usernamesStub{})

	student, err := svc.Create(context.Background(), dto.StudentRequest{
		RollNumber: "23CSE0012", Name: "Asha", DepartmentID: 2, CurrentSemesterID: 3, Password: "secret1",
	})
	require.NoError(t, err)
	require.NotNil(t, student.BatchID)
	assert.Equal(t, int64(4), *student.BatchID)
	require.NotNil(t, student.SectionID)
	assert.Equal(t, int64(6), *student.SectionID)
	assert.Equal(t, "23CSE0012", store.user.Username)
	assert.Equal(t, models.RoleStudent, store.user.Role)
	assert.NotEqual(t, "secret1", store.user.PasswordHash)
}

func TestStudentServiceCreateWithoutKnownBatch(t *testing.T) {
	store := &studentStoreStub{}
	svc := newTestStudentService(store, usernamesStub{})

	student, err := svc.Create(context.Background(), dto.StudentRequest{
		RollNumber: "19CSE0001", Name: "Ravi", DepartmentID: 2, CurrentSemesterID: 3, Password: "secret1",
	})
	require.NoError(t, err)
	assert.Nil(t, student.BatchID)
	assert.Nil(t, student.SectionID)
}

func TestStudentServiceCreateRejectsDuplicates(t *testing.T) {
	store := &studentStoreStub{byRoll: map[string]*models.Student{"23CSE0012": {ID: 1}}}
	svc := newTestStudentService(store, usernamesStub{"23CSE0013": true})
	req := dto.StudentRequest{RollNumber: "23CSE0012", Name: "Asha", DepartmentID: 2, CurrentSemesterID: 3, Password: "secret1"}

	_, err := svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))

	req.RollNumber = "23CSE0013"
	_, err = svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))

	req.RollNumber, req.DepartmentID = "23CSE0014", 9
	_, err = svc.Create(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestStudentServiceListAppliesScope(t *testing.T) {
	store := &studentStoreStub{}
	svc := newTestStudentService(store, usernamesStub{})
	sectionID := int64(6)
	scope := models.NewAdminScope(models.Admin{AdminType: models.AdminTypeClassIncharge, SectionID: &sectionID})

	students, pagination, err := svc.List(context.Background(), scope, models.StudentFilter{})
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Equal(t, &sectionID, store.filter.SectionID)
	assert.Nil(t, store.filter.DepartmentID)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
}

func TestDefaultSectionName(t *testing.T) {
	short := "ECE"
	assert.Equal(t, "ece-a", DefaultSectionName(models.Department{Code: "EC01", ShortCode: &short}))
	assert.Equal(t, "ec01-a", DefaultSectionName(models.Department{Code: "EC01"}))
}
