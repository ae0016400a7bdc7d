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

type adminStoreStub struct {
	byTeacher map[int64]*models.Admin
	promoted  *models.Admin
	promoteTo int64
	demoted   int64
}

func (s *adminStoreStub) FindByTeacherID(ctx context.Context, teacherID int64) (*models.Admin, error) {
	if admin, ok := s.byTeacher[teacherID]; ok {
		return admin, nil
	}
	return nil, sql.ErrNoRows
}

func (s *adminStoreStub) List(ctx context.Context) ([]models.AdminDetail, error) {
	return nil, nil
}

func (s *adminStoreStub) Promote(ctx context.Context, admin *models.Admin, userID int64) error {
	admin.ID = 12
	s.promoted, s.promoteTo = admin, userID
	return nil
}

func (s *adminStoreStub) Demote(ctx context.Context, teacherID, userID int64) error {
	s.demoted = teacherID
	return nil
}

type teachersStub map[int64]*models.Teacher

func (t teachersStub) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	if teacher, ok := t[id]; ok {
		return teacher, nil
	}
	return nil, sql.ErrNoRows
}

type statsStub struct {
	department *int64
}

func (s *statsStub) Counts(ctx context.Context, departmentID *int64) (*dto.AdminStats, error) {
	s.department = departmentID
	return &dto.AdminStats{TotalStudents: 10}, nil
}

type adminFixture struct {
	store    *adminStoreStub
	stats    *statsStub
	academic *academicFixture
	backfill *fakeBackfillStore
	service  *AdminService
}

func newAdminFixture() *adminFixture {
	userID := int64(31)
	f := &adminFixture{
		store:    &adminStoreStub{byTeacher: map[int64]*models.Admin{}},
		stats:    &statsStub{},
		academic: newAcademicFixture(),
		backfill: newFakeBackfillStore(),
	}
	f.academic.sections.sections[6] = &models.Section{ID: 6, Name: "cse-a"}
	f.service = NewAdminService(AdminServiceParams{
		Admins:      f.store,
		Teachers:    teachersStub{5: {ID: 5, UserID: &userID}, 6: {ID: 6}},
		Departments: departmentsStub{2: {ID: 2}},
		Sections:    f.academic.sections,
		Stats:       f.stats,
		Principals:  newTestPrincipalService(newPrincipalStore()),
		Academic:    f.academic.service,
		Backfill:    NewBackfillService(f.backfill, 10, nil, nil),
	})
	return f
}

func TestAdminServicePromoteHOD(t *testing.T) {
	f := newAdminFixture()
	deptID := int64(2)

	admin, err := f.service.Promote(context.Background(), adminPrincipal(), dto.PromoteAdminRequest{TeacherID: 5, AdminType: models.AdminTypeHOD, DepartmentID: &deptID})
	require.NoError(t, err)
	assert.Equal(t, int64(12), admin.ID)
	assert.Equal(t, &deptID, admin.DepartmentID)
	assert.Nil(t, admin.SectionID)
	assert.Equal(t, int64(31), f.store.promoteTo)
}

func TestAdminServicePromoteValidation(t *testing.T) {
	f := newAdminFixture()
	missingDept := int64(9)
	sectionID := int64(6)

	tests := []struct {
		name string
		req  dto.PromoteAdminRequest
		want *appErrors.Error
	}{
		{"hod without department", dto.PromoteAdminRequest{TeacherID: 5, AdminType: models.AdminTypeHOD}, appErrors.ErrValidation},
		{"incharge without section", dto.PromoteAdminRequest{TeacherID: 5, AdminType: models.AdminTypeClassIncharge}, appErrors.ErrValidation},
		{"unknown department", dto.PromoteAdminRequest{TeacherID: 5, AdminType: models.AdminTypeHOD, DepartmentID: &missingDept}, appErrors.ErrNotFound},
		{"unknown teacher", dto.PromoteAdminRequest{TeacherID: 77, AdminType: models.AdminTypeClassIncharge, SectionID: &sectionID}, appErrors.ErrNotFound},
		{"teacher without login", dto.PromoteAdminRequest{TeacherID: 6, AdminType: models.AdminTypeMaster}, appErrors.ErrValidation},
		{"bad admin type", dto.PromoteAdminRequest{TeacherID: 5, AdminType: "dean"}, appErrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Promote(context.Background(), adminPrincipal(), tt.req)
			require.Error(t, err)
			assert.True(t, appErrors.Is(err, tt.want), err.Error())
		})
	}
}

func TestAdminServicePromoteRejectsExistingAdmin(t *testing.T) {
	f := newAdminFixture()
	f.store.byTeacher[5] = &models.Admin{ID: 1, TeacherID: 5}

	_, err := f.service.Promote(context.Background(), adminPrincipal(), dto.PromoteAdminRequest{TeacherID: 5, AdminType: models.AdminTypeMaster})
	assert.True(t, appErrors.Is(err, appErrors.ErrDuplicate))
}

func TestAdminServiceRequiresMaster(t *testing.T) {
	f := newAdminFixture()
	deptID := int64(2)
	hod := adminPrincipal()
	hod.Admin = &models.Admin{ID: 2, TeacherID: 99, AdminType: models.AdminTypeHOD, DepartmentID: &deptID}

	_, err := f.service.List(context.Background(), hod)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
	err = f.service.Demote(context.Background(), hod, 5)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	admins, err := f.service.List(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.NotNil(t, admins)
}

func TestAdminServiceDemote(t *testing.T) {
	f := newAdminFixture()
	f.store.byTeacher[5] = &models.Admin{ID: 1, TeacherID: 5}

	err := f.service.Demote(context.Background(), adminPrincipal(), 99)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	require.NoError(t, f.service.Demote(context.Background(), adminPrincipal(), 5))
	assert.Equal(t, int64(5), f.store.demoted)
}

func TestAdminServiceStatsScopedToDepartment(t *testing.T) {
	f := newAdminFixture()
	deptID := int64(2)
	hod := adminPrincipal()
	hod.Admin = &models.Admin{ID: 2, TeacherID: 99, AdminType: models.AdminTypeHOD, DepartmentID: &deptID}

	_, err := f.service.Stats(context.Background(), hod)
	require.NoError(t, err)
	assert.Equal(t, &deptID, f.stats.department)

	_, err = f.service.Stats(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Nil(t, f.stats.department)
}

func TestAdminServiceModelStatus(t *testing.T) {
	f := newAdminFixture()
	f.backfill.report = models.MarksValidationReport{Total: 8, FullyMigrated: 2}

	status, err := f.service.ModelStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.PreferNewModel)
	assert.NotNil(t, status.Checkpoints)
	assert.InDelta(t, 25.0, status.MigrationPercentage, 0.001)

	f.academic.addOffering(models.SubjectOffering{ID: 5, SubjectID: 9, SectionID: 6, TeacherID: 5, AcademicYear: models.DefaultAcademicYear})
	status, err = f.service.ModelStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.PreferNewModel)
}
