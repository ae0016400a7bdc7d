package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	"github.com/noah-isme/performance-analyzer-api/internal/service"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type fakeAdminService struct {
	scope      *models.AdminScope
	demoted    int64
	promoteErr error
}

func (f *fakeAdminService) List(context.Context, *models.Principal) ([]models.AdminDetail, error) {
	return nil, nil
}

func (f *fakeAdminService) Promote(_ context.Context, _ *models.Principal, req dto.PromoteAdminRequest) (*models.Admin, error) {
	if f.promoteErr != nil {
		return nil, f.promoteErr
	}
	return &models.Admin{ID: 1, TeacherID: req.TeacherID, AdminType: req.AdminType}, nil
}

func (f *fakeAdminService) Demote(_ context.Context, _ *models.Principal, teacherID int64) error {
	f.demoted = teacherID
	return nil
}

func (f *fakeAdminService) Stats(context.Context, *models.Principal) (*dto.AdminStats, error) {
	return &dto.AdminStats{TotalStudents: 3}, nil
}

func (f *fakeAdminService) UserScope(context.Context, int64) (*models.AdminScope, error) {
	return f.scope, nil
}

func (f *fakeAdminService) ModelStatus(context.Context) (*dto.ModelStatusResponse, error) {
	return &dto.ModelStatusResponse{PreferNewModel: true}, nil
}

type fakeSettingsService struct {
	settings models.Settings
}

func (f *fakeSettingsService) Load(context.Context) (models.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettingsService) Update(_ context.Context, req dto.SettingsRequest) (models.Settings, error) {
	f.settings.PassPercentage = req.PassPercentage
	f.settings.WeakThreshold = req.WeakThreshold
	return f.settings, nil
}

type fakeReportService struct {
	scope  *models.AdminScope
	format string
	filter dto.MarksReportFilter
}

func (f *fakeReportService) MarksReport(_ context.Context, scope *models.AdminScope, filter dto.MarksReportFilter, rawFormat string) (*service.ExportFile, error) {
	f.scope = scope
	f.filter = filter
	f.format = rawFormat
	if rawFormat == "xml" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Filename: "marks_report.csv", ContentType: "text/csv", Data: []byte("a,b\n")}, nil
}

func adminPrincipal(adminType models.AdminType, departmentID *int64) *models.Principal {
	userID := int64(1)
	return &models.Principal{
		User:    models.User{ID: userID, Role: models.RoleAdmin},
		Teacher: &models.Teacher{ID: 2, UserID: &userID},
		Admin:   &models.Admin{ID: 3, TeacherID: 2, AdminType: adminType, DepartmentID: departmentID},
	}
}

func TestAdminHandlerUserScopeNull(t *testing.T) {
	h := NewAdminHandler(&fakeAdminService{}, &fakeSettingsService{})

	c, rec := newTestContext(http.MethodGet, "/admin/users/5/scope", nil, adminPrincipal(models.AdminTypeMaster, nil))
	c.Params = gin.Params{{Key: "id", Value: "5"}}
	h.UserScope(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":null}`, rec.Body.String())
}

func TestAdminHandlerPromoteDuplicate(t *testing.T) {
	h := NewAdminHandler(&fakeAdminService{promoteErr: appErrors.Clone(appErrors.ErrDuplicate, "teacher is already an admin")}, &fakeSettingsService{})

	c, rec := newTestContext(http.MethodPost, "/admin/admins", map[string]interface{}{"teacher_id": 2, "admin_type": "master"}, adminPrincipal(models.AdminTypeMaster, nil))
	h.Promote(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandlerDemote(t *testing.T) {
	admins := &fakeAdminService{}
	h := NewAdminHandler(admins, &fakeSettingsService{})

	c, rec := newTestContext(http.MethodDelete, "/admin/admins/7", nil, adminPrincipal(models.AdminTypeMaster, nil))
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Demote(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(7), admins.demoted)
}

func TestAdminHandlerUpdateSettings(t *testing.T) {
	settings := &fakeSettingsService{}
	h := NewAdminHandler(&fakeAdminService{}, settings)

	c, rec := newTestContext(http.MethodPut, "/admin/settings", map[string]interface{}{"pass_percentage": 40, "weak_threshold": 55}, adminPrincipal(models.AdminTypeMaster, nil))
	h.UpdateSettings(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 55.0, settings.settings.WeakThreshold)
}

func TestReportHandlerExportPassesScope(t *testing.T) {
	reports := &fakeReportService{}
	h := NewReportHandler(reports)
	departmentID := int64(4)

	c, rec := newTestContext(http.MethodGet, "/admin/reports/export?semester_id=2&format=csv", nil, adminPrincipal(models.AdminTypeHOD, &departmentID))
	h.ExportMarks(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "marks_report.csv")
	require.NotNil(t, reports.scope)
	assert.True(t, reports.scope.IsHOD)
	require.NotNil(t, reports.filter.SemesterID)
	assert.Equal(t, int64(2), *reports.filter.SemesterID)
	assert.Equal(t, "csv", reports.format)
}

func TestReportHandlerRejectsBadQuery(t *testing.T) {
	h := NewReportHandler(&fakeReportService{})

	c, rec := newTestContext(http.MethodGet, "/admin/reports/export?department_id=abc", nil, adminPrincipal(models.AdminTypeMaster, nil))
	h.ExportMarks(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
