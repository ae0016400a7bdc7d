package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type adminStore interface {
	FindByTeacherID(ctx context.Context, teacherID int64) (*models.Admin, error)
	List(ctx context.Context) ([]models.AdminDetail, error)
	Promote(ctx context.Context, admin *models.Admin, userID int64) error
	Demote(ctx context.Context, teacherID, userID int64) error
}

type statsReader interface {
	Counts(ctx context.Context, departmentID *int64) (*dto.AdminStats, error)
}

type sectionFinder interface {
	FindSection(ctx context.Context, id int64) (*models.Section, error)
}

type backfillReporter interface {
	Checkpoints(ctx context.Context) ([]models.BackfillCheckpoint, error)
	Validate(ctx context.Context) (*models.MarksValidationReport, error)
}

// AdminServiceParams groups constructor dependencies.
type AdminServiceParams struct {
	Admins      adminStore
	Teachers    teacherFinder
	Departments departmentFinder
	Sections    sectionFinder
	Stats       statsReader
	Principals  *PrincipalService
	Academic    *AcademicModelService
	Backfill    backfillReporter
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// AdminService manages admin records and serves admin-only read models.
type AdminService struct {
	admins      adminStore
	teachers    teacherFinder
	departments departmentFinder
	sections    sectionFinder
	stats       statsReader
	principals  *PrincipalService
	academic    *AcademicModelService
	backfill    backfillReporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(params AdminServiceParams) *AdminService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		admins:      params.Admins,
		teachers:    params.Teachers,
		departments: params.Departments,
		sections:    params.Sections,
		stats:       params.Stats,
		principals:  params.Principals,
		academic:    params.Academic,
		backfill:    params.Backfill,
		validator:   validate,
		logger:      logger,
	}
}

func requireMaster(principal *models.Principal) error {
	scope := principal.Scope()
	if scope == nil || !scope.IsMaster {
		return appErrors.Clone(appErrors.ErrForbidden, "only master admins can manage admins")
	}
	return nil
}

// List returns every admin record with its teacher.
func (s *AdminService) List(ctx context.Context, principal *models.Principal) ([]models.AdminDetail, error) {
	if err := requireMaster(principal); err != nil {
		return nil, err
	}
	admins, err := s.admins.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list admins")
	}
	if admins == nil {
		admins = []models.AdminDetail{}
	}
	return admins, nil
}

// Promote attaches an admin record to a teacher. HOD admins need a department
// and class incharges a section; a teacher holds at most one admin record.
func (s *AdminService) Promote(ctx context.Context, principal *models.Principal, req dto.PromoteAdminRequest) (*models.Admin, error) {
	if err := requireMaster(principal); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid admin payload")
	}

	admin := &models.Admin{TeacherID: req.TeacherID, AdminType: req.AdminType}
	switch req.AdminType {
	case models.AdminTypeHOD:
		if req.DepartmentID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required for hod admins")
		}
		if _, err := s.departments.FindByID(ctx, *req.DepartmentID); err != nil {
			return nil, requireFound(err, "department")
		}
		admin.DepartmentID = req.DepartmentID
	case models.AdminTypeClassIncharge:
		if req.SectionID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "section_id is required for class incharge admins")
		}
		if _, err := s.sections.FindSection(ctx, *req.SectionID); err != nil {
			return nil, requireFound(err, "section")
		}
		admin.SectionID = req.SectionID
	}

	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		return nil, requireFound(err, "teacher")
	}
	if teacher.UserID == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher has no user account")
	}
	_, err = s.admins.FindByTeacherID(ctx, teacher.ID)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admin record")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "teacher is already an admin")
	}

	if err := s.admins.Promote(ctx, admin, *teacher.UserID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to promote teacher")
	}
	s.logger.Info("teacher promoted", zap.Int64("teacher_id", teacher.ID), zap.String("admin_type", string(admin.AdminType)))
	return admin, nil
}

// Demote removes the admin record of a teacher. Admins cannot demote themselves.
func (s *AdminService) Demote(ctx context.Context, principal *models.Principal, teacherID int64) error {
	if err := requireMaster(principal); err != nil {
		return err
	}
	if self, ok := principal.TeacherID(); ok && self == teacherID {
		return appErrors.Clone(appErrors.ErrValidation, "admins cannot demote themselves")
	}
	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		return requireFound(err, "teacher")
	}
	if _, err := s.admins.FindByTeacherID(ctx, teacherID); err != nil {
		return requireFound(err, "admin record")
	}
	if teacher.UserID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "teacher has no user account")
	}
	if err := s.admins.Demote(ctx, teacherID, *teacher.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to demote teacher")
	}
	s.logger.Info("teacher demoted", zap.Int64("teacher_id", teacherID))
	return nil
}

// Stats counts entities visible to the caller. HOD admins see their department only.
func (s *AdminService) Stats(ctx context.Context, principal *models.Principal) (*dto.AdminStats, error) {
	stats, err := s.stats.Counts(ctx, principal.Scope().DepartmentFilter())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count entities")
	}
	return stats, nil
}

// UserScope returns the admin scope of any user, or nil when the user is not
// an admin.
func (s *AdminService) UserScope(ctx context.Context, userID int64) (*models.AdminScope, error) {
	return s.principals.AdminScope(ctx, userID)
}

// ModelStatus reports whether the new model is in use and how far marks
// reconciliation has progressed.
func (s *AdminService) ModelStatus(ctx context.Context) (*dto.ModelStatusResponse, error) {
	useNew, err := s.academic.ShouldUseNewModel(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select academic model")
	}
	checkpoints, err := s.backfill.Checkpoints(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load backfill checkpoints")
	}
	if checkpoints == nil {
		checkpoints = []models.BackfillCheckpoint{}
	}
	report, err := s.backfill.Validate(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate marks")
	}
	return &dto.ModelStatusResponse{
		PreferNewModel:      useNew,
		Checkpoints:         checkpoints,
		Marks:               *report,
		MigrationPercentage: report.MigrationPercentage(),
	}, nil
}
