package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type subjectStore interface {
	List(ctx context.Context) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	FindByCode(ctx context.Context, code string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	AssignTeacher(ctx context.Context, subjectID, teacherID int64) error
}

type departmentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Department, error)
}

type semesterFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
}

// SubjectService manages subjects and their legacy teacher assignment.
type SubjectService struct {
	repo        subjectStore
	departments departmentFinder
	semesters   semesterFinder
	teachers    teacherFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSubjectService constructs the subject service.
func NewSubjectService(repo subjectStore, departments departmentFinder, semesters semesterFinder, teachers teacherFinder, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, departments: departments, semesters: semesters, teachers: teachers, validator: validate, logger: logger}
}

// List returns every subject.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Create registers a subject under an existing department and semester.
func (s *SubjectService) Create(ctx context.Context, req dto.SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	_, err := s.repo.FindByCode(ctx, req.Code)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "subject code already exists")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		return nil, requireFound(err, "department")
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		return nil, requireFound(err, "semester")
	}

	subject := &models.Subject{
		Name:         req.Name,
		Code:         req.Code,
		DepartmentID: &req.DepartmentID,
		SemesterID:   &req.SemesterID,
		RegulationID: req.RegulationID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// AssignTeacher sets the legacy teacher of a subject.
func (s *SubjectService) AssignTeacher(ctx context.Context, req dto.TeacherSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, requireFound(err, "teacher")
	}
	subject, err := s.repo.FindByID(ctx, req.SubjectID)
	if err != nil {
		return nil, requireFound(err, "subject")
	}
	if err := s.repo.AssignTeacher(ctx, subject.ID, req.TeacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	subject.TeacherID = &req.TeacherID
	s.logger.Info("subject teacher assigned", zap.Int64("subject_id", subject.ID), zap.Int64("teacher_id", req.TeacherID))
	return subject, nil
}
