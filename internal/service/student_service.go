package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type studentStore interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByRollNumber(ctx context.Context, rollNumber string) (*models.Student, error)
	CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error
}

type usernameChecker interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type studentPlacementReader interface {
	FindBatchByYear(ctx context.Context, admissionYear int, instituteID int64) (*models.Batch, error)
	FindSectionByName(ctx context.Context, departmentID, batchID int64, name string) (*models.Section, error)
}

// StudentService handles student administration.
type StudentService struct {
	repo        studentStore
	users       usernameChecker
	departments departmentFinder
	semesters   semesterFinder
	placement   studentPlacementReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentStore, users usernameChecker, departments departmentFinder, semesters semesterFinder, placement studentPlacementReader, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		users:       users,
		departments: departments,
		semesters:   semesters,
		placement:   placement,
		validator:   validate,
		logger:      logger,
	}
}

// List returns students visible to the admin scope and pagination metadata.
// HOD admins are limited to their department, class incharges to their section.
func (s *StudentService) List(ctx context.Context, scope *models.AdminScope, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if department := scope.DepartmentFilter(); department != nil {
		filter.DepartmentID = department
	}
	if section := scope.SectionFilter(); section != nil {
		filter.SectionID = section
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a student and its login. The roll number doubles as the
// username. When no batch is given, it is inferred from the roll number and
// the student is placed in the batch's default section if one exists.
func (s *StudentService) Create(ctx context.Context, req dto.StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	_, err := s.repo.FindByRollNumber(ctx, req.RollNumber)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate roll number")
	}
	if !taken {
		if taken, err = s.users.UsernameTaken(ctx, req.RollNumber); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate username")
		}
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "roll number already exists")
	}

	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, requireFound(err, "department")
	}
	if _, err := s.semesters.FindByID(ctx, req.CurrentSemesterID); err != nil {
		return nil, requireFound(err, "semester")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	student := &models.Student{
		RollNumber:        req.RollNumber,
		Name:              req.Name,
		DepartmentID:      &req.DepartmentID,
		CurrentSemesterID: &req.CurrentSemesterID,
		BatchID:           req.BatchID,
		SectionID:         req.SectionID,
	}
	if student.BatchID == nil {
		if err := s.place(ctx, student, department); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		Username:     req.RollNumber,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.repo.CreateWithUser(ctx, user, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.String("roll_number", student.RollNumber))
	return student, nil
}

// place infers batch and default section from the roll number. A roll number
// that does not parse or a batch that does not exist leaves both unset.
func (s *StudentService) place(ctx context.Context, student *models.Student, department *models.Department) error {
	year, err := ParseAdmissionYear(student.RollNumber)
	if err != nil {
		s.logger.Debug("roll number carries no admission year", zap.String("roll_number", student.RollNumber))
		return nil
	}
	batch, err := s.placement.FindBatchByYear(ctx, year, models.DefaultInstituteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve batch")
	}
	student.BatchID = &batch.ID

	if student.SectionID != nil {
		return nil
	}
	section, err := s.placement.FindSectionByName(ctx, department.ID, batch.ID, DefaultSectionName(*department))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}
	student.SectionID = &section.ID
	return nil
}

// DefaultSectionName is the section the backfill creates for every
// department and batch: the lower-cased short code (or code) suffixed "-a".
func DefaultSectionName(department models.Department) string {
	code := department.Code
	if department.ShortCode != nil {
		code = *department.ShortCode
	}
	return fmt.Sprintf("%s-a", strings.ToLower(code))
}
