package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type semesterStore interface {
	List(ctx context.Context) ([]models.Semester, error)
	FindByName(ctx context.Context, name string) (*models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
}

// SemesterService manages semesters.
type SemesterService struct {
	repo      semesterStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs the semester service.
func NewSemesterService(repo semesterStore, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, validator: validate, logger: logger}
}

// List returns semesters in academic order.
func (s *SemesterService) List(ctx context.Context) ([]models.Semester, error) {
	semesters, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if semesters == nil {
		semesters = []models.Semester{}
	}
	return semesters, nil
}

// Create registers one of the fixed semester names.
func (s *SemesterService) Create(ctx context.Context, req dto.SemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}
	if !models.ValidSemesterName(req.Name) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester name must be one of 1-1, 1-2, 2-1, 2-2, 3-1, 3-2, 4-1, 4-2")
	}
	_, err := s.repo.FindByName(ctx, req.Name)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate semester")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "semester already exists")
	}
	sequence := models.SemesterSequence(req.Name)
	semester := &models.Semester{Name: req.Name, Sequence: &sequence}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, createFailed(err, "semester", "semester already exists")
	}
	return semester, nil
}
