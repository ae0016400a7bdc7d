package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type sectionStore interface {
	ListSections(ctx context.Context) ([]models.Section, error)
	FindSection(ctx context.Context, id int64) (*models.Section, error)
	FindSectionByName(ctx context.Context, departmentID, batchID int64, name string) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
	ListBatches(ctx context.Context) ([]models.Batch, error)
	FindBatch(ctx context.Context, id int64) (*models.Batch, error)
	FindBatchByYear(ctx context.Context, admissionYear int, instituteID int64) (*models.Batch, error)
	CreateBatch(ctx context.Context, batch *models.Batch) error
}

type offeringStore interface {
	List(ctx context.Context, filter models.SubjectOfferingFilter) ([]models.SubjectOfferingDetail, error)
	FindBySubjectSection(ctx context.Context, subjectID, sectionID int64, academicYear string) (*models.SubjectOffering, error)
	Create(ctx context.Context, offering *models.SubjectOffering) error
}

type examSessionStore interface {
	List(ctx context.Context, filter models.ExamSessionFilter) ([]models.ExamSession, error)
	FindByKey(ctx context.Context, examTypeID models.ExamTypeID, semesterID, regulationID int64, academicYear string) (*models.ExamSession, error)
	Create(ctx context.Context, session *models.ExamSession) error
	ListExamTypes(ctx context.Context) ([]models.ExamType, error)
	FindExamType(ctx context.Context, id models.ExamTypeID) (*models.ExamType, error)
	FindRegulation(ctx context.Context, id int64) (*models.Regulation, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// StructureServiceParams groups constructor dependencies.
type StructureServiceParams struct {
	Sections    sectionStore
	Offerings   offeringStore
	Sessions    examSessionStore
	Departments departmentFinder
	Semesters   semesterFinder
	Subjects    subjectFinder
	Teachers    teacherFinder
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// StructureService manages the new academic model: batches, sections,
// subject offerings and exam sessions.
type StructureService struct {
	sections    sectionStore
	offerings   offeringStore
	sessions    examSessionStore
	departments departmentFinder
	semesters   semesterFinder
	subjects    subjectFinder
	teachers    teacherFinder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStructureService constructs the service.
func NewStructureService(params StructureServiceParams) *StructureService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StructureService{
		sections:    params.Sections,
		offerings:   params.Offerings,
		sessions:    params.Sessions,
		departments: params.Departments,
		semesters:   params.Semesters,
		subjects:    params.Subjects,
		teachers:    params.Teachers,
		validator:   validate,
		logger:      logger,
	}
}

// ListBatches returns every batch.
func (s *StructureService) ListBatches(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.sections.ListBatches(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list batches")
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	return batches, nil
}

// CreateBatch registers an admission cohort.
func (s *StructureService) CreateBatch(ctx context.Context, req dto.BatchRequest) (*models.Batch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch payload")
	}
	if _, err := s.sessions.FindRegulation(ctx, req.RegulationID); err != nil {
		return nil, requireFound(err, "regulation")
	}
	_, err := s.sections.FindBatchByYear(ctx, req.AdmissionYear, req.InstituteID)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate batch")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "batch already exists")
	}
	batch := &models.Batch{AdmissionYear: req.AdmissionYear, RegulationID: req.RegulationID, InstituteID: req.InstituteID}
	if err := s.sections.CreateBatch(ctx, batch); err != nil {
		return nil, createFailed(err, "batch", "batch already exists")
	}
	return batch, nil
}

// ListSections returns every section.
func (s *StructureService) ListSections(ctx context.Context) ([]models.Section, error) {
	sections, err := s.sections.ListSections(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

// CreateSection registers a section of a department and batch.
func (s *StructureService) CreateSection(ctx context.Context, req dto.SectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.departments.FindByID(ctx, req.DepartmentID); err != nil {
		return nil, requireFound(err, "department")
	}
	if _, err := s.sections.FindBatch(ctx, req.BatchID); err != nil {
		return nil, requireFound(err, "batch")
	}
	_, err := s.sections.FindSectionByName(ctx, req.DepartmentID, req.BatchID, req.Name)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate section")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "section already exists")
	}
	section := &models.Section{Name: req.Name, DepartmentID: req.DepartmentID, BatchID: req.BatchID}
	if err := s.sections.CreateSection(ctx, section); err != nil {
		return nil, createFailed(err, "section", "section already exists")
	}
	return section, nil
}

// ListOfferings returns offerings matching the filter.
func (s *StructureService) ListOfferings(ctx context.Context, filter models.SubjectOfferingFilter) ([]models.SubjectOfferingDetail, error) {
	offerings, err := s.offerings.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject offerings")
	}
	if offerings == nil {
		offerings = []models.SubjectOfferingDetail{}
	}
	return offerings, nil
}

// CreateOffering registers a subject taught to a section. A subject is offered
// at most once per section and academic year.
func (s *StructureService) CreateOffering(ctx context.Context, req dto.SubjectOfferingRequest) (*models.SubjectOffering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject offering payload")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		return nil, requireFound(err, "subject")
	}
	if _, err := s.sections.FindSection(ctx, req.SectionID); err != nil {
		return nil, requireFound(err, "section")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		return nil, requireFound(err, "teacher")
	}
	_, err := s.offerings.FindBySubjectSection(ctx, req.SubjectID, req.SectionID, req.AcademicYear)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate subject offering")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "subject is already offered to this section for the academic year")
	}
	offering := &models.SubjectOffering{
		SubjectID:    req.SubjectID,
		SectionID:    req.SectionID,
		TeacherID:    req.TeacherID,
		AcademicYear: req.AcademicYear,
	}
	if err := s.offerings.Create(ctx, offering); err != nil {
		return nil, createFailed(err, "subject offering", "subject is already offered to this section for the academic year")
	}
	s.logger.Info("subject offering created",
		zap.Int64("subject_offering_id", offering.ID),
		zap.Int64("teacher_id", offering.TeacherID),
		zap.String("academic_year", offering.AcademicYear),
	)
	return offering, nil
}

// ListExamTypes returns the exam type reference rows.
func (s *StructureService) ListExamTypes(ctx context.Context) ([]models.ExamType, error) {
	types, err := s.sessions.ListExamTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam types")
	}
	if types == nil {
		types = []models.ExamType{}
	}
	return types, nil
}

// ListExamSessions returns sessions matching the filter.
func (s *StructureService) ListExamSessions(ctx context.Context, filter models.ExamSessionFilter) ([]models.ExamSession, error) {
	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exam sessions")
	}
	if sessions == nil {
		sessions = []models.ExamSession{}
	}
	return sessions, nil
}

// CreateExamSession registers an exam session. The (exam type, semester,
// regulation, academic year) key is unique.
func (s *StructureService) CreateExamSession(ctx context.Context, req dto.ExamSessionRequest) (*models.ExamSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam session payload")
	}
	examTypeID := models.ExamTypeID(req.ExamTypeID)
	if !examTypeID.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam type not found")
	}
	if _, err := s.sessions.FindExamType(ctx, examTypeID); err != nil {
		return nil, requireFound(err, "exam type")
	}
	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		return nil, requireFound(err, "semester")
	}
	if _, err := s.sessions.FindRegulation(ctx, req.RegulationID); err != nil {
		return nil, requireFound(err, "regulation")
	}

	session := &models.ExamSession{
		ExamTypeID:   examTypeID,
		SemesterID:   req.SemesterID,
		RegulationID: req.RegulationID,
		AcademicYear: req.AcademicYear,
	}
	if req.ExamDate != nil {
		date, err := time.Parse("2006-01-02", *req.ExamDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam date")
		}
		session.ExamDate = &date
	}

	_, err := s.sessions.FindByKey(ctx, session.ExamTypeID, session.SemesterID, session.RegulationID, session.AcademicYear)
	taken, err := rowExists(err)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate exam session")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrDuplicate, "exam session already exists")
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, createFailed(err, "exam session", "exam session already exists")
	}
	return session, nil
}
