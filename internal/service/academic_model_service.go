package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

type examSessionLookup interface {
	FindByKey(ctx context.Context, examTypeID models.ExamTypeID, semesterID, regulationID int64, academicYear string) (*models.ExamSession, error)
}

type subjectOfferingLookup interface {
	FindByTeacherSubject(ctx context.Context, teacherID, subjectID int64, academicYear string) (*models.SubjectOffering, error)
	Count(ctx context.Context, teacherID *int64) (int64, error)
	CountForTeacherSection(ctx context.Context, teacherID, sectionID int64, academicYear string) (int64, error)
	List(ctx context.Context, filter models.SubjectOfferingFilter) ([]models.SubjectOfferingDetail, error)
}

type academicStudentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ListBySection(ctx context.Context, sectionID int64) ([]models.Student, error)
	ListByDepartmentSemester(ctx context.Context, departmentID, semesterID int64) ([]models.Student, error)
}

type academicSectionLookup interface {
	FindSection(ctx context.Context, id int64) (*models.Section, error)
	FindBatch(ctx context.Context, id int64) (*models.Batch, error)
}

type legacySubjectLookup interface {
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.SubjectWithSemester, error)
}

// AcademicModelService resolves legacy identifiers to their new-model
// counterparts. A lookup with no match returns nil and a nil error.
type AcademicModelService struct {
	sessions  examSessionLookup
	offerings subjectOfferingLookup
	students  academicStudentLookup
	sections  academicSectionLookup
	subjects  legacySubjectLookup
	cache     *CacheService
	modelTTL  time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAcademicModelService constructs the service.
func NewAcademicModelService(
	sessions examSessionLookup,
	offerings subjectOfferingLookup,
	students academicStudentLookup,
	sections academicSectionLookup,
	subjects legacySubjectLookup,
	cache *CacheService,
	modelTTL time.Duration,
	metrics *MetricsService,
	logger *zap.Logger,
) *AcademicModelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if modelTTL <= 0 {
		modelTTL = 30 * time.Second
	}
	return &AcademicModelService{
		sessions:  sessions,
		offerings: offerings,
		students:  students,
		sections:  sections,
		subjects:  subjects,
		cache:     cache,
		modelTTL:  modelTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// MapExamTypeToSession resolves a legacy exam_type string to the exam session
// of the given semester, regulation and academic year. Strings outside the
// legacy table return immediately without touching the store. Sessions are
// never created here.
func (s *AcademicModelService) MapExamTypeToSession(ctx context.Context, examType string, semesterID, regulationID int64, academicYear string) (*models.ExamSession, error) {
	translated := models.TranslateLegacyExamType(examType)
	if translated.Unmapped() {
		s.metrics.RecordResolution(ResolutionExamSession, OutcomeUnmapped)
		s.logger.Debug("exam type has no session mapping", zap.String("exam_type", examType))
		return nil, nil
	}

	session, err := s.sessions.FindByKey(ctx, translated.ID, semesterID, regulationID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordResolution(ResolutionExamSession, OutcomeMiss)
			s.logger.Debug("exam session not found",
				zap.String("exam_type", examType),
				zap.Int64("semester_id", semesterID),
				zap.Int64("regulation_id", regulationID),
				zap.String("academic_year", academicYear),
			)
			return nil, nil
		}
		return nil, err
	}
	s.metrics.RecordResolution(ResolutionExamSession, OutcomeHit)
	return session, nil
}

// SubjectOfferingForTeacherSubject returns the offering matching teacher,
// subject and academic year, or nil.
func (s *AcademicModelService) SubjectOfferingForTeacherSubject(ctx context.Context, teacherID, subjectID int64, academicYear string) (*models.SubjectOffering, error) {
	offering, err := s.offerings.FindByTeacherSubject(ctx, teacherID, subjectID, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordResolution(ResolutionSubjectOffering, OutcomeMiss)
			return nil, nil
		}
		return nil, err
	}
	s.metrics.RecordResolution(ResolutionSubjectOffering, OutcomeHit)
	return offering, nil
}

// SectionForStudent returns the section of a student, or nil when the student
// has not been placed in one.
func (s *AcademicModelService) SectionForStudent(ctx context.Context, studentID int64) (*models.Section, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if student.SectionID == nil {
		return nil, nil
	}
	section, err := s.sections.FindSection(ctx, *student.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return section, nil
}

// RegulationForStudent returns the regulation of the student's batch, or
// regulation 1 when the student has no batch.
func (s *AcademicModelService) RegulationForStudent(ctx context.Context, student *models.Student) (int64, error) {
	if student == nil || student.BatchID == nil {
		return models.RegulationR20, nil
	}
	batch, err := s.sections.FindBatch(ctx, *student.BatchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RegulationR20, nil
		}
		return 0, err
	}
	return batch.RegulationID, nil
}

// TeacherSubjectOfferings lists the new-model offerings of a teacher in an academic year.
func (s *AcademicModelService) TeacherSubjectOfferings(ctx context.Context, teacherID int64, academicYear string) ([]models.SubjectOfferingDetail, error) {
	return s.offerings.List(ctx, models.SubjectOfferingFilter{TeacherID: &teacherID, AcademicYear: academicYear})
}

// TeacherSubjectsLegacy lists the subjects assigned to a teacher in the legacy model.
func (s *AcademicModelService) TeacherSubjectsLegacy(ctx context.Context, teacherID int64) ([]models.SubjectWithSemester, error) {
	return s.subjects.ListByTeacher(ctx, teacherID)
}

// StudentsBySection lists the students of a section.
func (s *AcademicModelService) StudentsBySection(ctx context.Context, sectionID int64) ([]models.Student, error) {
	return s.students.ListBySection(ctx, sectionID)
}

// StudentsByDepartmentSemester lists the students of a legacy class.
func (s *AcademicModelService) StudentsByDepartmentSemester(ctx context.Context, departmentID, semesterID int64) ([]models.Student, error) {
	return s.students.ListByDepartmentSemester(ctx, departmentID, semesterID)
}

// VerifyTeacherCanAccessSection reports whether the teacher has at least one
// offering for the section in the academic year.
func (s *AcademicModelService) VerifyTeacherCanAccessSection(ctx context.Context, teacherID, sectionID int64, academicYear string) (bool, error) {
	count, err := s.offerings.CountForTeacherSection(ctx, teacherID, sectionID, academicYear)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ShouldUseNewModel reports whether any subject offering exists, optionally
// restricted to one teacher. It is a presence check only; readers must still
// fall back per record when new-model fields are null. Answers are cached
// for a short TTL since every authenticated request asks.
func (s *AcademicModelService) ShouldUseNewModel(ctx context.Context, teacherID *int64) (bool, error) {
	key := modelDetectionKey(teacherID)
	var cached bool
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}
	count, err := s.offerings.Count(ctx, teacherID)
	if err != nil {
		return false, err
	}
	useNew := count > 0
	s.cache.Set(ctx, key, useNew, s.modelTTL)
	return useNew, nil
}

func modelDetectionKey(teacherID *int64) string {
	if teacherID == nil {
		return CacheKey("academic_model", "all")
	}
	return CacheKey("academic_model", "teacher", *teacherID)
}
