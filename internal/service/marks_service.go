package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

type marksStore interface {
	FindByStudentSubjectExam(ctx context.Context, studentID, subjectID int64, examType string) (*models.Marks, error)
	Create(ctx context.Context, mark *models.Marks) error
	Update(ctx context.Context, mark *models.Marks) error
	ListDetailsByStudent(ctx context.Context, studentID int64) ([]models.MarkDetail, error)
	ListDetailsByStudentSubjects(ctx context.Context, studentID int64, subjectIDs []int64) ([]models.MarkDetail, error)
	ListClassMarks(ctx context.Context, departmentID, semesterID int64) ([]models.ClassMark, error)
	ListOfferingMarks(ctx context.Context, offering models.SubjectOffering) ([]models.ClassMark, error)
}

type marksSubjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ListByTeacher(ctx context.Context, teacherID int64) ([]models.SubjectWithSemester, error)
}

type marksStudentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByRollNumber(ctx context.Context, rollNumber string) (*models.Student, error)
}

type marksOfferingReader interface {
	FindByID(ctx context.Context, id int64) (*models.SubjectOffering, error)
}

type marksSessionReader interface {
	FindByID(ctx context.Context, id int64) (*models.ExamSession, error)
}

type marksSectionReader interface {
	FindSection(ctx context.Context, id int64) (*models.Section, error)
}

type marksSemesterReader interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
}

type settingsLoader interface {
	Load(ctx context.Context) (models.Settings, error)
}

// MarksServiceParams groups constructor dependencies.
type MarksServiceParams struct {
	Marks     marksStore
	Subjects  marksSubjectReader
	Students  marksStudentReader
	Offerings marksOfferingReader
	Sessions  marksSessionReader
	Sections  marksSectionReader
	Semesters marksSemesterReader
	Academic  *AcademicModelService
	Settings  settingsLoader
	Summaries *SummaryService
	Cache     *CacheService
	CacheTTL  time.Duration
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// MarksService writes marks into both academic models and serves the
// aggregated reads built on top of them.
type MarksService struct {
	marks        marksStore
	subjects     marksSubjectReader
	students     marksStudentReader
	offerings    marksOfferingReader
	sessions     marksSessionReader
	sections     marksSectionReader
	semesters    marksSemesterReader
	academic     *AcademicModelService
	settings     settingsLoader
	summaries    *SummaryService
	cache        *CacheService
	cacheTTL     time.Duration
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
	academicYear string
}

// NewMarksService constructs the marks service.
func NewMarksService(params MarksServiceParams) *MarksService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		marks:        params.Marks,
		subjects:     params.Subjects,
		students:     params.Students,
		offerings:    params.Offerings,
		sessions:     params.Sessions,
		sections:     params.Sections,
		semesters:    params.Semesters,
		academic:     params.Academic,
		settings:     params.Settings,
		summaries:    params.Summaries,
		cache:        params.Cache,
		cacheTTL:     params.CacheTTL,
		metrics:      params.Metrics,
		validator:    validate,
		logger:       logger,
		academicYear: models.DefaultAcademicYear,
	}
}

// Upload stores a legacy-shaped mark. The legacy columns are always written;
// subject_offering_id and exam_session_id are filled when they resolve and
// left null otherwise.
func (s *MarksService) Upload(ctx context.Context, principal *models.Principal, req dto.UploadMarksRequest) (*models.Marks, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.authorizeSubject(ctx, principal, subject); err != nil {
		return nil, err
	}
	if req.ExamType == models.LegacyUniversityExamType && !principal.HasAdminRole() {
		return nil, appErrors.ErrUniversityMarksLocked
	}

	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	mark := &models.Marks{
		StudentID:     student.ID,
		SubjectID:     subject.ID,
		ExamType:      req.ExamType,
		MarksObtained: req.MarksObtained,
		TotalMarks:    req.TotalMarks,
		MaxMarks:      float64Ptr(req.TotalMarks),
		UploadedBy:    int64Ptr(principal.User.ID),
	}

	if teacherID, ok := offeringTeacher(principal, subject); ok {
		offering, err := s.academic.SubjectOfferingForTeacherSubject(ctx, teacherID, subject.ID, s.academicYear)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve subject offering")
		}
		if offering != nil {
			mark.SubjectOfferingID = int64Ptr(offering.ID)
		}
	}

	if subject.SemesterID != nil {
		regulationID, err := s.academic.RegulationForStudent(ctx, student)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve regulation")
		}
		session, err := s.academic.MapExamTypeToSession(ctx, req.ExamType, *subject.SemesterID, regulationID, s.academicYear)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve exam session")
		}
		if session != nil {
			mark.ExamSessionID = int64Ptr(session.ID)
		}
	}

	if err := s.save(ctx, mark); err != nil {
		return nil, err
	}
	return mark, nil
}

// UploadForOffering stores a mark addressed by new-model identifiers. The
// legacy columns are derived: subject from the offering, exam_type from the
// session's exam type name.
func (s *MarksService) UploadForOffering(ctx context.Context, principal *models.Principal, req dto.UploadOfferingMarksRequest) (*models.Marks, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	offering, err := s.loadOffering(ctx, req.SubjectOfferingID)
	if err != nil {
		return nil, err
	}
	if err := authorizeOffering(principal, offering); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindByID(ctx, req.ExamSessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam session")
	}
	if session.ExamTypeID.IsUniversity() && !principal.HasAdminRole() {
		return nil, appErrors.ErrUniversityMarksLocked
	}

	student, err := s.loadStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	mark := &models.Marks{
		StudentID:         student.ID,
		SubjectID:         offering.SubjectID,
		ExamType:          session.ExamTypeID.String(),
		MarksObtained:     req.MarksObtained,
		TotalMarks:        req.MaxMarks,
		SubjectOfferingID: int64Ptr(offering.ID),
		ExamSessionID:     int64Ptr(session.ID),
		MaxMarks:          float64Ptr(req.MaxMarks),
		UploadedBy:        int64Ptr(principal.User.ID),
	}
	if err := s.save(ctx, mark); err != nil {
		return nil, err
	}
	return mark, nil
}

// save updates the mark identified by the legacy triple or inserts a new one.
// Concurrent uploads of the same triple are last-write-wins.
func (s *MarksService) save(ctx context.Context, mark *models.Marks) error {
	existing, err := s.marks.FindByStudentSubjectExam(ctx, mark.StudentID, mark.SubjectID, mark.ExamType)
	switch {
	case err == nil:
		mark.ID = existing.ID
		if err := s.marks.Update(ctx, mark); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update marks")
		}
	case errors.Is(err, sql.ErrNoRows):
		if err := s.marks.Create(ctx, mark); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create marks")
		}
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}

	reconciled := mark.SubjectOfferingID != nil && mark.ExamSessionID != nil
	s.metrics.RecordMarksUpload(reconciled)
	s.cache.InvalidatePattern(ctx, CacheKey("performance", "student", mark.StudentID, "*"))
	if mark.SubjectOfferingID != nil {
		s.cache.Invalidate(ctx, offeringInsightsKey(*mark.SubjectOfferingID))
	}
	s.logger.Info("marks saved",
		zap.Int64("marks_id", mark.ID),
		zap.Int64("student_id", mark.StudentID),
		zap.Int64("subject_id", mark.SubjectID),
		zap.String("exam_type", mark.ExamType),
		zap.Bool("reconciled", reconciled),
	)
	return nil
}

// authorizeSubject allows admins, the subject's legacy teacher and any teacher
// holding an offering of the subject in the current academic year.
func (s *MarksService) authorizeSubject(ctx context.Context, principal *models.Principal, subject *models.Subject) error {
	if principal.HasAdminRole() {
		return nil
	}
	teacherID, ok := principal.TeacherID()
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher profile not found")
	}
	if subject.TeacherID != nil && *subject.TeacherID == teacherID {
		return nil
	}
	offering, err := s.academic.SubjectOfferingForTeacherSubject(ctx, teacherID, subject.ID, s.academicYear)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject assignment")
	}
	if offering == nil {
		return appErrors.ErrNotAssigned
	}
	return nil
}

func authorizeOffering(principal *models.Principal, offering *models.SubjectOffering) error {
	if principal.HasAdminRole() {
		return nil
	}
	teacherID, ok := principal.TeacherID()
	if !ok || offering.TeacherID != teacherID {
		return appErrors.ErrNotAssigned
	}
	return nil
}

// offeringTeacher picks the teacher whose offering the mark belongs to: the
// caller when they have a teacher profile, else the subject's legacy teacher.
func offeringTeacher(principal *models.Principal, subject *models.Subject) (int64, bool) {
	if id, ok := principal.TeacherID(); ok {
		return id, true
	}
	if subject.TeacherID != nil {
		return *subject.TeacherID, true
	}
	return 0, false
}

// StudentPerformance returns the per-semester aggregate of a student's marks.
// Each row is classified and scaled independently: a linked exam session
// decides university versus internal, and max_marks is preferred over
// total_marks, whichever of the two happens to be populated.
func (s *MarksService) StudentPerformance(ctx context.Context, studentID int64) ([]dto.SemesterPerformance, error) {
	key := CacheKey("performance", "student", studentID, "marks")
	var cached []dto.SemesterPerformance
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	settings, marks, err := s.studentMarks(ctx, studentID)
	if err != nil {
		return nil, err
	}
	semesters := BuildSemesterPerformance(marks, settings)
	s.cache.Set(ctx, key, semesters, s.cacheTTL)
	return semesters, nil
}

// StudentAnalysis returns weak subjects and the semester trend of a student.
func (s *MarksService) StudentAnalysis(ctx context.Context, studentID int64) (dto.StudentAnalysis, error) {
	key := CacheKey("performance", "student", studentID, "analysis")
	var cached dto.StudentAnalysis
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	settings, marks, err := s.studentMarks(ctx, studentID)
	if err != nil {
		return dto.StudentAnalysis{}, err
	}
	analysis := AnalyzePerformance(marks, settings)
	s.cache.Set(ctx, key, analysis, s.cacheTTL)
	return analysis, nil
}

// StudentSummary returns the natural-language summary of a student.
func (s *MarksService) StudentSummary(ctx context.Context, student *models.Student) (dto.PerformanceSummary, error) {
	if student == nil {
		return dto.PerformanceSummary{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	settings, marks, err := s.studentMarks(ctx, student.ID)
	if err != nil {
		return dto.PerformanceSummary{}, err
	}

	currentSemester := ""
	if student.CurrentSemesterID != nil {
		semester, err := s.semesters.FindByID(ctx, *student.CurrentSemesterID)
		switch {
		case err == nil:
			currentSemester = semester.Name
		case !errors.Is(err, sql.ErrNoRows):
			return dto.PerformanceSummary{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
		}
	}

	semesters := BuildSemesterPerformance(marks, settings)
	analysis := AnalyzePerformance(marks, settings)
	input := BuildStudentSummaryInput(*student, currentSemester, marks, semesters, analysis)
	return s.summaries.StudentSummary(ctx, student.ID, input), nil
}

func (s *MarksService) studentMarks(ctx context.Context, studentID int64) (models.Settings, []models.MarkDetail, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return models.Settings{}, nil, err
	}
	marks, err := s.marks.ListDetailsByStudent(ctx, studentID)
	if err != nil {
		return models.Settings{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	return settings, marks, nil
}

// TeacherStudentMarks returns a student's marks limited to the subjects the
// caller teaches in either model. Admins see every mark.
func (s *MarksService) TeacherStudentMarks(ctx context.Context, principal *models.Principal, rollNumber string) (*dto.StudentMarksResponse, error) {
	if principal == nil {
		return nil, appErrors.ErrUnauthorized
	}
	student, err := s.students.FindByRollNumber(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	var marks []models.MarkDetail
	if principal.HasAdminRole() {
		marks, err = s.marks.ListDetailsByStudent(ctx, student.ID)
	} else {
		teacherID, ok := principal.TeacherID()
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher profile not found")
		}
		var subjectIDs []int64
		subjectIDs, err = s.teacherSubjectIDs(ctx, teacherID)
		if err != nil {
			return nil, err
		}
		marks, err = s.marks.ListDetailsByStudentSubjects(ctx, student.ID, subjectIDs)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marks")
	}
	if marks == nil {
		marks = []models.MarkDetail{}
	}
	return &dto.StudentMarksResponse{Student: *student, Marks: marks}, nil
}

func (s *MarksService) teacherSubjectIDs(ctx context.Context, teacherID int64) ([]int64, error) {
	legacy, err := s.academic.TeacherSubjectsLegacy(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher subjects")
	}
	offerings, err := s.academic.TeacherSubjectOfferings(ctx, teacherID, s.academicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher offerings")
	}
	seen := make(map[int64]struct{}, len(legacy)+len(offerings))
	ids := make([]int64, 0, len(legacy)+len(offerings))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, subject := range legacy {
		add(subject.ID)
	}
	for _, offering := range offerings {
		add(offering.SubjectID)
	}
	return ids, nil
}

// ClassAnalysis summarises subject averages of a legacy class.
func (s *MarksService) ClassAnalysis(ctx context.Context, departmentID, semesterID int64) (dto.ClassAnalysis, error) {
	marks, err := s.marks.ListClassMarks(ctx, departmentID, semesterID)
	if err != nil {
		return dto.ClassAnalysis{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class marks")
	}
	return AnalyzeClassPerformance(marks), nil
}

// OfferingInsights returns class insights for one subject offering.
func (s *MarksService) OfferingInsights(ctx context.Context, principal *models.Principal, offeringID int64) (dto.ClassInsights, error) {
	if principal == nil {
		return dto.ClassInsights{}, appErrors.ErrUnauthorized
	}
	offering, err := s.loadOffering(ctx, offeringID)
	if err != nil {
		return dto.ClassInsights{}, err
	}
	if err := authorizeOffering(principal, offering); err != nil {
		return dto.ClassInsights{}, err
	}

	scope := dto.InsightScope{AcademicYear: offering.AcademicYear}
	subject, err := s.subjects.FindByID(ctx, offering.SubjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return dto.ClassInsights{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject != nil {
		scope.Subject = subject.Name
	}
	section, err := s.sections.FindSection(ctx, offering.SectionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return dto.ClassInsights{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	if section != nil {
		scope.Section = section.Name
	}

	students, err := s.academic.StudentsBySection(ctx, offering.SectionID)
	if err != nil {
		return dto.ClassInsights{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section students")
	}
	marks, err := s.marks.ListOfferingMarks(ctx, *offering)
	if err != nil {
		return dto.ClassInsights{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering marks")
	}

	input := BuildClassInsightInput(scope, len(students), marks)
	return s.summaries.ClassInsights(ctx, offering.ID, scope, input), nil
}

func (s *MarksService) loadStudent(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *MarksService) loadOffering(ctx context.Context, id int64) (*models.SubjectOffering, error) {
	offering, err := s.offerings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject offering")
	}
	return offering, nil
}

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }
