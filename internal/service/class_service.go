package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/performance-analyzer-api/internal/dto"
	"github.com/noah-isme/performance-analyzer-api/internal/models"
	appErrors "github.com/noah-isme/performance-analyzer-api/pkg/errors"
)

// ClassService serves the teacher's view of subjects and class lists under
// whichever academic model is in effect for them.
type ClassService struct {
	academic     *AcademicModelService
	logger       *zap.Logger
	academicYear string
}

// NewClassService constructs the class service.
func NewClassService(academic *AcademicModelService, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{academic: academic, logger: logger, academicYear: models.DefaultAcademicYear}
}

// TeacherSubjects lists the caller's subjects from subject offerings when the
// teacher has any, otherwise from the legacy subject assignment.
func (s *ClassService) TeacherSubjects(ctx context.Context, principal *models.Principal) (*dto.TeacherSubjectsResponse, error) {
	teacherID, ok := principal.TeacherID()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher profile not found")
	}

	useNew, err := s.academic.ShouldUseNewModel(ctx, &teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to select academic model")
	}

	if useNew {
		offerings, err := s.academic.TeacherSubjectOfferings(ctx, teacherID, s.academicYear)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject offerings")
		}
		items := make([]dto.TeacherSubjectItem, 0, len(offerings))
		for _, offering := range offerings {
			offering := offering
			items = append(items, dto.TeacherSubjectItem{
				ID:                offering.SubjectID,
				Name:              offering.SubjectName,
				Code:              offering.SubjectCode,
				Semester:          offering.SemesterName,
				DepartmentID:      offering.DepartmentID,
				SemesterID:        offering.SemesterID,
				SubjectOfferingID: &offering.ID,
				SectionID:         &offering.SectionID,
				SectionName:       &offering.SectionName,
				AcademicYear:      &offering.AcademicYear,
			})
		}
		return &dto.TeacherSubjectsResponse{Model: dto.ModelNew, Subjects: items}, nil
	}

	s.logger.Debug("teacher has no subject offerings, serving legacy subjects", zap.Int64("teacher_id", teacherID))
	subjects, err := s.academic.TeacherSubjectsLegacy(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	items := make([]dto.TeacherSubjectItem, 0, len(subjects))
	for _, subject := range subjects {
		items = append(items, dto.TeacherSubjectItem{
			ID:           subject.ID,
			Name:         subject.Name,
			Code:         subject.Code,
			Semester:     subject.SemesterName,
			DepartmentID: subject.DepartmentID,
			SemesterID:   subject.SemesterID,
		})
	}
	return &dto.TeacherSubjectsResponse{Model: dto.ModelLegacy, Subjects: items}, nil
}

// SectionStudents lists the students of a section. Teachers need an offering
// for the section in the current academic year; admins are not restricted.
func (s *ClassService) SectionStudents(ctx context.Context, principal *models.Principal, sectionID int64) ([]models.Student, error) {
	if !principal.HasAdminRole() {
		teacherID, ok := principal.TeacherID()
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher profile not found")
		}
		allowed, err := s.academic.VerifyTeacherCanAccessSection(ctx, teacherID, sectionID, s.academicYear)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify section access")
		}
		if !allowed {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not teach this section")
		}
	}
	students, err := s.academic.StudentsBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return nonNilStudents(students), nil
}

// ClassStudents lists the students of a legacy class.
func (s *ClassService) ClassStudents(ctx context.Context, departmentID, semesterID int64) ([]models.Student, error) {
	students, err := s.academic.StudentsByDepartmentSemester(ctx, departmentID, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return nonNilStudents(students), nil
}

func nonNilStudents(students []models.Student) []models.Student {
	if students == nil {
		return []models.Student{}
	}
	return students
}
