package dto

import "github.com/noah-isme/performance-analyzer-api/internal/models"

// UploadMarksRequest is the legacy-shaped mark upload payload.
type UploadMarksRequest struct {
	StudentID     int64   `json:"student_id" validate:"required,gt=0"`
	SubjectID     int64   `json:"subject_id" validate:"required,gt=0"`
	ExamType      string  `json:"exam_type" validate:"required,max=50"`
	MarksObtained float64 `json:"marks_obtained" validate:"gte=0,ltefield=TotalMarks"`
	TotalMarks    float64 `json:"total_marks" validate:"gt=0"`
}

// UploadOfferingMarksRequest uploads marks against new-model identifiers.
type UploadOfferingMarksRequest struct {
	StudentID         int64   `json:"student_id" validate:"required,gt=0"`
	SubjectOfferingID int64   `json:"subject_offering_id" validate:"required,gt=0"`
	ExamSessionID     int64   `json:"exam_session_id" validate:"required,gt=0"`
	MarksObtained     float64 `json:"marks_obtained" validate:"gte=0,ltefield=MaxMarks"`
	MaxMarks          float64 `json:"max_marks" validate:"gt=0"`
}

// TeacherSubjectItem lists a subject taught by the caller under whichever
// academic model is in effect for them.
type TeacherSubjectItem struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	Semester          *string `json:"semester,omitempty"`
	DepartmentID      *int64  `json:"department_id,omitempty"`
	SemesterID        *int64  `json:"semester_id,omitempty"`
	SubjectOfferingID *int64  `json:"subject_offering_id,omitempty"`
	SectionID         *int64  `json:"section_id,omitempty"`
	SectionName       *string `json:"section_name,omitempty"`
	AcademicYear      *string `json:"academic_year,omitempty"`
}

// TeacherSubjectsResponse wraps the subject list with the model that produced it.
type TeacherSubjectsResponse struct {
	Model    string               `json:"model"`
	Subjects []TeacherSubjectItem `json:"subjects"`
}

// Academic model labels.
const (
	ModelLegacy = "legacy"
	ModelNew    = "new"
)

// ModelStatusResponse reports reconciliation progress to admins.
type ModelStatusResponse struct {
	PreferNewModel      bool                         `json:"prefer_new_model"`
	Checkpoints         []models.BackfillCheckpoint  `json:"checkpoints"`
	Marks               models.MarksValidationReport `json:"marks"`
	MigrationPercentage float64                      `json:"migration_percentage"`
}

// StudentMarksResponse lists a student's marks as seen by a teacher.
type StudentMarksResponse struct {
	Student models.Student      `json:"student"`
	Marks   []models.MarkDetail `json:"marks"`
}
