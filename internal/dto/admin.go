package dto

import "github.com/noah-isme/performance-analyzer-api/internal/models"

// AdminStats counts entities across both academic models.
type AdminStats struct {
	TotalStudents    int64 `db:"total_students" json:"total_students"`
	TotalTeachers    int64 `db:"total_teachers" json:"total_teachers"`
	TotalDepartments int64 `db:"total_departments" json:"total_departments"`
	TotalSubjects    int64 `db:"total_subjects" json:"total_subjects"`
	Batches          int64 `db:"batches" json:"batches"`
	Sections         int64 `db:"sections" json:"sections"`
	SubjectOfferings int64 `db:"subject_offerings" json:"subject_offerings"`
	ExamSessions     int64 `db:"exam_sessions" json:"exam_sessions"`
}

// DepartmentRequest creates or updates a department.
type DepartmentRequest struct {
	Name       string  `json:"name" validate:"required,max=255"`
	Code       string  `json:"code" validate:"required,max=50"`
	ShortCode  *string `json:"short_code" validate:"omitempty,max=20"`
	BranchCode *string `json:"branch_code" validate:"omitempty,max=10"`
}

// SemesterRequest creates a semester.
type SemesterRequest struct {
	Name string `json:"name" validate:"required"`
}

// SubjectRequest creates a subject.
type SubjectRequest struct {
	Name         string `json:"name" validate:"required,max=255"`
	Code         string `json:"code" validate:"required,max=50"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	SemesterID   int64  `json:"semester_id" validate:"required,gt=0"`
	RegulationID *int64 `json:"regulation_id" validate:"omitempty,gt=0"`
}

// StudentRequest creates a student together with its login.
type StudentRequest struct {
	RollNumber        string `json:"roll_number" validate:"required,max=50"`
	Name              string `json:"name" validate:"required,max=255"`
	DepartmentID      int64  `json:"department_id" validate:"required,gt=0"`
	CurrentSemesterID int64  `json:"current_semester_id" validate:"required,gt=0"`
	BatchID           *int64 `json:"batch_id" validate:"omitempty,gt=0"`
	SectionID         *int64 `json:"section_id" validate:"omitempty,gt=0"`
	Password          string `json:"password" validate:"required,min=6"`
}

// TeacherRequest creates a teacher together with its login.
type TeacherRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required,max=255"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	Password     string `json:"password" validate:"required,min=6"`
}

// TeacherSubjectRequest assigns a subject to a teacher in the legacy model.
type TeacherSubjectRequest struct {
	TeacherID int64 `json:"teacher_id" validate:"required,gt=0"`
	SubjectID int64 `json:"subject_id" validate:"required,gt=0"`
}

// SettingsRequest updates grading thresholds.
type SettingsRequest struct {
	PassPercentage float64 `json:"pass_percentage" validate:"gte=0,lte=100"`
	WeakThreshold  float64 `json:"weak_threshold" validate:"gte=0,lte=100"`
}

// BatchRequest creates a batch.
type BatchRequest struct {
	AdmissionYear int   `json:"admission_year" validate:"required,gte=2000,lte=2099"`
	RegulationID  int64 `json:"regulation_id" validate:"required,gt=0"`
	InstituteID   int64 `json:"institute_id" validate:"required,gt=0"`
}

// SectionRequest creates a section.
type SectionRequest struct {
	Name         string `json:"name" validate:"required,max=50"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	BatchID      int64  `json:"batch_id" validate:"required,gt=0"`
}

// SubjectOfferingRequest creates a subject offering.
type SubjectOfferingRequest struct {
	SubjectID    int64  `json:"subject_id" validate:"required,gt=0"`
	SectionID    int64  `json:"section_id" validate:"required,gt=0"`
	TeacherID    int64  `json:"teacher_id" validate:"required,gt=0"`
	AcademicYear string `json:"academic_year" validate:"required,len=7"`
}

// ExamSessionRequest creates an exam session.
type ExamSessionRequest struct {
	ExamTypeID   int64   `json:"exam_type_id" validate:"required,gt=0"`
	SemesterID   int64   `json:"semester_id" validate:"required,gt=0"`
	RegulationID int64   `json:"regulation_id" validate:"required,gt=0"`
	AcademicYear string  `json:"academic_year" validate:"required,len=7"`
	ExamDate     *string `json:"exam_date" validate:"omitempty,datetime=2006-01-02"`
}

// PromoteAdminRequest attaches an admin record to a teacher.
type PromoteAdminRequest struct {
	TeacherID    int64            `json:"teacher_id" validate:"required,gt=0"`
	AdminType    models.AdminType `json:"admin_type" validate:"required,oneof=master hod class_incharge"`
	DepartmentID *int64           `json:"department_id" validate:"omitempty,gt=0"`
	SectionID    *int64           `json:"section_id" validate:"omitempty,gt=0"`
}

// MarksReportFilter narrows the marks export.
type MarksReportFilter struct {
	DepartmentID *int64
	SemesterID   *int64
	SubjectID    *int64
	SectionID    *int64
}

// MarksReportRow is one exported mark.
type MarksReportRow struct {
	StudentName   string  `db:"student_name"`
	RollNumber    string  `db:"roll_number"`
	Department    string  `db:"department_code"`
	Semester      *string `db:"semester_name"`
	SubjectCode   string  `db:"subject_code"`
	SubjectName   string  `db:"subject_name"`
	ExamType      string  `db:"exam_type"`
	MarksObtained float64 `db:"marks_obtained"`
	TotalMarks    float64 `db:"total_marks"`
}
