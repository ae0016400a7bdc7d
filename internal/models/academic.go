package models

import "time"

// Institute owns departments and batches.
type Institute struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}

// Regulation identifiers seeded by migration.
const (
	RegulationR20 int64 = 1
	RegulationR23 int64 = 2

	// RegulationCutoffYear is the first admission year governed by R23.
	RegulationCutoffYear = 2023

	// DefaultInstituteID is the institute assigned to inferred batches.
	DefaultInstituteID int64 = 1
)

// Regulation is an academic regulation (curriculum revision).
type Regulation struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	StartYear int    `db:"start_year" json:"start_year"`
}

// Department groups students, teachers and subjects.
type Department struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Code        string  `db:"code" json:"code"`
	ShortCode   *string `db:"short_code" json:"short_code,omitempty"`
	BranchCode  *string `db:"branch_code" json:"branch_code,omitempty"`
	InstituteID *int64  `db:"institute_id" json:"institute_id,omitempty"`
}

// SemesterOrder lists the valid semester names in academic order.
var SemesterOrder = []string{"1-1", "1-2", "2-1", "2-2", "3-1", "3-2", "4-1", "4-2"}

// SemesterSequence returns the 1-based position of name in SemesterOrder, or
// 99 for names outside the order so they sort last.
func SemesterSequence(name string) int {
	for i, candidate := range SemesterOrder {
		if candidate == name {
			return i + 1
		}
	}
	return 99
}

// ValidSemesterName reports whether name is one of SemesterOrder.
func ValidSemesterName(name string) bool {
	return SemesterSequence(name) != 99
}

// Semester is a half-year academic term such as "2-1".
type Semester struct {
	ID       int64  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Sequence *int   `db:"sequence" json:"sequence,omitempty"`
}

// Batch is an admission cohort.
type Batch struct {
	ID            int64 `db:"id" json:"id"`
	AdmissionYear int   `db:"admission_year" json:"admission_year"`
	RegulationID  int64 `db:"regulation_id" json:"regulation_id"`
	InstituteID   int64 `db:"institute_id" json:"institute_id"`
}

// Section is an administrative group of students within a department and batch.
type Section struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	BatchID      int64  `db:"batch_id" json:"batch_id"`
}

// ExamSession is one kind of exam for a semester, regulation and academic year.
type ExamSession struct {
	ID           int64      `db:"id" json:"id"`
	ExamTypeID   ExamTypeID `db:"exam_type_id" json:"exam_type_id"`
	SemesterID   int64      `db:"semester_id" json:"semester_id"`
	RegulationID int64      `db:"regulation_id" json:"regulation_id"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	ExamDate     *time.Time `db:"exam_date" json:"exam_date,omitempty"`
}

// ExamSessionFilter narrows exam session listings.
type ExamSessionFilter struct {
	ExamTypeID   *int64
	SemesterID   *int64
	RegulationID *int64
	AcademicYear string
}
