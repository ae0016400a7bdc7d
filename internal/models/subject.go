package models

// Subject represents an academic subject. TeacherID is the legacy single
// assignment; the new model assigns teachers through SubjectOffering.
type Subject struct {
	ID           int64  `db:"id" json:"id"`
	Name         string `db:"name" json:"name"`
	Code         string `db:"code" json:"code"`
	DepartmentID *int64 `db:"department_id" json:"department_id,omitempty"`
	SemesterID   *int64 `db:"semester_id" json:"semester_id,omitempty"`
	TeacherID    *int64 `db:"teacher_id" json:"teacher_id,omitempty"`
	RegulationID *int64 `db:"regulation_id" json:"regulation_id,omitempty"`
}

// SubjectWithSemester decorates a subject with its semester name.
type SubjectWithSemester struct {
	Subject
	SemesterName *string `db:"semester_name" json:"semester,omitempty"`
}

// SubjectOffering is a subject taught to a section by a teacher in an academic year.
type SubjectOffering struct {
	ID           int64  `db:"id" json:"id"`
	SubjectID    int64  `db:"subject_id" json:"subject_id"`
	SectionID    int64  `db:"section_id" json:"section_id"`
	TeacherID    int64  `db:"teacher_id" json:"teacher_id"`
	AcademicYear string `db:"academic_year" json:"academic_year"`
}

// SubjectOfferingDetail joins an offering with its subject and section.
type SubjectOfferingDetail struct {
	SubjectOffering
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	SubjectCode  string  `db:"subject_code" json:"subject_code"`
	SectionName  string  `db:"section_name" json:"section_name"`
	SemesterID   *int64  `db:"semester_id" json:"semester_id,omitempty"`
	SemesterName *string `db:"semester_name" json:"semester,omitempty"`
	DepartmentID *int64  `db:"department_id" json:"department_id,omitempty"`
}

// SubjectOfferingFilter narrows offering listings.
type SubjectOfferingFilter struct {
	TeacherID    *int64
	SectionID    *int64
	SubjectID    *int64
	AcademicYear string
}
