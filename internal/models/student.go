package models

// Student is a learner profile linked to a student user.
type Student struct {
	ID                int64  `db:"id" json:"id"`
	UserID            *int64 `db:"user_id" json:"user_id,omitempty"`
	RollNumber        string `db:"roll_number" json:"roll_number"`
	Name              string `db:"name" json:"name"`
	DepartmentID      *int64 `db:"department_id" json:"department_id,omitempty"`
	CurrentSemesterID *int64 `db:"current_semester_id" json:"current_semester_id,omitempty"`
	BatchID           *int64 `db:"batch_id" json:"batch_id,omitempty"`
	SectionID         *int64 `db:"section_id" json:"section_id,omitempty"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	DepartmentID *int64
	SemesterID   *int64
	SectionID    *int64
	Search       string
	Page         int
	PageSize     int
}
