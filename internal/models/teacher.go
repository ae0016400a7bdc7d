package models

// Teacher is an instructor profile linked to a teacher user.
type Teacher struct {
	ID           int64  `db:"id" json:"id"`
	UserID       *int64 `db:"user_id" json:"user_id,omitempty"`
	Email        string `db:"email" json:"email"`
	Name         string `db:"name" json:"name"`
	DepartmentID *int64 `db:"department_id" json:"department_id,omitempty"`
}
