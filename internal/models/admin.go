package models

import "time"

// AdminType enumerates the capability levels of an admin record.
type AdminType string

const (
	AdminTypeMaster        AdminType = "master"
	AdminTypeHOD           AdminType = "hod"
	AdminTypeClassIncharge AdminType = "class_incharge"
)

// Valid reports whether t is a known admin type.
func (t AdminType) Valid() bool {
	switch t {
	case AdminTypeMaster, AdminTypeHOD, AdminTypeClassIncharge:
		return true
	}
	return false
}

// Admin is the capability record attached to a promoted teacher.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	TeacherID    int64     `db:"teacher_id" json:"teacher_id"`
	AdminType    AdminType `db:"admin_type" json:"admin_type"`
	DepartmentID *int64    `db:"department_id" json:"department_id,omitempty"`
	SectionID    *int64    `db:"section_id" json:"section_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AdminScope describes the visibility window granted by an admin record. The
// three flags are mutually exclusive and derived from AdminType only.
type AdminScope struct {
	AdminType       AdminType `json:"admin_type"`
	DepartmentID    *int64    `json:"department_id"`
	SectionID       *int64    `json:"section_id"`
	IsMaster        bool      `json:"is_master"`
	IsHOD           bool      `json:"is_hod"`
	IsClassIncharge bool      `json:"is_class_incharge"`
}

// NewAdminScope derives the scope descriptor of an admin record.
func NewAdminScope(admin Admin) *AdminScope {
	return &AdminScope{
		AdminType:       admin.AdminType,
		DepartmentID:    admin.DepartmentID,
		SectionID:       admin.SectionID,
		IsMaster:        admin.AdminType == AdminTypeMaster,
		IsHOD:           admin.AdminType == AdminTypeHOD,
		IsClassIncharge: admin.AdminType == AdminTypeClassIncharge,
	}
}

// DepartmentFilter returns the department a scoped admin is limited to.
// Master admins are never limited.
func (s *AdminScope) DepartmentFilter() *int64 {
	if s == nil || !s.IsHOD {
		return nil
	}
	return s.DepartmentID
}

// SectionFilter returns the section a class-incharge admin is limited to.
func (s *AdminScope) SectionFilter() *int64 {
	if s == nil || !s.IsClassIncharge {
		return nil
	}
	return s.SectionID
}

// AdminDetail joins an admin record with its teacher.
type AdminDetail struct {
	Admin
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	TeacherEmail string `db:"teacher_email" json:"teacher_email"`
}
