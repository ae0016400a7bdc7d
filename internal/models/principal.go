package models

// Principal is the caller identity resolved once per request: the user plus
// whichever capability records hang off it.
type Principal struct {
	User    User     `json:"user"`
	Teacher *Teacher `json:"teacher,omitempty"`
	Student *Student `json:"student,omitempty"`
	Admin   *Admin   `json:"admin,omitempty"`
}

// Scope returns the admin scope of the principal, or nil when the principal
// is not an admin. An admin needs the admin role, a teacher profile and an
// admin record; any missing link means "not an admin".
func (p *Principal) Scope() *AdminScope {
	if p == nil || p.User.Role != RoleAdmin || p.Teacher == nil || p.Admin == nil {
		return nil
	}
	return NewAdminScope(*p.Admin)
}

// IsAdmin reports whether the principal holds an admin capability record.
func (p *Principal) IsAdmin() bool {
	return p.Scope() != nil
}

// HasAdminRole reports whether the user carries the admin role, with or without
// an admin record.
func (p *Principal) HasAdminRole() bool {
	return p != nil && p.User.Role == RoleAdmin
}

// TeacherID returns the teacher profile id when present.
func (p *Principal) TeacherID() (int64, bool) {
	if p == nil || p.Teacher == nil {
		return 0, false
	}
	return p.Teacher.ID, true
}
