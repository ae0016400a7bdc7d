package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// AdminRepository persists the capability records of promoted teachers.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs the repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByTeacherID returns the admin record of a teacher.
func (r *AdminRepository) FindByTeacherID(ctx context.Context, teacherID int64) (*models.Admin, error) {
	const query = `SELECT id, teacher_id, admin_type, department_id, section_id, created_at FROM admins WHERE teacher_id = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, teacherID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find admin by teacher: %w", err)
	}
	return &admin, nil
}

// List returns every admin record joined with its teacher.
func (r *AdminRepository) List(ctx context.Context) ([]models.AdminDetail, error) {
	const query = `SELECT a.id, a.teacher_id, a.admin_type, a.department_id, a.section_id, a.created_at,
t.name AS teacher_name, t.email AS teacher_email
FROM admins a JOIN teachers t ON t.id = a.teacher_id
ORDER BY a.admin_type, t.name`
	var admins []models.AdminDetail
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// Promote stores the admin record and switches the teacher's user to the admin
// role in one transaction.
func (r *AdminRepository) Promote(ctx context.Context, admin *models.Admin, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promote tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO admins (teacher_id, admin_type, department_id, section_id) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	if err := tx.QueryRowxContext(ctx, insert, admin.TeacherID, admin.AdminType, admin.DepartmentID, admin.SectionID).Scan(&admin.ID, &admin.CreatedAt); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, userID, models.RoleAdmin); err != nil {
		return fmt.Errorf("promote user role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit promote tx: %w", err)
	}
	return nil
}

// Demote deletes the admin record and returns the user to the teacher role.
func (r *AdminRepository) Demote(ctx context.Context, teacherID, userID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin demote tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM admins WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`, userID, models.RoleTeacher); err != nil {
		return fmt.Errorf("demote user role: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit demote tx: %w", err)
	}
	return nil
}
