package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const departmentColumns = `id, name, code, short_code, branch_code, institute_id`

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns every department.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY code`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id int64) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &department, nil
}

// FindByCode returns a department by code.
func (r *DepartmentRepository) FindByCode(ctx context.Context, code string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE code = $1`
	var department models.Department
	if err := r.db.GetContext(ctx, &department, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department by code: %w", err)
	}
	return &department, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	const query = `INSERT INTO departments (name, code, short_code, branch_code, institute_id) VALUES ($1, $2, $3, $4, COALESCE($5, 1)) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		department.Name, department.Code, department.ShortCode, department.BranchCode, department.InstituteID,
	).Scan(&department.ID); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update stores the mutable department fields.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	const query = `UPDATE departments SET name = $2, code = $3, short_code = $4, branch_code = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, department.ID, department.Name, department.Code, department.ShortCode, department.BranchCode); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// HasDependents reports whether students, teachers or subjects reference the department.
func (r *DepartmentRepository) HasDependents(ctx context.Context, id int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE department_id = $1)
OR EXISTS (SELECT 1 FROM teachers WHERE department_id = $1)
OR EXISTS (SELECT 1 FROM subjects WHERE department_id = $1)`
	var inUse bool
	if err := r.db.GetContext(ctx, &inUse, query, id); err != nil {
		return false, fmt.Errorf("check department dependents: %w", err)
	}
	return inUse, nil
}
