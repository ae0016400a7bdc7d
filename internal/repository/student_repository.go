package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const studentColumns = `id, user_id, roll_number, name, department_id, current_semester_id, batch_id, section_id`

// StudentRepository provides access to student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByUserID returns the student profile of a user.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.findOne(ctx, "user_id = $1", userID)
}

// FindByRollNumber returns a student by roll number.
func (r *StudentRepository) FindByRollNumber(ctx context.Context, rollNumber string) (*models.Student, error) {
	return r.findOne(ctx, "roll_number = $1", rollNumber)
}

func (r *StudentRepository) findOne(ctx context.Context, condition string, arg interface{}) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE ` + condition + ` LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, arg); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// List returns students matching the filter along with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	baseQuery := `FROM students WHERE 1=1`
	var args []interface{}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		baseQuery += fmt.Sprintf(" AND department_id = $%d", len(args))
	}
	if filter.SemesterID != nil {
		args = append(args, *filter.SemesterID)
		baseQuery += fmt.Sprintf(" AND current_semester_id = $%d", len(args))
	}
	if filter.SectionID != nil {
		args = append(args, *filter.SectionID)
		baseQuery += fmt.Sprintf(" AND section_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		baseQuery += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args), len(args))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY roll_number ASC LIMIT %d OFFSET %d", studentColumns, baseQuery, pageSize, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListBySection returns the students assigned to a section.
func (r *StudentRepository) ListBySection(ctx context.Context, sectionID int64) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE section_id = $1 ORDER BY roll_number`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, sectionID); err != nil {
		return nil, fmt.Errorf("list students by section: %w", err)
	}
	return students, nil
}

// ListByDepartmentSemester returns the students of a legacy class.
func (r *StudentRepository) ListByDepartmentSemester(ctx context.Context, departmentID, semesterID int64) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE department_id = $1 AND current_semester_id = $2 ORDER BY roll_number`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, departmentID, semesterID); err != nil {
		return nil, fmt.Errorf("list students by class: %w", err)
	}
	return students, nil
}

// CreateWithUser inserts the login user and the student profile in one transaction.
func (r *StudentRepository) CreateWithUser(ctx context.Context, user *models.User, student *models.Student) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create student tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertUser(ctx, tx, user); err != nil {
		return err
	}
	student.UserID = &user.ID

	const query = `INSERT INTO students (user_id, roll_number, name, department_id, current_semester_id, batch_id, section_id)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query,
		student.UserID, student.RollNumber, student.Name, student.DepartmentID, student.CurrentSemesterID, student.BatchID, student.SectionID,
	).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create student tx: %w", err)
	}
	return nil
}
