package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

const offeringColumns = `so.id, so.subject_id, so.section_id, so.teacher_id, so.academic_year`

// SubjectOfferingRepository manages subject offerings of the new academic model.
type SubjectOfferingRepository struct {
	db *sqlx.DB
}

// NewSubjectOfferingRepository constructs the repository.
func NewSubjectOfferingRepository(db *sqlx.DB) *SubjectOfferingRepository {
	return &SubjectOfferingRepository{db: db}
}

// FindByID returns an offering by id.
func (r *SubjectOfferingRepository) FindByID(ctx context.Context, id int64) (*models.SubjectOffering, error) {
	query := `SELECT ` + offeringColumns + ` FROM subject_offerings so WHERE so.id = $1`
	var offering models.SubjectOffering
	if err := r.db.GetContext(ctx, &offering, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find subject offering: %w", err)
	}
	return &offering, nil
}

// FindByTeacherSubject returns the offering matching teacher, subject and year.
func (r *SubjectOfferingRepository) FindByTeacherSubject(ctx context.Context, teacherID, subjectID int64, academicYear string) (*models.SubjectOffering, error) {
	query := `SELECT ` + offeringColumns + ` FROM subject_offerings so
WHERE so.teacher_id = $1 AND so.subject_id = $2 AND so.academic_year = $3 ORDER BY so.id LIMIT 1`
	var offering models.SubjectOffering
	if err := r.db.GetContext(ctx, &offering, query, teacherID, subjectID, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offering by teacher subject: %w", err)
	}
	return &offering, nil
}

// FindBySubjectSection returns the offering of a subject for a section in a year.
func (r *SubjectOfferingRepository) FindBySubjectSection(ctx context.Context, subjectID, sectionID int64, academicYear string) (*models.SubjectOffering, error) {
	query := `SELECT ` + offeringColumns + ` FROM subject_offerings so
WHERE so.subject_id = $1 AND so.section_id = $2 AND so.academic_year = $3`
	var offering models.SubjectOffering
	if err := r.db.GetContext(ctx, &offering, query, subjectID, sectionID, academicYear); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find offering by subject section: %w", err)
	}
	return &offering, nil
}

// Count returns the number of offerings, optionally restricted to a teacher.
func (r *SubjectOfferingRepository) Count(ctx context.Context, teacherID *int64) (int64, error) {
	query := `SELECT COUNT(*) FROM subject_offerings`
	var args []interface{}
	if teacherID != nil {
		query += ` WHERE teacher_id = $1`
		args = append(args, *teacherID)
	}
	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count subject offerings: %w", err)
	}
	return count, nil
}

// CountForTeacherSection counts offerings binding a teacher to a section in a year.
func (r *SubjectOfferingRepository) CountForTeacherSection(ctx context.Context, teacherID, sectionID int64, academicYear string) (int64, error) {
	const query = `SELECT COUNT(*) FROM subject_offerings WHERE teacher_id = $1 AND section_id = $2 AND academic_year = $3`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, teacherID, sectionID, academicYear); err != nil {
		return 0, fmt.Errorf("count teacher section offerings: %w", err)
	}
	return count, nil
}

// List returns offerings with subject and section details.
func (r *SubjectOfferingRepository) List(ctx context.Context, filter models.SubjectOfferingFilter) ([]models.SubjectOfferingDetail, error) {
	query := `SELECT ` + offeringColumns + `, s.name AS subject_name, s.code AS subject_code, sec.name AS section_name,
s.semester_id, sem.name AS semester_name, s.department_id
FROM subject_offerings so
JOIN subjects s ON s.id = so.subject_id
JOIN sections sec ON sec.id = so.section_id
LEFT JOIN semesters sem ON sem.id = s.semester_id`

	var conditions []string
	var args []interface{}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("so.teacher_id = $%d", len(args)))
	}
	if filter.SectionID != nil {
		args = append(args, *filter.SectionID)
		conditions = append(conditions, fmt.Sprintf("so.section_id = $%d", len(args)))
	}
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("so.subject_id = $%d", len(args)))
	}
	if filter.AcademicYear != "" {
		args = append(args, filter.AcademicYear)
		conditions = append(conditions, fmt.Sprintf("so.academic_year = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY so.id"

	var offerings []models.SubjectOfferingDetail
	if err := r.db.SelectContext(ctx, &offerings, query, args...); err != nil {
		return nil, fmt.Errorf("list subject offerings: %w", err)
	}
	return offerings, nil
}

// Create inserts an offering. The unique (subject, section, year) constraint
// rejects duplicates; callers check FindBySubjectSection first for a clean error.
func (r *SubjectOfferingRepository) Create(ctx context.Context, offering *models.SubjectOffering) error {
	const query = `INSERT INTO subject_offerings (subject_id, section_id, teacher_id, academic_year) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, offering.SubjectID, offering.SectionID, offering.TeacherID, offering.AcademicYear).Scan(&offering.ID); err != nil {
		return fmt.Errorf("create subject offering: %w", err)
	}
	return nil
}
