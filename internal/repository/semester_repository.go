package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// SemesterRepository persists semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters in academic order.
func (r *SemesterRepository) List(ctx context.Context) ([]models.Semester, error) {
	const query = `SELECT id, name, sequence FROM semesters ORDER BY sequence NULLS LAST, name`
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query); err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	return semesters, nil
}

// FindByID returns a semester by id.
func (r *SemesterRepository) FindByID(ctx context.Context, id int64) (*models.Semester, error) {
	const query = `SELECT id, name, sequence FROM semesters WHERE id = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester: %w", err)
	}
	return &semester, nil
}

// FindByName returns a semester by name.
func (r *SemesterRepository) FindByName(ctx context.Context, name string) (*models.Semester, error) {
	const query = `SELECT id, name, sequence FROM semesters WHERE name = $1`
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester by name: %w", err)
	}
	return &semester, nil
}

// Create inserts a semester.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	const query = `INSERT INTO semesters (name, sequence) VALUES ($1, $2) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, semester.Name, semester.Sequence).Scan(&semester.ID); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}
