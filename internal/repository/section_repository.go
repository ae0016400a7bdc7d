package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// SectionRepository manages batches and sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs the repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListSections returns every section.
func (r *SectionRepository) ListSections(ctx context.Context) ([]models.Section, error) {
	const query = `SELECT id, name, department_id, batch_id FROM sections ORDER BY department_id, batch_id, name`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// FindSection returns a section by id.
func (r *SectionRepository) FindSection(ctx context.Context, id int64) (*models.Section, error) {
	const query = `SELECT id, name, department_id, batch_id FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section: %w", err)
	}
	return &section, nil
}

// FindSectionByName returns the named section of a department and batch.
func (r *SectionRepository) FindSectionByName(ctx context.Context, departmentID, batchID int64, name string) (*models.Section, error) {
	const query = `SELECT id, name, department_id, batch_id FROM sections WHERE department_id = $1 AND batch_id = $2 AND name = $3`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, departmentID, batchID, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find section by name: %w", err)
	}
	return &section, nil
}

// CreateSection inserts a section.
func (r *SectionRepository) CreateSection(ctx context.Context, section *models.Section) error {
	const query = `INSERT INTO sections (name, department_id, batch_id) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, section.Name, section.DepartmentID, section.BatchID).Scan(&section.ID); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// ListBatches returns every batch.
func (r *SectionRepository) ListBatches(ctx context.Context) ([]models.Batch, error) {
	const query = `SELECT id, admission_year, regulation_id, institute_id FROM batches ORDER BY admission_year`
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, query); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// FindBatch returns a batch by id.
func (r *SectionRepository) FindBatch(ctx context.Context, id int64) (*models.Batch, error) {
	const query = `SELECT id, admission_year, regulation_id, institute_id FROM batches WHERE id = $1`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch: %w", err)
	}
	return &batch, nil
}

// FindBatchByYear returns the batch admitted in year at an institute.
func (r *SectionRepository) FindBatchByYear(ctx context.Context, admissionYear int, instituteID int64) (*models.Batch, error) {
	const query = `SELECT id, admission_year, regulation_id, institute_id FROM batches WHERE admission_year = $1 AND institute_id = $2`
	var batch models.Batch
	if err := r.db.GetContext(ctx, &batch, query, admissionYear, instituteID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch by year: %w", err)
	}
	return &batch, nil
}

// CreateBatch inserts a batch.
func (r *SectionRepository) CreateBatch(ctx context.Context, batch *models.Batch) error {
	const query = `INSERT INTO batches (admission_year, regulation_id, institute_id) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, batch.AdmissionYear, batch.RegulationID, batch.InstituteID).Scan(&batch.ID); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}
