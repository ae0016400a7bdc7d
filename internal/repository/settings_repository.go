package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/performance-analyzer-api/internal/models"
)

// SettingsRepository reads and writes the single grading settings row.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings row or sql.ErrNoRows when it was never seeded.
func (r *SettingsRepository) Get(ctx context.Context) (*models.Settings, error) {
	const query = `SELECT pass_percentage, weak_threshold FROM settings ORDER BY id LIMIT 1`
	var settings models.Settings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

// Update overwrites the settings row.
func (r *SettingsRepository) Update(ctx context.Context, settings models.Settings) error {
	const query = `UPDATE settings SET pass_percentage = $1, weak_threshold = $2 WHERE id = (SELECT id FROM settings ORDER BY id LIMIT 1)`
	res, err := r.db.ExecContext(ctx, query, settings.PassPercentage, settings.WeakThreshold)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
