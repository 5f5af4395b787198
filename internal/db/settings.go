package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"salon-notification-service/internal/models"
)

// GetSalonSettings reads the single settings row. Returns ErrNotFound when no
// row exists; callers fall back to safe defaults.
func (d *DB) GetSalonSettings(ctx context.Context) (models.SalonSettings, error) {
	query := `
        SELECT require_approval, COALESCE(timezone, ''), notifications_enabled
        FROM salon_settings
        LIMIT 1`
	var s models.SalonSettings
	err := d.Pool.QueryRow(ctx, query).Scan(
		&s.RequireApproval, &s.Timezone, &s.NotificationsEnabled,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SalonSettings{}, ErrNotFound
		}
		return models.SalonSettings{}, fmt.Errorf("failed to get salon settings: %w", err)
	}
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	return s, nil
}
