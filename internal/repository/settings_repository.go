package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/bazzarly/internal/models"
)

type settingsRepository struct {
	db *gorm.DB
}

func (r *settingsRepository) Get(ctx context.Context) (*models.SystemSettings, error) {
	var settings models.SystemSettings
	err := r.db.WithContext(ctx).Order("created_at ASC").First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := models.DefaultSettings()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	settings.ApplyDefaults()
	return &settings, nil
}

// Save keeps a single row: the first stored row is updated in place.
func (r *settingsRepository) Save(ctx context.Context, settings *models.SystemSettings) error {
	settings.ApplyDefaults()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.SystemSettings
		err := tx.Order("created_at ASC").First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(settings).Error
		case err != nil:
			return err
		}
		settings.ID = existing.ID
		settings.CreatedAt = existing.CreatedAt
		return tx.Save(settings).Error
	})
}
