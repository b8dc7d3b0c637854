package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"linecheck/internal/model"
)

// LocationRepository handles CRUD for locations.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Create(ctx context.Context, location *model.Location) error {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (r *LocationRepository) FindByID(ctx context.Context, locationID uint) (*model.Location, error) {
	var location model.Location
	if err := r.db.WithContext(ctx).First(&location, locationID).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// ListNotifiable returns locations with a Telegram chat configured.
func (r *LocationRepository) ListNotifiable(ctx context.Context) ([]model.Location, error) {
	var locations []model.Location
	if err := r.db.WithContext(ctx).Where("notify_chat_id <> 0").
		Order("name ASC").
		Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}
