package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"olive-chat-server/internal/model"
)

type ImageRepository struct {
	db *gorm.DB
}

func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(image *model.Image) error {
	if err := r.db.Create(image).Error; err != nil {
		return fmt.Errorf("create image failed: %w", err)
	}
	return nil
}

// GetByID returns nil without error when the image does not exist.
func (r *ImageRepository) GetByID(id string) (*model.Image, error) {
	var image model.Image
	if err := r.db.Where("id = ?", id).First(&image).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get image failed: %w", err)
	}
	return &image, nil
}
