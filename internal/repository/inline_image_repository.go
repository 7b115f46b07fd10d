package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/openscol/messagerie/internal/models"
	"gorm.io/gorm"
)

// InlineImageRepository defines the interface for inline image metadata
type InlineImageRepository interface {
	Create(ctx context.Context, image *models.InlineImage) error
	GetByID(ctx context.Context, id string) (*models.InlineImage, error)
	Delete(ctx context.Context, id string) error
}

// inlineImageRepository implements InlineImageRepository using GORM
type inlineImageRepository struct {
	db *gorm.DB
}

// NewInlineImageRepository creates a new InlineImageRepository instance
func NewInlineImageRepository(db *gorm.DB) InlineImageRepository {
	return &inlineImageRepository{db: db}
}

// Create stores inline image metadata
func (r *inlineImageRepository) Create(ctx context.Context, image *models.InlineImage) error {
	result := r.db.WithContext(ctx).Create(image)
	if result.Error != nil {
		return fmt.Errorf("failed to create inline image: %w", result.Error)
	}
	return nil
}

// GetByID retrieves inline image metadata by its ID
func (r *inlineImageRepository) GetByID(ctx context.Context, id string) (*models.InlineImage, error) {
	var image models.InlineImage
	result := r.db.WithContext(ctx).First(&image, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inline image: %w", result.Error)
	}
	return &image, nil
}

// Delete removes inline image metadata by its ID
func (r *inlineImageRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.InlineImage{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete inline image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
