package repositories

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dimasprasetya/screening-api/internal/models"
)

type UploadRepository interface {
	Create(upload *models.Upload) error
	FindByGroupID(groupID string) (*models.Upload, error)
	Count() (int64, error)
}

type uploadRepository struct {
	db *gorm.DB
}

func NewUploadRepository(db *gorm.DB) UploadRepository {
	return &uploadRepository{db: db}
}

// Create implements UploadRepository.
func (r *uploadRepository) Create(upload *models.Upload) error {
	if err := r.db.Create(&upload).Error; err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

// FindByGroupID implements UploadRepository. The latest row wins when a
// group was re-uploaded.
func (r *uploadRepository) FindByGroupID(groupID string) (*models.Upload, error) {
	var upload models.Upload
	err := r.db.Where("group_id = ?", groupID).
		Order("created_at DESC").
		First(&upload).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("upload not found: %w", err)
		}

		return nil, fmt.Errorf("failed to find upload: %w", err)
	}

	return &upload, nil
}

// Count implements UploadRepository.
func (r *uploadRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Upload{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count uploads: %w", err)
	}

	return count, nil
}
