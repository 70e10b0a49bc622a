package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// GradeEventRepository persists grading history entries.
type GradeEventRepository interface {
	Create(ctx context.Context, event *models.GradeEvent) error
	ListByEssay(ctx context.Context, essayID uint) ([]models.GradeEvent, error)
}

type gradeEventRepository struct {
	db *gorm.DB
}

// NewGradeEventRepository instantiates the repository.
func NewGradeEventRepository(db *gorm.DB) GradeEventRepository {
	return &gradeEventRepository{db: db}
}

func (r *gradeEventRepository) Create(ctx context.Context, event *models.GradeEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gradeEventRepository) ListByEssay(ctx context.Context, essayID uint) ([]models.GradeEvent, error) {
	var events []models.GradeEvent
	err := r.db.WithContext(ctx).
		Where("essay_id = ?", essayID).
		Order("graded_at DESC").
		Find(&events).Error
	return events, err
}
