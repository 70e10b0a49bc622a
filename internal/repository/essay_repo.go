package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// EssayFilter allows narrowing essay queries.
type EssayFilter struct {
	StudentID *uint
	ClassID   *uint
	Status    *string
	Kind      *string
}

// EssayRepository defines data operations for submissions. Loads and saves are
// atomic per call; the service layer serializes conflicting transitions.
type EssayRepository interface {
	List(ctx context.Context, filter EssayFilter) ([]models.Essay, error)
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	Create(ctx context.Context, essay *models.Essay) error
	Update(ctx context.Context, essay *models.Essay) error
	CreateAnnotation(ctx context.Context, annotation *models.Annotation) error
	ReplaceAnnotations(ctx context.Context, essayID uint, annotations []models.Annotation) error
	CountAnnotationsByColor(ctx context.Context, essayID uint, color string) (int64, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

func (r *essayRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Essay{}).
		Preload("Annotations", func(db *gorm.DB) *gorm.DB {
			return db.Order("annotations.number ASC")
		})
}

func (r *essayRepository) List(ctx context.Context, filter EssayFilter) ([]models.Essay, error) {
	query := r.baseQuery(ctx)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}

	var essays []models.Essay
	if err := query.Order("created_at DESC").Find(&essays).Error; err != nil {
		return nil, err
	}

	return essays, nil
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	if err := r.baseQuery(ctx).First(&essay, id).Error; err != nil {
		return models.Essay{}, err
	}

	return essay, nil
}

func (r *essayRepository) Create(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Create(essay).Error
}

func (r *essayRepository) Update(ctx context.Context, essay *models.Essay) error {
	return r.db.WithContext(ctx).Save(essay).Error
}

func (r *essayRepository) CreateAnnotation(ctx context.Context, annotation *models.Annotation) error {
	return r.db.WithContext(ctx).Create(annotation).Error
}

// ReplaceAnnotations swaps the full annotation set of an essay in one
// transaction so a partial write can never be observed.
func (r *essayRepository) ReplaceAnnotations(ctx context.Context, essayID uint, annotations []models.Annotation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("essay_id = ?", essayID).Delete(&models.Annotation{}).Error; err != nil {
			return err
		}
		if len(annotations) == 0 {
			return nil
		}
		return tx.Create(&annotations).Error
	})
}

func (r *essayRepository) CountAnnotationsByColor(ctx context.Context, essayID uint, color string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Annotation{}).
		Where("essay_id = ?", essayID).
		Where("color = ?", color).
		Count(&count).Error
	return count, err
}
