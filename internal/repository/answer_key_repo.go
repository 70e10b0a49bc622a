package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// AnswerKeyRepository defines data operations for answer keys.
type AnswerKeyRepository interface {
	GetByID(ctx context.Context, id uint) (models.AnswerKey, error)
	Create(ctx context.Context, key *models.AnswerKey) error
}

type answerKeyRepository struct {
	db *gorm.DB
}

// NewAnswerKeyRepository instantiates the repository.
func NewAnswerKeyRepository(db *gorm.DB) AnswerKeyRepository {
	return &answerKeyRepository{db: db}
}

func (r *answerKeyRepository) GetByID(ctx context.Context, id uint) (models.AnswerKey, error) {
	var key models.AnswerKey
	if err := r.db.WithContext(ctx).First(&key, id).Error; err != nil {
		return models.AnswerKey{}, err
	}

	return key, nil
}

func (r *answerKeyRepository) Create(ctx context.Context, key *models.AnswerKey) error {
	return r.db.WithContext(ctx).Create(key).Error
}
