package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/repository"
)

// EssayService covers submission intake and read access.
type EssayService interface {
	Create(ctx context.Context, req dto.EssayCreateRequest) (models.Essay, error)
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	List(ctx context.Context, filter dto.EssayFilter) ([]models.Essay, error)
	History(ctx context.Context, essayID uint) ([]models.GradeEvent, error)
}

type essayService struct {
	essays    repository.EssayRepository
	events    repository.GradeEventRepository
	keys      repository.AnswerKeyRepository
	validate  *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewEssayService wires submission intake.
func NewEssayService(essays repository.EssayRepository, events repository.GradeEventRepository, keys repository.AnswerKeyRepository, validate *validator.Validate, logger zerolog.Logger) EssayService {
	return &essayService{
		essays:    essays,
		events:    events,
		keys:      keys,
		validate:  validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "essay_service").Logger(),
	}
}

// Create registers a new submission in PENDING. Answer-sheet submissions must
// reference an existing answer key.
func (s *essayService) Create(ctx context.Context, req dto.EssayCreateRequest) (models.Essay, error) {
	if err := s.validate.Struct(req); err != nil {
		return models.Essay{}, err
	}

	if req.AnswerKeyID != nil {
		if _, err := s.keys.GetByID(ctx, *req.AnswerKeyID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.Essay{}, ErrAnswerKeyNotFound
			}
			return models.Essay{}, fmt.Errorf("load answer key: %w", err)
		}
	}

	essay := models.Essay{
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
		Kind:        req.Kind,
		Status:      models.EssayStatusPending,
		Theme:       strings.TrimSpace(s.sanitizer.Sanitize(req.Theme)),
		SourceURL:   req.SourceURL,
		SourcePath:  req.SourcePath,
		AnswerKeyID: req.AnswerKeyID,
	}

	if err := s.essays.Create(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("create essay: %w", err)
	}

	s.logger.Info().
		Uint("essay_id", essay.ID).
		Uint("student_id", essay.StudentID).
		Str("kind", essay.Kind).
		Msg("submission registered")

	return essay, nil
}

func (s *essayService) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, fmt.Errorf("load essay: %w", err)
	}
	return essay, nil
}

func (s *essayService) List(ctx context.Context, filter dto.EssayFilter) ([]models.Essay, error) {
	if err := s.validate.Struct(filter); err != nil {
		return nil, err
	}

	essays, err := s.essays.List(ctx, repository.EssayFilter{
		StudentID: filter.StudentID,
		ClassID:   filter.ClassID,
		Status:    filter.Status,
		Kind:      filter.Kind,
	})
	if err != nil {
		return nil, fmt.Errorf("list essays: %w", err)
	}
	return essays, nil
}

// History returns the grading passes recorded for a submission, newest
// first.
func (s *essayService) History(ctx context.Context, essayID uint) ([]models.GradeEvent, error) {
	if _, err := s.GetByID(ctx, essayID); err != nil {
		return nil, err
	}

	events, err := s.events.ListByEssay(ctx, essayID)
	if err != nil {
		return nil, fmt.Errorf("list grade events: %w", err)
	}
	return events, nil
}
