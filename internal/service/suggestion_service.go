package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/repository"
	"github.com/escrivo/escrivo-go-api/pkg/ai"
)

// ErrSuggestionUnavailable reports that no AI reviewer is configured or the
// submission is not ready for feedback drafting.
var ErrSuggestionUnavailable = errors.New("feedback suggestion unavailable")

// SuggestionService drafts student-facing feedback from the grading summary.
// The draft never writes scores; it is a starting point for the grader.
type SuggestionService interface {
	Draft(ctx context.Context, essayID uint) (dto.SuggestionResponse, error)
}

type suggestionService struct {
	essays   repository.EssayRepository
	reviewer ai.Reviewer
	model    string
	logger   zerolog.Logger
}

// NewSuggestionService wires the feedback drafter. reviewer may be nil when
// no AI provider is configured.
func NewSuggestionService(essays repository.EssayRepository, reviewer ai.Reviewer, model string, logger zerolog.Logger) SuggestionService {
	return &suggestionService{
		essays:   essays,
		reviewer: reviewer,
		model:    model,
		logger:   logger.With().Str("component", "suggestion_service").Logger(),
	}
}

func (s *suggestionService) Draft(ctx context.Context, essayID uint) (dto.SuggestionResponse, error) {
	if s.reviewer == nil {
		return dto.SuggestionResponse{}, ErrSuggestionUnavailable
	}

	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SuggestionResponse{}, ErrEssayNotFound
		}
		return dto.SuggestionResponse{}, fmt.Errorf("load essay: %w", err)
	}

	if !essay.Scored() {
		return dto.SuggestionResponse{}, fmt.Errorf("%w: submission has no score yet", ErrSuggestionUnavailable)
	}

	input := ai.ReviewInput{
		Theme:           essay.Theme,
		Kind:            essay.Kind,
		GeneralComments: essay.GeneralComments,
	}
	if essay.RawScore != nil {
		input.RawScore = *essay.RawScore
	}
	if essay.ScaledScore != nil {
		input.ScaledScore = *essay.ScaledScore
	}
	for _, annotation := range essay.Annotations {
		if annotation.Type == models.AnnotationTypeComment && annotation.Text != "" {
			input.AnnotationNotes = append(input.AnnotationNotes, annotation.Text)
		}
	}

	review, err := s.reviewer.Review(ctx, input)
	if err != nil {
		return dto.SuggestionResponse{}, fmt.Errorf("draft feedback: %w", err)
	}

	s.logger.Debug().Uint("essay_id", essayID).Msg("feedback draft produced")

	return dto.SuggestionResponse{
		EssayID:  essayID,
		Feedback: review.Feedback,
		Model:    s.model,
	}, nil
}
