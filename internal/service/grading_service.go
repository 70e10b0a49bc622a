package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/bus"
	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/observability"
	"github.com/escrivo/escrivo-go-api/internal/repository"
	"github.com/escrivo/escrivo-go-api/internal/scoring"
)

// GradingService drives the submission state machine:
//
//	PENDING -> GRADING -> GRADED -> SENT
//
// GRADED may reopen back to GRADING until the correction is sent. The only
// legal PENDING -> GRADED shortcut is CompleteAutomated, used by the
// optical-mark pipeline. SENT is terminal.
type GradingService interface {
	Grade(ctx context.Context, essayID uint, req dto.GradeEssayRequest) (models.Essay, error)
	Finalize(ctx context.Context, essayID uint, gradedBy uint) (models.Essay, error)
	Reopen(ctx context.Context, essayID uint) (models.Essay, error)
	MarkDelivered(ctx context.Context, essayID uint) (models.Essay, error)
	MarkDeliveryFailed(ctx context.Context, essayID uint, reason string) (models.Essay, error)
	CompleteAutomated(ctx context.Context, essayID uint, result scoring.Result, correctedURL string) (models.Essay, error)
}

type gradingService struct {
	essays      repository.EssayRepository
	events      repository.GradeEventRepository
	validate    *validator.Validate
	sanitizer   *bluemonday.Policy
	metrics     *observability.Metrics
	locks       *EssayLocks
	publisher   *bus.Publisher
	pasErrorTag string
	logger      zerolog.Logger
}

// NewGradingService wires the grading workflow.
func NewGradingService(essays repository.EssayRepository, events repository.GradeEventRepository, validate *validator.Validate, metrics *observability.Metrics, locks *EssayLocks, publisher *bus.Publisher, pasErrorTag string, logger zerolog.Logger) GradingService {
	return &gradingService{
		essays:      essays,
		events:      events,
		validate:    validate,
		sanitizer:   bluemonday.StrictPolicy(),
		metrics:     metrics,
		locks:       locks,
		publisher:   publisher,
		pasErrorTag: pasErrorTag,
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

// Grade writes the rubric onto the submission and recomputes all score
// fields in one step. An annulment reason bypasses rubric validation and
// forces zero scores.
func (s *gradingService) Grade(ctx context.Context, essayID uint, req dto.GradeEssayRequest) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if !essay.Mutable() {
		return models.Essay{}, s.illegal(essay, "grade")
	}

	if err := s.validate.Struct(req); err != nil {
		return models.Essay{}, err
	}

	essay.BimestralWeight = req.BimestralWeight
	essay.BimestralMaxPoints = req.BimestralMaxPoints
	essay.GeneralComments = strings.TrimSpace(s.sanitizer.Sanitize(req.GeneralComments))
	essay.AnnulmentReason = strings.TrimSpace(s.sanitizer.Sanitize(req.AnnulmentReason))

	doc := rubricDoc{Kind: essay.Kind, Enem: req.Enem, Pas: req.Pas}
	if essay.AnnulmentReason != "" {
		setScores(&essay, scoring.Annul(scaleOf(essay)))
	} else {
		result, err := s.score(ctx, essay, req)
		if err != nil {
			return models.Essay{}, err
		}
		setScores(&essay, result)
	}

	rubric, err := encodeRubric(doc)
	if err != nil {
		return models.Essay{}, err
	}
	essay.Rubric = rubric

	if essay.Status == models.EssayStatusPending {
		essay.Status = models.EssayStatusGrading
	}

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}

	s.logger.Info().
		Uint("essay_id", essay.ID).
		Str("kind", essay.Kind).
		Bool("annulled", essay.AnnulmentReason != "").
		Msg("submission graded")

	return essay, nil
}

func (s *gradingService) score(ctx context.Context, essay models.Essay, req dto.GradeEssayRequest) (scoring.Result, error) {
	scale := scaleOf(essay)

	switch scoring.Kind(essay.Kind) {
	case scoring.KindEnem:
		if req.Enem == nil || req.Pas != nil {
			return scoring.Result{}, fmt.Errorf("%w: ENEM essay requires the five competencies", ErrRubricMismatch)
		}
		result, err := scoring.Enem(scoring.EnemRubric{
			C1: req.Enem.C1, C2: req.Enem.C2, C3: req.Enem.C3, C4: req.Enem.C4, C5: req.Enem.C5,
		}, scale)
		if err != nil {
			return scoring.Result{}, fmt.Errorf("%w: %v", ErrRubricMismatch, err)
		}
		return result, nil

	case scoring.KindPas:
		if req.Pas == nil || req.Enem != nil {
			return scoring.Result{}, fmt.Errorf("%w: PAS essay requires NC and NL", ErrRubricMismatch)
		}
		errorCount, err := s.essays.CountAnnotationsByColor(ctx, essay.ID, s.pasErrorTag)
		if err != nil {
			return scoring.Result{}, fmt.Errorf("count error annotations: %w", err)
		}
		result, err := scoring.Pas(scoring.PasRubric{NC: req.Pas.NC, NL: req.Pas.NL}, int(errorCount), scale)
		if err != nil {
			return scoring.Result{}, fmt.Errorf("%w: %v", ErrRubricMismatch, err)
		}
		return result, nil

	default:
		return scoring.Result{}, fmt.Errorf("%w: %s submissions are scored automatically", ErrRubricMismatch, essay.Kind)
	}
}

// Finalize freezes the scores and records the grading event. The submission
// must be in GRADING and must carry either a score or an annulment.
func (s *gradingService) Finalize(ctx context.Context, essayID uint, gradedBy uint) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if essay.Status != models.EssayStatusGrading {
		return models.Essay{}, s.illegal(essay, "finalize")
	}
	if !essay.Scored() {
		return models.Essay{}, ErrIncompleteGrading
	}

	now := time.Now().UTC()
	essay.Status = models.EssayStatusGraded
	essay.GradedBy = &gradedBy
	essay.GradedAt = &now

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}
	if err := s.recordEvent(ctx, essay, gradedBy, false); err != nil {
		return models.Essay{}, err
	}

	s.metrics.GradingsFinalized.WithLabelValues(essay.Kind, "manual").Inc()
	s.logger.Info().Uint("essay_id", essay.ID).Uint("graded_by", gradedBy).Msg("grading finalized")

	return essay, nil
}

// Reopen moves a finalized submission back to GRADING. Scores are cleared so
// a stale result can never be delivered; the rubric is kept as the grader's
// starting point.
func (s *gradingService) Reopen(ctx context.Context, essayID uint) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if essay.Status != models.EssayStatusGraded {
		return models.Essay{}, s.illegal(essay, "reopen")
	}

	essay.Status = models.EssayStatusGrading
	essay.GradedBy = nil
	essay.GradedAt = nil
	essay.AnnulmentReason = ""
	clearScores(&essay)

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}

	s.logger.Info().Uint("essay_id", essay.ID).Msg("grading reopened")
	return essay, nil
}

// MarkDelivered is the success callback of the delivery collaborator.
func (s *gradingService) MarkDelivered(ctx context.Context, essayID uint) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if essay.Status != models.EssayStatusGraded {
		return models.Essay{}, s.illegal(essay, "deliver")
	}

	now := time.Now().UTC()
	essay.Status = models.EssayStatusSent
	essay.DeliveredAt = &now
	essay.DeliveryError = ""

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}

	s.logger.Info().Uint("essay_id", essay.ID).Msg("correction delivered")
	return essay, nil
}

// MarkDeliveryFailed records a failed delivery attempt. The submission stays
// GRADED so the operator can retry.
func (s *gradingService) MarkDeliveryFailed(ctx context.Context, essayID uint, reason string) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if essay.Status != models.EssayStatusGraded {
		return models.Essay{}, s.illegal(essay, "delivery failure")
	}

	essay.DeliveryError = strings.TrimSpace(s.sanitizer.Sanitize(reason))

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}

	s.metrics.DeliveryFailures.Inc()
	s.publisher.Publish(bus.Event{
		Kind:    bus.EventDeliveryFailed,
		EssayID: essay.ID,
		Reason:  essay.DeliveryError,
	})
	s.logger.Warn().Uint("essay_id", essay.ID).Str("reason", essay.DeliveryError).Msg("delivery failed")

	return essay, nil
}

// CompleteAutomated applies an optical-mark result to a pending answer
// sheet, skipping the GRADING stage. No human grader is recorded.
func (s *gradingService) CompleteAutomated(ctx context.Context, essayID uint, result scoring.Result, correctedURL string) (models.Essay, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.load(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	if essay.Status != models.EssayStatusPending {
		return models.Essay{}, s.illegal(essay, "automated grading")
	}

	now := time.Now().UTC()
	setScores(&essay, result)
	essay.Status = models.EssayStatusGraded
	essay.GradedAt = &now
	essay.CorrectedURL = correctedURL

	if err := s.essays.Update(ctx, &essay); err != nil {
		return models.Essay{}, fmt.Errorf("update essay: %w", err)
	}
	if err := s.recordEvent(ctx, essay, 0, true); err != nil {
		return models.Essay{}, err
	}

	s.metrics.GradingsFinalized.WithLabelValues(essay.Kind, "automated").Inc()
	s.publisher.Publish(bus.Event{Kind: bus.EventOmrCompleted, EssayID: essay.ID})
	s.logger.Info().Uint("essay_id", essay.ID).Msg("automated grading completed")

	return essay, nil
}

func (s *gradingService) recordEvent(ctx context.Context, essay models.Essay, gradedBy uint, automated bool) error {
	event := models.GradeEvent{
		EssayID:        essay.ID,
		Annulled:       essay.AnnulmentReason != "",
		Automated:      automated,
		GradedBy:       gradedBy,
		BimestralScore: essay.BimestralScore,
		GradedAt:       time.Now().UTC(),
	}
	if essay.RawScore != nil {
		event.RawScore = *essay.RawScore
	}
	if essay.ScaledScore != nil {
		event.ScaledScore = *essay.ScaledScore
	}

	if err := s.events.Create(ctx, &event); err != nil {
		return fmt.Errorf("record grade event: %w", err)
	}
	return nil
}

func (s *gradingService) load(ctx context.Context, essayID uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, fmt.Errorf("load essay: %w", err)
	}
	return essay, nil
}

func (s *gradingService) illegal(essay models.Essay, op string) error {
	s.metrics.IllegalTransitions.Inc()
	return fmt.Errorf("%w: cannot %s in status %s", ErrIllegalTransition, op, essay.Status)
}
