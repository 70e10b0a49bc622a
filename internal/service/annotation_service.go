package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/observability"
	"github.com/escrivo/escrivo-go-api/internal/repository"
	"github.com/escrivo/escrivo-go-api/internal/scoring"
)

// Per-submission and per-annotation caps. Oversized payloads are a client
// bug, not a capacity knob, so these are fixed rather than configured.
const (
	maxAnnotationsPerEssay = 500
	maxRectsPerAnnotation  = 8
	maxFreehandPoints      = 200
	maxAnnotationText      = 500
)

// ReplaceOutcome reports what a bulk replace actually wrote.
type ReplaceOutcome struct {
	Annotations []models.Annotation
	Dropped     int
}

// AnnotationService manages the spatial marks on a submission. Every write
// runs under the per-submission lock and respects the grading state machine.
type AnnotationService interface {
	Add(ctx context.Context, essayID uint, draft dto.AnnotationDraft) (models.Annotation, error)
	Replace(ctx context.Context, essayID uint, req dto.ReplaceAnnotationsRequest) (ReplaceOutcome, error)
	ErrorCount(ctx context.Context, essayID uint) (int, error)
}

type annotationService struct {
	essays      repository.EssayRepository
	validate    *validator.Validate
	sanitizer   *bluemonday.Policy
	metrics     *observability.Metrics
	locks       *EssayLocks
	pasErrorTag string
	logger      zerolog.Logger
}

// NewAnnotationService wires the annotation workflow. pasErrorTag is the
// annotation color counted as a PAS language error.
func NewAnnotationService(essays repository.EssayRepository, validate *validator.Validate, metrics *observability.Metrics, locks *EssayLocks, pasErrorTag string, logger zerolog.Logger) AnnotationService {
	return &annotationService{
		essays:      essays,
		validate:    validate,
		sanitizer:   bluemonday.StrictPolicy(),
		metrics:     metrics,
		locks:       locks,
		pasErrorTag: pasErrorTag,
		logger:      logger.With().Str("component", "annotation_service").Logger(),
	}
}

func (s *annotationService) Add(ctx context.Context, essayID uint, draft dto.AnnotationDraft) (models.Annotation, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.loadMutable(ctx, essayID)
	if err != nil {
		return models.Annotation{}, err
	}

	if len(essay.Annotations) >= maxAnnotationsPerEssay {
		return models.Annotation{}, ErrAnnotationLimit
	}

	number := 0
	if draft.Type == models.AnnotationTypeComment {
		number = commentCount(essay.Annotations) + 1
	}

	annotation, err := s.buildAnnotation(essayID, draft, number)
	if err != nil {
		return models.Annotation{}, err
	}

	if err := s.essays.CreateAnnotation(ctx, &annotation); err != nil {
		return models.Annotation{}, fmt.Errorf("create annotation: %w", err)
	}
	s.metrics.AnnotationsWritten.Inc()

	if err := s.afterWrite(ctx, &essay); err != nil {
		return models.Annotation{}, err
	}

	s.logger.Debug().
		Uint("essay_id", essayID).
		Str("type", annotation.Type).
		Msg("annotation added")

	return annotation, nil
}

func (s *annotationService) Replace(ctx context.Context, essayID uint, req dto.ReplaceAnnotationsRequest) (ReplaceOutcome, error) {
	release := s.locks.lock(essayID)
	defer release()

	essay, err := s.loadMutable(ctx, essayID)
	if err != nil {
		return ReplaceOutcome{}, err
	}

	annotations := make([]models.Annotation, 0, len(req.Annotations))
	dropped := 0
	comments := 0

	for i, draft := range req.Annotations {
		if len(annotations) >= maxAnnotationsPerEssay {
			if req.Strict {
				return ReplaceOutcome{}, ErrAnnotationLimit
			}
			dropped += len(req.Annotations) - i
			break
		}

		number := 0
		if draft.Type == models.AnnotationTypeComment {
			number = comments + 1
		}

		annotation, err := s.buildAnnotation(essayID, draft, number)
		if err != nil {
			if req.Strict {
				return ReplaceOutcome{}, fmt.Errorf("annotation %d: %w", i, err)
			}
			dropped++
			continue
		}

		if annotation.Type == models.AnnotationTypeComment {
			comments++
		}
		annotations = append(annotations, annotation)
	}

	if err := s.essays.ReplaceAnnotations(ctx, essayID, annotations); err != nil {
		return ReplaceOutcome{}, fmt.Errorf("replace annotations: %w", err)
	}
	s.metrics.AnnotationsWritten.Add(float64(len(annotations)))
	if dropped > 0 {
		s.metrics.AnnotationsDropped.Add(float64(dropped))
		s.logger.Warn().
			Uint("essay_id", essayID).
			Int("dropped", dropped).
			Msg("invalid annotation drafts dropped")
	}

	if err := s.afterWrite(ctx, &essay); err != nil {
		return ReplaceOutcome{}, err
	}

	return ReplaceOutcome{Annotations: annotations, Dropped: dropped}, nil
}

// ErrorCount reports how many annotations carry the error color. This is the
// NE input of the PAS formula.
func (s *annotationService) ErrorCount(ctx context.Context, essayID uint) (int, error) {
	count, err := s.essays.CountAnnotationsByColor(ctx, essayID, s.pasErrorTag)
	if err != nil {
		return 0, fmt.Errorf("count error annotations: %w", err)
	}
	return int(count), nil
}

// loadMutable fetches the essay and rejects writes against finalized or
// delivered submissions.
func (s *annotationService) loadMutable(ctx context.Context, essayID uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, fmt.Errorf("load essay: %w", err)
	}

	if !essay.Mutable() {
		s.metrics.IllegalTransitions.Inc()
		return models.Essay{}, fmt.Errorf("%w: annotations are frozen in status %s", ErrIllegalTransition, essay.Status)
	}

	return essay, nil
}

// afterWrite moves a pending submission into GRADING and, for PAS essays
// that already carry a rubric, recomputes the score from the new error
// count.
func (s *annotationService) afterWrite(ctx context.Context, essay *models.Essay) error {
	changed := false

	if essay.Status == models.EssayStatusPending {
		essay.Status = models.EssayStatusGrading
		changed = true
	}

	if scoring.Kind(essay.Kind) == scoring.KindPas && essay.AnnulmentReason == "" && essay.Scored() {
		errorCount, err := s.ErrorCount(ctx, essay.ID)
		if err != nil {
			return err
		}
		rescored, err := recomputePas(essay, errorCount)
		if err != nil {
			return fmt.Errorf("rescore after annotation change: %w", err)
		}
		changed = changed || rescored
	}

	if !changed {
		return nil
	}

	if err := s.essays.Update(ctx, essay); err != nil {
		return fmt.Errorf("update essay: %w", err)
	}
	return nil
}

func (s *annotationService) buildAnnotation(essayID uint, draft dto.AnnotationDraft, number int) (models.Annotation, error) {
	if err := s.validate.Struct(draft); err != nil {
		return models.Annotation{}, fmt.Errorf("%w: %v", ErrInvalidAnnotation, err)
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(draft.Text))
	if len(text) > maxAnnotationText {
		return models.Annotation{}, fmt.Errorf("%w: text exceeds %d characters", ErrInvalidAnnotation, maxAnnotationText)
	}

	geometry, err := normalizeGeometry(draft)
	if err != nil {
		return models.Annotation{}, err
	}

	if draft.Type == models.AnnotationTypeComment && text == "" {
		return models.Annotation{}, fmt.Errorf("%w: comment requires text", ErrInvalidAnnotation)
	}

	payload, err := json.Marshal(geometry)
	if err != nil {
		return models.Annotation{}, fmt.Errorf("encode geometry: %w", err)
	}

	return models.Annotation{
		ID:       uuid.NewString(),
		EssayID:  essayID,
		Page:     draft.Page,
		Type:     draft.Type,
		Color:    strings.ToLower(strings.TrimSpace(draft.Color)),
		Number:   number,
		Geometry: payload,
		Text:     text,
	}, nil
}

// normalizeGeometry validates the shape payload for the annotation type and
// clamps every coordinate into the fractional page square.
func normalizeGeometry(draft dto.AnnotationDraft) (dto.AnnotationGeometry, error) {
	geometry := dto.AnnotationGeometry{
		StrokeWidth: clampRange(draft.StrokeWidth, 0, 1),
		Opacity:     clampRange(draft.Opacity, 0, 1),
	}

	switch draft.Type {
	case models.AnnotationTypeHighlight:
		if len(draft.Rects) == 0 || len(draft.Rects) > maxRectsPerAnnotation {
			return dto.AnnotationGeometry{}, fmt.Errorf("%w: highlight requires 1..%d rects", ErrInvalidAnnotation, maxRectsPerAnnotation)
		}
		geometry.Rects = make([]dto.Rect, 0, len(draft.Rects))
		for _, rect := range draft.Rects {
			geometry.Rects = append(geometry.Rects, clampRect(rect))
		}

	case models.AnnotationTypeBox:
		if draft.Rect == nil {
			return dto.AnnotationGeometry{}, fmt.Errorf("%w: box requires a rect", ErrInvalidAnnotation)
		}
		rect := clampRect(*draft.Rect)
		geometry.Rect = &rect

	case models.AnnotationTypeStrike:
		if draft.From == nil || draft.To == nil {
			return dto.AnnotationGeometry{}, fmt.Errorf("%w: strike requires from and to", ErrInvalidAnnotation)
		}
		from, to := clampPoint(*draft.From), clampPoint(*draft.To)
		geometry.From = &from
		geometry.To = &to

	case models.AnnotationTypeFreehand:
		if len(draft.Points) < 2 || len(draft.Points) > maxFreehandPoints {
			return dto.AnnotationGeometry{}, fmt.Errorf("%w: freehand requires 2..%d points", ErrInvalidAnnotation, maxFreehandPoints)
		}
		geometry.Points = make([]dto.Point, 0, len(draft.Points))
		for _, point := range draft.Points {
			geometry.Points = append(geometry.Points, clampPoint(point))
		}

	case models.AnnotationTypeComment:
		if draft.At == nil {
			return dto.AnnotationGeometry{}, fmt.Errorf("%w: comment requires an anchor point", ErrInvalidAnnotation)
		}
		at := clampPoint(*draft.At)
		geometry.At = &at

	default:
		return dto.AnnotationGeometry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidAnnotation, draft.Type)
	}

	return geometry, nil
}

// clampRect clamps each value to [0,1] independently. In-range values pass
// through untouched, even when x+w or y+h overflows the page square.
func clampRect(rect dto.Rect) dto.Rect {
	return dto.Rect{
		X: clampRange(rect.X, 0, 1),
		Y: clampRange(rect.Y, 0, 1),
		W: clampRange(rect.W, 0, 1),
		H: clampRange(rect.H, 0, 1),
	}
}

func clampPoint(point dto.Point) dto.Point {
	return dto.Point{
		X: clampRange(point.X, 0, 1),
		Y: clampRange(point.Y, 0, 1),
	}
}

func clampRange(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func commentCount(annotations []models.Annotation) int {
	count := 0
	for _, annotation := range annotations {
		if annotation.Type == models.AnnotationTypeComment {
			count++
		}
	}
	return count
}
