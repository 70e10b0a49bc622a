package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/bus"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/repository"
	"github.com/escrivo/escrivo-go-api/internal/scoring"
	"github.com/escrivo/escrivo-go-api/pkg/omr"
)

// optionLetters maps answer-key option letters onto zero-based indexes.
const optionLetters = "ABCDE"

// ArtifactUploader stores a local artifact and returns its public URL.
// *cloudinary.Store satisfies it.
type ArtifactUploader interface {
	UploadFile(ctx context.Context, path string) (string, error)
}

// OmrService runs the optical-mark pipeline for one answer sheet at a time.
// A Redis SETNX guard keeps concurrent runs for the same submission out;
// there is no automatic retry, failed runs leave the submission PENDING for
// the operator to re-trigger.
type OmrService interface {
	Analyze(ctx context.Context, essayID uint) (models.Essay, error)
}

// OmrConfig carries the pipeline knobs resolved from configuration.
type OmrConfig struct {
	// OutputDir is where the script writes the corrected PDF.
	OutputDir string
	// InflightTTL bounds how long the in-flight guard may outlive a crashed
	// run before the submission can be re-triggered.
	InflightTTL time.Duration
}

type omrService struct {
	essays    repository.EssayRepository
	keys      repository.AnswerKeyRepository
	grading   GradingService
	runner    omr.Runner
	redis     *redis.Client
	uploader  ArtifactUploader
	publisher *bus.Publisher
	cfg       OmrConfig
	logger    zerolog.Logger
}

// NewOmrService wires the optical-mark pipeline.
func NewOmrService(essays repository.EssayRepository, keys repository.AnswerKeyRepository, grading GradingService, runner omr.Runner, redisClient *redis.Client, uploader ArtifactUploader, publisher *bus.Publisher, cfg OmrConfig, logger zerolog.Logger) OmrService {
	if cfg.InflightTTL <= 0 {
		cfg.InflightTTL = 10 * time.Minute
	}

	return &omrService{
		essays:    essays,
		keys:      keys,
		grading:   grading,
		runner:    runner,
		redis:     redisClient,
		uploader:  uploader,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "omr_service").Logger(),
	}
}

func (s *omrService) Analyze(ctx context.Context, essayID uint) (models.Essay, error) {
	essay, err := s.essays.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrEssayNotFound
		}
		return models.Essay{}, fmt.Errorf("load essay: %w", err)
	}

	if scoring.Kind(essay.Kind) != scoring.KindSheet {
		return models.Essay{}, fmt.Errorf("%w: only answer sheets can be analyzed", ErrRubricMismatch)
	}
	if essay.Status != models.EssayStatusPending {
		return models.Essay{}, fmt.Errorf("%w: cannot analyze in status %s", ErrIllegalTransition, essay.Status)
	}
	if essay.AnswerKeyID == nil {
		return models.Essay{}, fmt.Errorf("%w: submission has no answer key", ErrAnswerKeyNotFound)
	}

	if err := s.checkMedia(essay.SourcePath); err != nil {
		return models.Essay{}, err
	}

	release, err := s.acquire(ctx, essayID)
	if err != nil {
		return models.Essay{}, err
	}
	defer release()

	key, err := s.keys.GetByID(ctx, *essay.AnswerKeyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Essay{}, ErrAnswerKeyNotFound
		}
		return models.Essay{}, fmt.Errorf("load answer key: %w", err)
	}

	answerKey, err := decodeAnswerKey(key)
	if err != nil {
		return models.Essay{}, err
	}

	run, err := s.runner.Run(ctx, omr.Request{
		DocumentPath: essay.SourcePath,
		AnswerKey:    answerKey,
		StudentID:    strconv.FormatUint(uint64(essay.StudentID), 10),
		ClassID:      strconv.FormatUint(uint64(essay.ClassID), 10),
		OutputDir:    s.cfg.OutputDir,
	})
	if err != nil {
		s.fail(essay, err)
		return models.Essay{}, err
	}

	result, err := scoring.SheetScore(run.Score, key.MaxPoints, scaleOf(essay))
	if err != nil {
		s.fail(essay, err)
		return models.Essay{}, fmt.Errorf("score analysis result: %w", err)
	}

	correctedURL, err := s.uploader.UploadFile(ctx, run.CorrectedPath)
	if err != nil {
		wrapped := fmt.Errorf("upload corrected artifact: %w", err)
		s.fail(essay, wrapped)
		return models.Essay{}, wrapped
	}

	graded, err := s.grading.CompleteAutomated(ctx, essayID, result, correctedURL)
	if err != nil {
		return models.Essay{}, err
	}

	s.logger.Info().
		Uint("essay_id", essayID).
		Float64("score", run.Score).
		Dur("duration", run.Duration).
		Msg("optical-mark analysis applied")

	return graded, nil
}

// checkMedia rejects scans whose sniffed content type is not a PDF or a
// common raster image. The extension is not trusted.
func (s *omrService) checkMedia(path string) error {
	if path == "" {
		return fmt.Errorf("%w: submission has no local scan", ErrUnsupportedMedia)
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect scan media type: %w", err)
	}

	switch detected.String() {
	case "application/pdf", "image/png", "image/jpeg":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedMedia, detected.String())
	}
}

// acquire takes the per-submission in-flight guard. The TTL releases the
// guard even if the process dies mid-run.
func (s *omrService) acquire(ctx context.Context, essayID uint) (func(), error) {
	key := inflightKey(essayID)

	ok, err := s.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), s.cfg.InflightTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire analysis guard: %w", err)
	}
	if !ok {
		return nil, ErrOmrAlreadyRunning
	}

	return func() {
		if err := s.redis.Del(context.Background(), key).Err(); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to release analysis guard")
		}
	}, nil
}

func (s *omrService) fail(essay models.Essay, cause error) {
	s.publisher.Publish(bus.Event{
		Kind:      bus.EventOmrFailed,
		EssayID:   essay.ID,
		StudentID: strconv.FormatUint(uint64(essay.StudentID), 10),
		Reason:    cause.Error(),
	})
	s.logger.Error().Err(cause).Uint("essay_id", essay.ID).Msg("optical-mark analysis failed")
}

func inflightKey(essayID uint) string {
	return fmt.Sprintf("omr:inflight:%d", essayID)
}

// decodeAnswerKey turns the stored option letters into the index map the
// analysis script expects.
func decodeAnswerKey(key models.AnswerKey) (map[int]int, error) {
	var letters []string
	if err := json.Unmarshal(key.Answers, &letters); err != nil {
		return nil, fmt.Errorf("decode answer key %d: %w", key.ID, err)
	}
	if len(letters) == 0 {
		return nil, fmt.Errorf("%w: answer key %d is empty", scoring.ErrInvalidRubric, key.ID)
	}

	answers := make(map[int]int, len(letters))
	for question, letter := range letters {
		index := strings.Index(optionLetters, strings.ToUpper(strings.TrimSpace(letter)))
		if index < 0 {
			return nil, fmt.Errorf("%w: answer key %d question %d has option %q", scoring.ErrInvalidRubric, key.ID, question+1, letter)
		}
		answers[question] = index
	}

	return answers, nil
}
