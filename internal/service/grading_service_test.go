package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/scoring"
)

func newGradingService(repo *fakeEssayRepo, events *fakeGradeEventRepo) GradingService {
	return NewGradingService(repo, events, testValidator(), testMetrics(), NewEssayLocks(), testPublisher(), "green", testLogger())
}

func TestGradingServiceGradeEnem(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusPending})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{
		BimestralWeight: 10,
		Enem:            &dto.EnemPayload{C1: 120, C2: 120, C3: 120, C4: 120, C5: 120},
	})
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGrading, essay.Status)
	require.Equal(t, 600.0, *essay.RawScore)
	require.Equal(t, 6.0, *essay.ScaledScore)
}

func TestGradingServiceGradeEnemRejectsOffStepCompetency(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGrading})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{
		BimestralWeight: 10,
		Enem:            &dto.EnemPayload{C1: 50, C2: 120, C3: 120, C4: 120, C5: 120},
	})
	require.ErrorIs(t, err, ErrRubricMismatch)
	require.Nil(t, repo.essays[1].RawScore)
}

func TestGradingServiceGradePasCountsErrorAnnotations(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_PAS", Status: models.EssayStatusGrading})
	repo.annotations[1] = []models.Annotation{
		{ID: "a", EssayID: 1, Color: "green"},
		{ID: "b", EssayID: 1, Color: "green"},
		{ID: "c", EssayID: 1, Color: "yellow"},
	}
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{
		BimestralWeight: 10,
		Pas:             &dto.PasPayload{NC: 8, NL: 20},
	})
	require.NoError(t, err)
	require.Equal(t, 7.8, *essay.RawScore)
}

func TestGradingServiceGradeKindMismatch(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGrading})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{
		BimestralWeight: 10,
		Pas:             &dto.PasPayload{NC: 8, NL: 20},
	})
	require.ErrorIs(t, err, ErrRubricMismatch)
}

func TestGradingServiceAnnulmentBypassesRubric(t *testing.T) {
	maxPoints := 40.0
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGrading})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{
		BimestralWeight:    10,
		BimestralMaxPoints: &maxPoints,
		AnnulmentReason:    "fuga ao tema",
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, *essay.RawScore)
	require.Equal(t, 0.0, *essay.ScaledScore)
	require.NotNil(t, essay.BimestralScore)
	require.Equal(t, 0.0, *essay.BimestralScore)
}

func TestGradingServiceGradeRejectsFrozen(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusSent})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Grade(context.Background(), 1, dto.GradeEssayRequest{BimestralWeight: 10})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestGradingServiceFinalize(t *testing.T) {
	raw := 600.0
	scaled := 6.0
	repo := newFakeEssayRepo(models.Essay{
		ID:          1,
		Kind:        "ESSAY_ENEM",
		Status:      models.EssayStatusGrading,
		RawScore:    &raw,
		ScaledScore: &scaled,
	})
	events := &fakeGradeEventRepo{}
	svc := newGradingService(repo, events)

	essay, err := svc.Finalize(context.Background(), 1, 42)
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGraded, essay.Status)
	require.Equal(t, uint(42), *essay.GradedBy)
	require.NotNil(t, essay.GradedAt)

	require.Len(t, events.events, 1)
	require.Equal(t, 600.0, events.events[0].RawScore)
	require.False(t, events.events[0].Automated)
	require.Equal(t, uint(42), events.events[0].GradedBy)
}

func TestGradingServiceFinalizeRequiresScore(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGrading})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Finalize(context.Background(), 1, 42)
	require.ErrorIs(t, err, ErrIncompleteGrading)
}

func TestGradingServiceFinalizeFromPending(t *testing.T) {
	raw := 600.0
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusPending, RawScore: &raw})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Finalize(context.Background(), 1, 42)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestGradingServiceReopenClearsScores(t *testing.T) {
	raw := 600.0
	scaled := 6.0
	gradedBy := uint(42)
	now := time.Now()
	repo := newFakeEssayRepo(models.Essay{
		ID:          1,
		Kind:        "ESSAY_ENEM",
		Status:      models.EssayStatusGraded,
		RawScore:    &raw,
		ScaledScore: &scaled,
		GradedBy:    &gradedBy,
		GradedAt:    &now,
	})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.Reopen(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGrading, essay.Status)
	require.Nil(t, essay.RawScore)
	require.Nil(t, essay.ScaledScore)
	require.Nil(t, essay.GradedBy)
}

func TestGradingServiceReopenRejectsSent(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusSent})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.Reopen(context.Background(), 1)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestGradingServiceDeliveryLifecycle(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGraded, DeliveryError: "smtp refused"})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.MarkDelivered(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusSent, essay.Status)
	require.NotNil(t, essay.DeliveredAt)
	require.Empty(t, essay.DeliveryError)

	// terminal: no second delivery, no reopening
	_, err = svc.MarkDelivered(context.Background(), 1)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestGradingServiceMarkDeliveryFailedStaysGraded(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGraded})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	essay, err := svc.MarkDeliveryFailed(context.Background(), 1, "smtp refused")
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGraded, essay.Status)
	require.Equal(t, "smtp refused", essay.DeliveryError)
}

func TestGradingServiceCompleteAutomated(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ANSWER_SHEET", Status: models.EssayStatusPending, BimestralWeight: 10})
	events := &fakeGradeEventRepo{}
	svc := newGradingService(repo, events)

	result := scoring.Result{Raw: 7.5, Scaled: 7.5}
	essay, err := svc.CompleteAutomated(context.Background(), 1, result, "https://cdn.example/corrected.pdf")
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusGraded, essay.Status)
	require.Equal(t, 7.5, *essay.RawScore)
	require.Equal(t, "https://cdn.example/corrected.pdf", essay.CorrectedURL)

	require.Len(t, events.events, 1)
	require.True(t, events.events[0].Automated)
	require.Equal(t, uint(0), events.events[0].GradedBy)
}

func TestGradingServiceCompleteAutomatedRequiresPending(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ANSWER_SHEET", Status: models.EssayStatusGrading})
	svc := newGradingService(repo, &fakeGradeEventRepo{})

	_, err := svc.CompleteAutomated(context.Background(), 1, scoring.Result{Raw: 5}, "")
	require.ErrorIs(t, err, ErrIllegalTransition)
}
