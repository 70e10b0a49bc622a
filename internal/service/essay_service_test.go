package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
)

func newEssayService(repo *fakeEssayRepo, events *fakeGradeEventRepo, keys *fakeAnswerKeyRepo) EssayService {
	return NewEssayService(repo, events, keys, testValidator(), testLogger())
}

func TestEssayServiceCreateStartsPending(t *testing.T) {
	repo := newFakeEssayRepo()
	svc := newEssayService(repo, &fakeGradeEventRepo{}, &fakeAnswerKeyRepo{})

	essay, err := svc.Create(context.Background(), dto.EssayCreateRequest{
		StudentID: 31,
		ClassID:   12,
		Kind:      "ESSAY_ENEM",
		Theme:     "  <i>Mobilidade urbana</i> ",
		SourceURL: "https://cdn.example/scan.pdf",
	})
	require.NoError(t, err)
	require.NotZero(t, essay.ID)
	require.Equal(t, models.EssayStatusPending, essay.Status)
	require.Equal(t, "Mobilidade urbana", essay.Theme)
}

func TestEssayServiceCreateValidatesKind(t *testing.T) {
	svc := newEssayService(newFakeEssayRepo(), &fakeGradeEventRepo{}, &fakeAnswerKeyRepo{})

	_, err := svc.Create(context.Background(), dto.EssayCreateRequest{
		StudentID: 31,
		Kind:      "HAIKU",
		SourceURL: "https://cdn.example/scan.pdf",
	})
	require.Error(t, err)
}

func TestEssayServiceCreateChecksAnswerKey(t *testing.T) {
	keyID := uint(9)
	svc := newEssayService(newFakeEssayRepo(), &fakeGradeEventRepo{}, &fakeAnswerKeyRepo{})

	_, err := svc.Create(context.Background(), dto.EssayCreateRequest{
		StudentID:   31,
		Kind:        "ANSWER_SHEET",
		SourceURL:   "https://cdn.example/scan.pdf",
		AnswerKeyID: &keyID,
	})
	require.ErrorIs(t, err, ErrAnswerKeyNotFound)
}

func TestEssayServiceHistory(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGraded})
	events := &fakeGradeEventRepo{events: []models.GradeEvent{
		{ID: 1, EssayID: 1, RawScore: 600},
		{ID: 2, EssayID: 2, RawScore: 400},
	}}
	svc := newEssayService(repo, events, &fakeAnswerKeyRepo{})

	history, err := svc.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, 600.0, history[0].RawScore)

	_, err = svc.History(context.Background(), 99)
	require.ErrorIs(t, err, ErrEssayNotFound)
}
