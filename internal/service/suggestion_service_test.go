package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/pkg/ai"
)

type fakeReviewer struct {
	review ai.Review
	err    error
	last   ai.ReviewInput
}

func (f *fakeReviewer) Review(ctx context.Context, input ai.ReviewInput) (ai.Review, error) {
	f.last = input
	return f.review, f.err
}

func TestSuggestionServiceDraft(t *testing.T) {
	raw := 600.0
	scaled := 6.0
	repo := newFakeEssayRepo(models.Essay{
		ID:          1,
		Kind:        "ESSAY_ENEM",
		Status:      models.EssayStatusGrading,
		Theme:       "Mobilidade urbana",
		RawScore:    &raw,
		ScaledScore: &scaled,
	})
	repo.annotations[1] = []models.Annotation{
		{ID: "a", EssayID: 1, Type: models.AnnotationTypeComment, Text: "tese pouco clara"},
		{ID: "b", EssayID: 1, Type: models.AnnotationTypeHighlight},
	}
	reviewer := &fakeReviewer{review: ai.Review{Feedback: "Bom texto, revise a tese."}}
	svc := NewSuggestionService(repo, reviewer, "gpt-4o-mini", testLogger())

	suggestion, err := svc.Draft(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, uint(1), suggestion.EssayID)
	require.Equal(t, "Bom texto, revise a tese.", suggestion.Feedback)
	require.Equal(t, "gpt-4o-mini", suggestion.Model)

	require.Equal(t, "Mobilidade urbana", reviewer.last.Theme)
	require.Equal(t, 600.0, reviewer.last.RawScore)
	require.Equal(t, []string{"tese pouco clara"}, reviewer.last.AnnotationNotes)
}

func TestSuggestionServiceRequiresScore(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusPending})
	svc := NewSuggestionService(repo, &fakeReviewer{}, "gpt-4o-mini", testLogger())

	_, err := svc.Draft(context.Background(), 1)
	require.ErrorIs(t, err, ErrSuggestionUnavailable)
}

func TestSuggestionServiceWithoutReviewer(t *testing.T) {
	repo := newFakeEssayRepo(models.Essay{ID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGrading})
	svc := NewSuggestionService(repo, nil, "", testLogger())

	_, err := svc.Draft(context.Background(), 1)
	require.ErrorIs(t, err, ErrSuggestionUnavailable)
}
