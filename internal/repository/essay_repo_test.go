package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

func setupEssayTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Essay{}, &models.Annotation{}, &models.AnswerKey{}, &models.GradeEvent{}))

	// The shared-cache database survives across tests in this package.
	for _, table := range []string{"grade_events", "annotations", "essays", "answer_keys"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}

	return db
}

func TestEssayRepositoryListFilters(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	pending := models.Essay{StudentID: 1, ClassID: 5, Kind: "ESSAY_ENEM", Status: models.EssayStatusPending, SourceURL: "https://cdn/a.pdf"}
	graded := models.Essay{StudentID: 1, ClassID: 5, Kind: "ESSAY_PAS", Status: models.EssayStatusGraded, SourceURL: "https://cdn/b.pdf"}
	other := models.Essay{StudentID: 2, ClassID: 6, Kind: "ANSWER_SHEET", Status: models.EssayStatusPending, SourceURL: "https://cdn/c.pdf"}

	require.NoError(t, repo.Create(ctx, &pending))
	require.NoError(t, repo.Create(ctx, &graded))
	require.NoError(t, repo.Create(ctx, &other))

	studentID := uint(1)
	essays, err := repo.List(ctx, EssayFilter{StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, essays, 2)

	status := models.EssayStatusPending
	essays, err = repo.List(ctx, EssayFilter{StudentID: &studentID, Status: &status})
	require.NoError(t, err)
	require.Len(t, essays, 1)
	require.Equal(t, pending.ID, essays[0].ID)
}

func TestEssayRepositoryReplaceAnnotationsIsAtomic(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	essay := models.Essay{StudentID: 1, Kind: "ESSAY_PAS", Status: models.EssayStatusGrading, SourceURL: "https://cdn/a.pdf"}
	require.NoError(t, repo.Create(ctx, &essay))

	first := []models.Annotation{
		{ID: "a-1", EssayID: essay.ID, Page: 1, Type: models.AnnotationTypeHighlight, Color: "green", Number: 1},
		{ID: "a-2", EssayID: essay.ID, Page: 1, Type: models.AnnotationTypeComment, Color: "yellow", Number: 2},
	}
	require.NoError(t, repo.ReplaceAnnotations(ctx, essay.ID, first))

	second := []models.Annotation{
		{ID: "b-1", EssayID: essay.ID, Page: 2, Type: models.AnnotationTypeBox, Color: "green", Number: 1},
	}
	require.NoError(t, repo.ReplaceAnnotations(ctx, essay.ID, second))

	loaded, err := repo.GetByID(ctx, essay.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Annotations, 1)
	require.Equal(t, "b-1", loaded.Annotations[0].ID)
}

func TestEssayRepositoryCountAnnotationsByColor(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	essay := models.Essay{StudentID: 1, Kind: "ESSAY_PAS", Status: models.EssayStatusGrading, SourceURL: "https://cdn/a.pdf"}
	require.NoError(t, repo.Create(ctx, &essay))

	annotations := []models.Annotation{
		{ID: "c-1", EssayID: essay.ID, Page: 1, Type: models.AnnotationTypeHighlight, Color: "green", Number: 1},
		{ID: "c-2", EssayID: essay.ID, Page: 1, Type: models.AnnotationTypeHighlight, Color: "green", Number: 2},
		{ID: "c-3", EssayID: essay.ID, Page: 2, Type: models.AnnotationTypeHighlight, Color: "yellow", Number: 3},
	}
	require.NoError(t, repo.ReplaceAnnotations(ctx, essay.ID, annotations))

	count, err := repo.CountAnnotationsByColor(ctx, essay.ID, "green")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestGradeEventRepositoryHistory(t *testing.T) {
	db := setupEssayTestDB(t)
	essays := NewEssayRepository(db)
	events := NewGradeEventRepository(db)
	ctx := context.Background()

	essay := models.Essay{StudentID: 1, Kind: "ESSAY_ENEM", Status: models.EssayStatusGraded, SourceURL: "https://cdn/a.pdf"}
	require.NoError(t, essays.Create(ctx, &essay))

	require.NoError(t, events.Create(ctx, &models.GradeEvent{EssayID: essay.ID, RawScore: 600, ScaledScore: 6, GradedBy: 7}))
	require.NoError(t, events.Create(ctx, &models.GradeEvent{EssayID: essay.ID, RawScore: 720, ScaledScore: 7.2, GradedBy: 7}))

	history, err := events.ListByEssay(ctx, essay.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}
