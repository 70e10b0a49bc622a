package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/escrivo/escrivo-go-api/internal/bus"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/observability"
	"github.com/escrivo/escrivo-go-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func testMetrics() *observability.Metrics {
	return observability.NewMetrics(nil)
}

func testPublisher() *bus.Publisher {
	return bus.NewPublisher(nil, "", zerolog.Nop())
}

func mustJSON(v any) []byte {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return payload
}

type fakeEssayRepo struct {
	essays      map[uint]models.Essay
	annotations map[uint][]models.Annotation
	nextID      uint

	updateCalls  int
	replaceCalls int
}

func newFakeEssayRepo(essays ...models.Essay) *fakeEssayRepo {
	repo := &fakeEssayRepo{
		essays:      make(map[uint]models.Essay),
		annotations: make(map[uint][]models.Annotation),
	}
	for _, essay := range essays {
		repo.essays[essay.ID] = essay
		if essay.ID > repo.nextID {
			repo.nextID = essay.ID
		}
	}
	return repo
}

func (f *fakeEssayRepo) List(ctx context.Context, filter repository.EssayFilter) ([]models.Essay, error) {
	essays := make([]models.Essay, 0, len(f.essays))
	for _, essay := range f.essays {
		if filter.Status != nil && essay.Status != *filter.Status {
			continue
		}
		if filter.StudentID != nil && essay.StudentID != *filter.StudentID {
			continue
		}
		essays = append(essays, essay)
	}
	return essays, nil
}

func (f *fakeEssayRepo) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	essay, ok := f.essays[id]
	if !ok {
		return models.Essay{}, gorm.ErrRecordNotFound
	}
	essay.Annotations = f.annotations[id]
	return essay, nil
}

func (f *fakeEssayRepo) Create(ctx context.Context, essay *models.Essay) error {
	f.nextID++
	essay.ID = f.nextID
	f.essays[essay.ID] = *essay
	return nil
}

func (f *fakeEssayRepo) Update(ctx context.Context, essay *models.Essay) error {
	f.updateCalls++
	f.essays[essay.ID] = *essay
	return nil
}

func (f *fakeEssayRepo) CreateAnnotation(ctx context.Context, annotation *models.Annotation) error {
	f.annotations[annotation.EssayID] = append(f.annotations[annotation.EssayID], *annotation)
	return nil
}

func (f *fakeEssayRepo) ReplaceAnnotations(ctx context.Context, essayID uint, annotations []models.Annotation) error {
	f.replaceCalls++
	f.annotations[essayID] = annotations
	return nil
}

func (f *fakeEssayRepo) CountAnnotationsByColor(ctx context.Context, essayID uint, color string) (int64, error) {
	count := int64(0)
	for _, annotation := range f.annotations[essayID] {
		if annotation.Color == color {
			count++
		}
	}
	return count, nil
}

type fakeAnswerKeyRepo struct {
	keys map[uint]models.AnswerKey
}

func (f *fakeAnswerKeyRepo) GetByID(ctx context.Context, id uint) (models.AnswerKey, error) {
	key, ok := f.keys[id]
	if !ok {
		return models.AnswerKey{}, gorm.ErrRecordNotFound
	}
	return key, nil
}

func (f *fakeAnswerKeyRepo) Create(ctx context.Context, key *models.AnswerKey) error {
	if f.keys == nil {
		f.keys = make(map[uint]models.AnswerKey)
	}
	f.keys[key.ID] = *key
	return nil
}

type fakeGradeEventRepo struct {
	events []models.GradeEvent
}

func (f *fakeGradeEventRepo) Create(ctx context.Context, event *models.GradeEvent) error {
	event.ID = uint(len(f.events) + 1)
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeGradeEventRepo) ListByEssay(ctx context.Context, essayID uint) ([]models.GradeEvent, error) {
	events := make([]models.GradeEvent, 0)
	for _, event := range f.events {
		if event.EssayID == essayID {
			events = append(events, event)
		}
	}
	return events, nil
}
