package dto

import (
	"encoding/json"
	"time"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// Rect is an axis-aligned rectangle in fractional page coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Point is a position in fractional page coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AnnotationGeometry carries the type-specific shape of an annotation. Only
// the fields relevant to the annotation type are populated.
type AnnotationGeometry struct {
	Rects       []Rect  `json:"rects,omitempty"`
	Rect        *Rect   `json:"rect,omitempty"`
	From        *Point  `json:"from,omitempty"`
	To          *Point  `json:"to,omitempty"`
	Points      []Point `json:"points,omitempty"`
	At          *Point  `json:"at,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	Opacity     float64 `json:"opacity,omitempty"`
}

// AnnotationDraft is the write payload for a single annotation.
type AnnotationDraft struct {
	Page  int    `json:"page" validate:"required,gte=1"`
	Type  string `json:"type" validate:"required"`
	Color string `json:"color"`
	Text  string `json:"text"`

	Rects       []Rect  `json:"rects"`
	Rect        *Rect   `json:"rect"`
	From        *Point  `json:"from"`
	To          *Point  `json:"to"`
	Points      []Point `json:"points"`
	At          *Point  `json:"at"`
	StrokeWidth float64 `json:"stroke_width"`
	Opacity     float64 `json:"opacity"`
}

// ReplaceAnnotationsRequest bulk-replaces the annotation set of an essay.
// Strict switches from the legacy best-effort policy (drop invalid drafts) to
// all-or-nothing validation.
type ReplaceAnnotationsRequest struct {
	Annotations []AnnotationDraft `json:"annotations"`
	Strict      bool              `json:"strict"`
}

// AnnotationResponse serializes one stored annotation.
type AnnotationResponse struct {
	ID        string             `json:"id"`
	EssayID   uint               `json:"essay_id"`
	Page      int                `json:"page"`
	Type      string             `json:"type"`
	Color     string             `json:"color"`
	Number    int                `json:"number"`
	Text      string             `json:"text,omitempty"`
	Geometry  AnnotationGeometry `json:"geometry"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewAnnotationResponse converts an Annotation model into a DTO.
func NewAnnotationResponse(model models.Annotation) AnnotationResponse {
	response := AnnotationResponse{
		ID:        model.ID,
		EssayID:   model.EssayID,
		Page:      model.Page,
		Type:      model.Type,
		Color:     model.Color,
		Number:    model.Number,
		Text:      model.Text,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}

	if len(model.Geometry) > 0 {
		_ = json.Unmarshal(model.Geometry, &response.Geometry)
	}

	return response
}

// NewAnnotationResponseSlice converts a slice of annotations.
func NewAnnotationResponseSlice(annotations []models.Annotation) []AnnotationResponse {
	responses := make([]AnnotationResponse, 0, len(annotations))
	for _, annotation := range annotations {
		responses = append(responses, NewAnnotationResponse(annotation))
	}
	return responses
}
