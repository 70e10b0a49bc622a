package dto

import (
	"time"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// EssayCreateRequest describes the intake payload for a new submission.
type EssayCreateRequest struct {
	StudentID   uint   `json:"student_id" validate:"required,gt=0"`
	ClassID     uint   `json:"class_id"`
	Kind        string `json:"kind" validate:"required,oneof=ESSAY_ENEM ESSAY_PAS ANSWER_SHEET"`
	Theme       string `json:"theme" validate:"max=255"`
	SourceURL   string `json:"source_url" validate:"required"`
	SourcePath  string `json:"source_path"`
	AnswerKeyID *uint  `json:"answer_key_id"`
}

// EssayFilter describes query filters for listing submissions.
type EssayFilter struct {
	StudentID *uint   `query:"student_id"`
	ClassID   *uint   `query:"class_id"`
	Status    *string `query:"status" validate:"omitempty,oneof=PENDING GRADING GRADED SENT"`
	Kind      *string `query:"kind" validate:"omitempty,oneof=ESSAY_ENEM ESSAY_PAS ANSWER_SHEET"`
}

// EssayResponse is returned to API clients when viewing a submission.
type EssayResponse struct {
	ID          uint   `json:"id"`
	StudentID   uint   `json:"student_id"`
	ClassID     uint   `json:"class_id"`
	Kind        string `json:"kind"`
	Status      string `json:"status"`
	Theme       string `json:"theme"`
	SourceURL   string `json:"source_url"`
	AnswerKeyID *uint  `json:"answer_key_id,omitempty"`

	AnnulmentReason string `json:"annulment_reason,omitempty"`
	GeneralComments string `json:"general_comments,omitempty"`

	BimestralWeight    float64  `json:"bimestral_weight"`
	BimestralMaxPoints *float64 `json:"bimestral_max_points,omitempty"`

	RawScore       *float64 `json:"raw_score"`
	ScaledScore    *float64 `json:"scaled_score"`
	BimestralScore *float64 `json:"bimestral_score"`

	CorrectedURL string     `json:"corrected_url,omitempty"`
	GradedBy     *uint      `json:"graded_by,omitempty"`
	GradedAt     *time.Time `json:"graded_at,omitempty"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`

	Annotations []AnnotationResponse `json:"annotations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEssayResponse converts an Essay model into a DTO.
func NewEssayResponse(model models.Essay) EssayResponse {
	return EssayResponse{
		ID:                 model.ID,
		StudentID:          model.StudentID,
		ClassID:            model.ClassID,
		Kind:               model.Kind,
		Status:             model.Status,
		Theme:              model.Theme,
		SourceURL:          model.SourceURL,
		AnswerKeyID:        model.AnswerKeyID,
		AnnulmentReason:    model.AnnulmentReason,
		GeneralComments:    model.GeneralComments,
		BimestralWeight:    model.BimestralWeight,
		BimestralMaxPoints: model.BimestralMaxPoints,
		RawScore:           model.RawScore,
		ScaledScore:        model.ScaledScore,
		BimestralScore:     model.BimestralScore,
		CorrectedURL:       model.CorrectedURL,
		GradedBy:           model.GradedBy,
		GradedAt:           model.GradedAt,
		DeliveredAt:        model.DeliveredAt,
		Annotations:        NewAnnotationResponseSlice(model.Annotations),
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}

// NewEssayResponseSlice converts a slice of essays.
func NewEssayResponseSlice(essays []models.Essay) []EssayResponse {
	responses := make([]EssayResponse, 0, len(essays))
	for _, essay := range essays {
		responses = append(responses, NewEssayResponse(essay))
	}
	return responses
}
