package dto

import (
	"time"

	"github.com/escrivo/escrivo-go-api/internal/models"
)

// EnemPayload carries the five ENEM competency scores.
type EnemPayload struct {
	C1 int `json:"c1"`
	C2 int `json:"c2"`
	C3 int `json:"c3"`
	C4 int `json:"c4"`
	C5 int `json:"c5"`
}

// PasPayload carries the caller-supplied PAS inputs. The error count is
// derived from error-tagged annotations and deliberately has no field here.
type PasPayload struct {
	NC float64 `json:"nc"`
	NL int     `json:"nl"`
}

// GradeEssayRequest writes rubric input onto a submission. Exactly one of
// Enem/Pas is expected, matching the essay kind; both are ignored when an
// annulment reason is present.
type GradeEssayRequest struct {
	BimestralWeight    float64  `json:"bimestral_weight" validate:"gte=0,lte=10"`
	BimestralMaxPoints *float64 `json:"bimestral_max_points" validate:"omitempty,gt=0"`

	Enem *EnemPayload `json:"enem"`
	Pas  *PasPayload  `json:"pas"`

	AnnulmentReason string `json:"annulment_reason" validate:"max=500"`
	GeneralComments string `json:"general_comments" validate:"max=2000"`
}

// DeliveryFailureRequest records why the delivery collaborator failed.
type DeliveryFailureRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// GradeEventResponse serializes one grading history entry.
type GradeEventResponse struct {
	ID             uint      `json:"id"`
	EssayID        uint      `json:"essay_id"`
	RawScore       float64   `json:"raw_score"`
	ScaledScore    float64   `json:"scaled_score"`
	BimestralScore *float64  `json:"bimestral_score,omitempty"`
	Annulled       bool      `json:"annulled"`
	Automated      bool      `json:"automated"`
	GradedBy       uint      `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}

// NewGradeEventResponse converts a GradeEvent model into a DTO.
func NewGradeEventResponse(model models.GradeEvent) GradeEventResponse {
	return GradeEventResponse{
		ID:             model.ID,
		EssayID:        model.EssayID,
		RawScore:       model.RawScore,
		ScaledScore:    model.ScaledScore,
		BimestralScore: model.BimestralScore,
		Annulled:       model.Annulled,
		Automated:      model.Automated,
		GradedBy:       model.GradedBy,
		GradedAt:       model.GradedAt,
	}
}

// NewGradeEventResponseSlice converts grading history entries.
func NewGradeEventResponseSlice(events []models.GradeEvent) []GradeEventResponse {
	responses := make([]GradeEventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewGradeEventResponse(event))
	}
	return responses
}

// SuggestionResponse is the AI-drafted feedback for an essay. It is an
// operator-facing aid and never writes scores.
type SuggestionResponse struct {
	EssayID  uint   `json:"essay_id"`
	Feedback string `json:"feedback"`
	Model    string `json:"model"`
}
