// Package scoring implements the grading arithmetic for essays and answer
// sheets. Every function is pure and deterministic; persistence and state
// transitions live in the service layer.
package scoring

import "errors"

// Kind discriminates the rubric shape attached to a submission.
type Kind string

const (
	// KindEnem is the five-competency essay rubric.
	KindEnem Kind = "ESSAY_ENEM"
	// KindPas is the deduction-based essay rubric.
	KindPas Kind = "ESSAY_PAS"
	// KindSheet is an optical-mark answer sheet.
	KindSheet Kind = "ANSWER_SHEET"
)

// Valid reports whether the kind is one of the supported rubric shapes.
func (k Kind) Valid() bool {
	switch k {
	case KindEnem, KindPas, KindSheet:
		return true
	default:
		return false
	}
}

// ErrInvalidRubric indicates a rubric value outside its allowed domain.
var ErrInvalidRubric = errors.New("rubric value outside allowed domain")

// Scale carries the external grading-scale parameters supplied by the caller.
// Weight is the bimestral weight (0-10); MaxPoints, when present, requests a
// second projection onto a teacher-defined point total.
type Scale struct {
	Weight    float64
	MaxPoints *float64
}

// Result groups the numeric outputs of one scoring pass. The three fields are
// always recomputed together and must never be edited independently.
type Result struct {
	Raw       float64
	Scaled    float64
	Bimestral *float64
}

// Annul returns the zeroed result an annulled submission receives. Annulment
// bypasses rubric validation entirely, so it is always legal even with
// incomplete rubric input.
func Annul(scale Scale) Result {
	result := Result{}
	if scale.MaxPoints != nil {
		zero := 0.0
		result.Bimestral = &zero
	}
	return result
}

// project maps a normalized raw score (in [0,1]) onto the caller's scale.
// Rounding happens before clamping, matching the legacy order of operations.
func project(normalized float64, scale Scale) Result {
	result := Result{}

	result.Scaled = Round1(scale.Weight * normalized)
	if result.Scaled > scale.Weight {
		result.Scaled = scale.Weight
	}

	if scale.MaxPoints != nil {
		bimestral := Round1(*scale.MaxPoints * normalized)
		if bimestral > *scale.MaxPoints {
			bimestral = *scale.MaxPoints
		}
		result.Bimestral = &bimestral
	}

	return result
}
