package ai

import "context"

// ReviewInput contains the artefacts a reviewer needs to draft feedback for a
// graded essay.
type ReviewInput struct {
	Theme           string
	Kind            string
	RawScore        float64
	ScaledScore     float64
	AnnotationNotes []string
	GeneralComments string
}

// Review is the structured draft returned by the AI reviewer. The text is a
// suggestion only; a grader must accept or rewrite it before delivery.
type Review struct {
	Feedback  string                 `json:"feedback"`
	Strengths []string               `json:"strengths,omitempty"`
	Issues    []string               `json:"issues,omitempty"`
	Raw       map[string]interface{} `json:"raw,omitempty"`
}

// Reviewer describes an AI model capable of drafting essay feedback.
type Reviewer interface {
	Review(ctx context.Context, input ReviewInput) (Review, error)
}
