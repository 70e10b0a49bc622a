package models

import (
	"time"

	"gorm.io/datatypes"
)

// Essay is one graded artifact: a handwritten essay scan or an optical-mark
// answer sheet. Score fields are always recomputed together by the scoring
// engine; they are never edited independently.
type Essay struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StudentID uint   `gorm:"not null;index" json:"student_id"`
	ClassID   uint   `gorm:"index" json:"class_id"`
	Kind      string `gorm:"size:32;not null" json:"kind"`
	Status    string `gorm:"size:16;not null;index" json:"status"`
	Theme     string `gorm:"size:255" json:"theme"`

	// SourceURL points at the uploaded scan; SourcePath is the local copy the
	// optical-mark analysis reads from.
	SourceURL    string `gorm:"size:512" json:"source_url"`
	SourcePath   string `gorm:"size:512" json:"-"`
	CorrectedURL string `gorm:"size:512" json:"corrected_url"`

	// AnswerKeyID links an answer-sheet submission to its expected answers.
	AnswerKeyID *uint `json:"answer_key_id"`

	// Rubric stores the kind-specific payload as a tagged JSON document.
	Rubric          datatypes.JSON `json:"rubric"`
	AnnulmentReason string         `gorm:"size:500" json:"annulment_reason"`
	GeneralComments string         `gorm:"size:2000" json:"general_comments"`

	BimestralWeight    float64  `json:"bimestral_weight"`
	BimestralMaxPoints *float64 `json:"bimestral_max_points"`

	RawScore       *float64 `json:"raw_score"`
	ScaledScore    *float64 `json:"scaled_score"`
	BimestralScore *float64 `json:"bimestral_score"`

	GradedBy      *uint      `json:"graded_by"`
	GradedAt      *time.Time `json:"graded_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
	DeliveryError string     `gorm:"size:500" json:"-"`

	Annotations []Annotation `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"annotations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	// EssayStatusPending indicates the submission arrived and is ungraded.
	EssayStatusPending = "PENDING"
	// EssayStatusGrading indicates rubric and annotation edits are in progress.
	EssayStatusGrading = "GRADING"
	// EssayStatusGraded indicates scoring is finalized.
	EssayStatusGraded = "GRADED"
	// EssayStatusSent indicates the correction was delivered. Terminal.
	EssayStatusSent = "SENT"
)

// Mutable reports whether rubric and annotation writes are currently allowed.
func (e Essay) Mutable() bool {
	return e.Status == EssayStatusPending || e.Status == EssayStatusGrading
}

// Scored reports whether the scoring engine has produced a result, either a
// computed score or an annulment.
func (e Essay) Scored() bool {
	return e.RawScore != nil || e.AnnulmentReason != ""
}
