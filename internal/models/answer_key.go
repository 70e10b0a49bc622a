package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerKey is the expected-answer set for an optical-mark evaluation.
// Answers holds one option letter per question ("A".."E"), in question order.
type AnswerKey struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	ClassID   uint           `gorm:"index" json:"class_id"`
	Answers   datatypes.JSON `gorm:"not null" json:"answers"`
	MaxPoints float64        `gorm:"not null" json:"max_points"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// GradeEvent records one grading pass over an essay: who scored it, with
// which outcome, and when. History survives re-grading.
type GradeEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EssayID        uint      `gorm:"not null;index" json:"essay_id"`
	RawScore       float64   `json:"raw_score"`
	ScaledScore    float64   `json:"scaled_score"`
	BimestralScore *float64  `json:"bimestral_score"`
	Annulled       bool      `json:"annulled"`
	Automated      bool      `json:"automated"`
	GradedBy       uint      `json:"graded_by"`
	GradedAt       time.Time `json:"graded_at"`
}
