package models

import (
	"time"

	"gorm.io/datatypes"
)

// Annotation is one spatial mark on one page of a submission. All geometry is
// stored as fractions of page width/height in [0,1] so the document can be
// re-rendered at any resolution.
type Annotation struct {
	ID      string `gorm:"primaryKey;size:36" json:"id"`
	EssayID uint   `gorm:"not null;index" json:"essay_id"`
	Page    int    `gorm:"not null" json:"page"`
	Type    string `gorm:"size:16;not null" json:"type"`
	Color   string `gorm:"size:32" json:"color"`
	Number  int    `json:"number"`

	// Geometry holds the type-specific shape payload (rects, points, anchor).
	Geometry datatypes.JSON `json:"geometry"`
	Text     string         `gorm:"size:500" json:"text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	AnnotationTypeHighlight = "HIGHLIGHT"
	AnnotationTypeBox       = "BOX"
	AnnotationTypeStrike    = "STRIKE"
	AnnotationTypeFreehand  = "FREEHAND"
	AnnotationTypeComment   = "COMMENT"
)
