package service

import (
	"encoding/json"
	"fmt"

	"github.com/escrivo/escrivo-go-api/internal/dto"
	"github.com/escrivo/escrivo-go-api/internal/models"
	"github.com/escrivo/escrivo-go-api/internal/scoring"
)

// rubricDoc is the tagged payload persisted on Essay.Rubric. The kind tag
// makes the stored document self-describing so history queries never have to
// join back to the essay row to interpret it.
type rubricDoc struct {
	Kind string           `json:"kind"`
	Enem *dto.EnemPayload `json:"enem,omitempty"`
	Pas  *dto.PasPayload  `json:"pas,omitempty"`
}

func encodeRubric(doc rubricDoc) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode rubric: %w", err)
	}
	return payload, nil
}

func decodeRubric(essay models.Essay) (rubricDoc, error) {
	var doc rubricDoc
	if len(essay.Rubric) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(essay.Rubric, &doc); err != nil {
		return rubricDoc{}, fmt.Errorf("decode rubric: %w", err)
	}
	return doc, nil
}

func scaleOf(essay models.Essay) scoring.Scale {
	return scoring.Scale{
		Weight:    essay.BimestralWeight,
		MaxPoints: essay.BimestralMaxPoints,
	}
}

func setScores(essay *models.Essay, result scoring.Result) {
	raw := result.Raw
	scaled := result.Scaled
	essay.RawScore = &raw
	essay.ScaledScore = &scaled
	essay.BimestralScore = result.Bimestral
}

func clearScores(essay *models.Essay) {
	essay.RawScore = nil
	essay.ScaledScore = nil
	essay.BimestralScore = nil
}

// recomputePas rescores a PAS essay from its stored rubric and the current
// error-tagged annotation count. Returns false when the essay carries no PAS
// rubric to recompute from.
func recomputePas(essay *models.Essay, errorCount int) (bool, error) {
	doc, err := decodeRubric(*essay)
	if err != nil {
		return false, err
	}
	if doc.Pas == nil {
		return false, nil
	}

	result, err := scoring.Pas(scoring.PasRubric{NC: doc.Pas.NC, NL: doc.Pas.NL}, errorCount, scaleOf(*essay))
	if err != nil {
		return false, err
	}

	setScores(essay, result)
	return true, nil
}
