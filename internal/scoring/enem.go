package scoring

import "fmt"

// enemAllowed is the discrete set of values a single competency may take.
var enemAllowed = map[int]struct{}{0: {}, 40: {}, 80: {}, 120: {}, 160: {}, 200: {}}

// EnemRubric holds the five competency scores of an ENEM-style correction.
type EnemRubric struct {
	C1 int `json:"c1"`
	C2 int `json:"c2"`
	C3 int `json:"c3"`
	C4 int `json:"c4"`
	C5 int `json:"c5"`
}

// Competencies returns the five scores in order.
func (r EnemRubric) Competencies() [5]int {
	return [5]int{r.C1, r.C2, r.C3, r.C4, r.C5}
}

// Validate checks every competency against the allowed discrete set.
func (r EnemRubric) Validate() error {
	for i, c := range r.Competencies() {
		if _, ok := enemAllowed[c]; !ok {
			return fmt.Errorf("%w: competency c%d = %d", ErrInvalidRubric, i+1, c)
		}
	}
	return nil
}

// Enem computes the raw (0-1000) and projected scores for an ENEM rubric.
func Enem(rubric EnemRubric, scale Scale) (Result, error) {
	if err := rubric.Validate(); err != nil {
		return Result{}, err
	}

	raw := 0
	for _, c := range rubric.Competencies() {
		raw += c
	}

	result := project(float64(raw)/1000, scale)
	result.Raw = float64(raw)
	return result, nil
}
