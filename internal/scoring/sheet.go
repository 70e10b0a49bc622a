package scoring

import "fmt"

// SheetRubric describes an answer-sheet grading input: a per-question expected
// option index and the parallel detected option index. Keys are zero-based
// question indexes, values are zero-based option indexes (0=A, 1=B, ...).
type SheetRubric struct {
	Expected map[int]int `json:"expected"`
	Detected map[int]int `json:"detected"`
}

// Hits counts the questions whose detected option equals the expected option.
// Questions missing from Detected count as misses.
func (r SheetRubric) Hits() int {
	hits := 0
	for question, want := range r.Expected {
		if got, ok := r.Detected[question]; ok && got == want {
			hits++
		}
	}
	return hits
}

// Sheet maps a hit count onto the caller-supplied point scale and applies the
// bimestral projection. maxPoints is the value of a fully correct sheet.
func Sheet(rubric SheetRubric, maxPoints float64, scale Scale) (Result, error) {
	total := len(rubric.Expected)
	if total == 0 {
		return Result{}, fmt.Errorf("%w: answer key is empty", ErrInvalidRubric)
	}
	if maxPoints <= 0 {
		return Result{}, fmt.Errorf("%w: max points = %v, want > 0", ErrInvalidRubric, maxPoints)
	}

	raw := Round2(Clamp(maxPoints*float64(rubric.Hits())/float64(total), 0, maxPoints))

	result := project(raw/maxPoints, scale)
	result.Raw = raw
	return result, nil
}

// SheetScore maps a pre-computed point score (for example the value reported
// by the external optical-mark analysis) onto the same round/clamp contract.
func SheetScore(points, maxPoints float64, scale Scale) (Result, error) {
	if maxPoints <= 0 {
		return Result{}, fmt.Errorf("%w: max points = %v, want > 0", ErrInvalidRubric, maxPoints)
	}

	raw := Round2(Clamp(points, 0, maxPoints))

	result := project(raw/maxPoints, scale)
	result.Raw = raw
	return result, nil
}
