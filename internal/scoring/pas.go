package scoring

import "fmt"

// PasRubric holds the caller-supplied inputs of a PAS-style correction.
// NE (error count) is deliberately absent: it is derived from the live set of
// annotations carrying the designated error tag, never taken from the caller.
type PasRubric struct {
	NC float64 `json:"nc"`
	NL int     `json:"nl"`
}

// Validate checks NC and NL against their allowed domains. NL is a divisor,
// so it must be at least 1.
func (r PasRubric) Validate() error {
	if r.NC < 0 || r.NC > 10 {
		return fmt.Errorf("%w: NC = %v, want 0-10", ErrInvalidRubric, r.NC)
	}
	if r.NL < 1 {
		return fmt.Errorf("%w: NL = %d, want >= 1", ErrInvalidRubric, r.NL)
	}
	return nil
}

// Pas computes the deduction-based score: NC minus a per-line error penalty,
// clamped to [0,10]. errorCount is the number of error-tagged annotations on
// the submission at scoring time.
func Pas(rubric PasRubric, errorCount int, scale Scale) (Result, error) {
	if err := rubric.Validate(); err != nil {
		return Result{}, err
	}

	lines := rubric.NL
	if lines < 1 {
		lines = 1
	}

	raw := Round2(Clamp(rubric.NC-(2*float64(errorCount))/float64(lines), 0, 10))

	result := project(raw/10, scale)
	result.Raw = raw
	return result, nil
}
