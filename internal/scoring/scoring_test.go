package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestEnemRawScoreIsSumOfCompetencies(t *testing.T) {
	result, err := Enem(EnemRubric{C1: 120, C2: 160, C3: 80, C4: 200, C5: 40}, Scale{Weight: 10})
	require.NoError(t, err)
	require.Equal(t, 600.0, result.Raw)
	require.Equal(t, 6.0, result.Scaled)
	require.Nil(t, result.Bimestral)
}

func TestEnemPerfectScoreReachesWeight(t *testing.T) {
	result, err := Enem(EnemRubric{C1: 200, C2: 200, C3: 200, C4: 200, C5: 200}, Scale{Weight: 3})
	require.NoError(t, err)
	require.Equal(t, 1000.0, result.Raw)
	require.Equal(t, 3.0, result.Scaled)
}

func TestEnemScaledNeverExceedsWeight(t *testing.T) {
	for _, c := range []int{0, 40, 80, 120, 160, 200} {
		result, err := Enem(EnemRubric{C1: c, C2: c, C3: c, C4: c, C5: c}, Scale{Weight: 2.5})
		require.NoError(t, err)
		require.LessOrEqual(t, result.Scaled, 2.5)
		if result.Raw < 1000 {
			require.Less(t, result.Scaled, 2.5)
		}
	}
}

func TestEnemRejectsOffGridCompetency(t *testing.T) {
	_, err := Enem(EnemRubric{C1: 100, C2: 40, C3: 40, C4: 40, C5: 40}, Scale{Weight: 10})
	require.ErrorIs(t, err, ErrInvalidRubric)

	_, err = Enem(EnemRubric{C1: 200, C2: 200, C3: 200, C4: 200, C5: 201}, Scale{Weight: 10})
	require.ErrorIs(t, err, ErrInvalidRubric)
}

func TestEnemBimestralProjection(t *testing.T) {
	result, err := Enem(EnemRubric{C1: 160, C2: 160, C3: 160, C4: 160, C5: 160}, Scale{Weight: 10, MaxPoints: floatPtr(2)})
	require.NoError(t, err)
	require.Equal(t, 800.0, result.Raw)
	require.Equal(t, 8.0, result.Scaled)
	require.NotNil(t, result.Bimestral)
	require.Equal(t, 1.6, *result.Bimestral)
}

func TestPasFormulaReferenceCase(t *testing.T) {
	// NC=8, NE=2, NL=20 => 8 - 4/20 = 7.80
	result, err := Pas(PasRubric{NC: 8, NL: 20}, 2, Scale{Weight: 10})
	require.NoError(t, err)
	require.Equal(t, 7.8, result.Raw)
	require.Equal(t, 7.8, result.Scaled)
}

func TestPasClampsAtZero(t *testing.T) {
	result, err := Pas(PasRubric{NC: 1, NL: 1}, 30, Scale{Weight: 10})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Raw)
	require.Equal(t, 0.0, result.Scaled)
}

func TestPasValidation(t *testing.T) {
	_, err := Pas(PasRubric{NC: 11, NL: 10}, 0, Scale{Weight: 10})
	require.ErrorIs(t, err, ErrInvalidRubric)

	_, err = Pas(PasRubric{NC: 5, NL: 0}, 0, Scale{Weight: 10})
	require.ErrorIs(t, err, ErrInvalidRubric)
}

func TestPasBimestralProjectionNormalizedByTen(t *testing.T) {
	result, err := Pas(PasRubric{NC: 10, NL: 15}, 0, Scale{Weight: 4, MaxPoints: floatPtr(2)})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Raw)
	require.Equal(t, 4.0, result.Scaled)
	require.NotNil(t, result.Bimestral)
	require.Equal(t, 2.0, *result.Bimestral)
}

func TestSheetHitCounting(t *testing.T) {
	rubric := SheetRubric{
		Expected: map[int]int{0: 0, 1: 2, 2: 4, 3: 1},
		Detected: map[int]int{0: 0, 1: 3, 2: 4},
	}
	require.Equal(t, 2, rubric.Hits())

	result, err := Sheet(rubric, 10, Scale{Weight: 10})
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Raw)
	require.Equal(t, 5.0, result.Scaled)
}

func TestSheetScoreClampsIntoScale(t *testing.T) {
	result, err := SheetScore(12.5, 10, Scale{Weight: 2})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Raw)
	require.Equal(t, 2.0, result.Scaled)
}

func TestSheetRejectsEmptyKey(t *testing.T) {
	_, err := Sheet(SheetRubric{}, 10, Scale{Weight: 10})
	require.ErrorIs(t, err, ErrInvalidRubric)
}

func TestAnnulZeroesEverything(t *testing.T) {
	result := Annul(Scale{Weight: 10, MaxPoints: floatPtr(3)})
	require.Equal(t, 0.0, result.Raw)
	require.Equal(t, 0.0, result.Scaled)
	require.NotNil(t, result.Bimestral)
	require.Equal(t, 0.0, *result.Bimestral)

	bare := Annul(Scale{Weight: 10})
	require.Nil(t, bare.Bimestral)
}

func TestRoundingIsHalfUp(t *testing.T) {
	require.Equal(t, 0.13, Round2(0.125))
	require.Equal(t, 0.1, Round1(0.05))
	require.Equal(t, 2.5, Round1(2.45))
}

func TestRoundHappensBeforeScaledClamp(t *testing.T) {
	// raw 999 with weight 10: 9.99 rounds to 10.0 and is then capped at the
	// weight, so the cap must run after rounding to hold scaled <= weight.
	result, err := SheetScore(9.99, 10, Scale{Weight: 10})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Scaled)
}
