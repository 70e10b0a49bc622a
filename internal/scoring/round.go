package scoring

import "math"

// Round1 rounds to one decimal place using half-up rounding.
func Round1(value float64) float64 {
	return math.Round(value*10) / 10
}

// Round2 rounds to two decimal places using half-up rounding.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Clamp bounds value into [min, max].
func Clamp(value, min, max float64) float64 {
	return math.Min(math.Max(value, min), max)
}
