package habit

import (
	"fmt"
	"math"
)

// decayCalibration controls the decay rate of habit strength. Tuned so a
// daily habit loses roughly 5% of its score per missed day.
const decayCalibration = 13.0

// Score computes one step of the habit strength recurrence:
//
//	multiplier = 0.5 ^ (sqrt(frequency) / 13.0)
//	newScore   = previousScore*multiplier + checkmark*(1 - multiplier)
//
// frequency is the decimal completion rate (1.0 daily, ~0.143 weekly).
// Higher-frequency habits climb and decay faster; sparser cadences preserve
// momentum across the naturally longer gaps between completions. The result
// stays in [0, 1] by construction and approaches 1.0 asymptotically.
//
// This is a first-order IIR filter: no memory beyond the previous score.
func Score(frequency, previousScore float64, completed bool) (float64, error) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return 0, fmt.Errorf("%w: decimal frequency %v must be a positive finite number", ErrInvalidFrequency, frequency)
	}
	if math.IsNaN(previousScore) || math.IsInf(previousScore, 0) {
		return 0, fmt.Errorf("invalid previous score %v: must be finite", previousScore)
	}

	previousScore = math.Max(0, math.Min(1, previousScore))

	multiplier := math.Pow(0.5, math.Sqrt(frequency)/decayCalibration)

	score := previousScore * multiplier
	if completed {
		score += 1.0 * (1 - multiplier)
	}

	return score, nil
}
