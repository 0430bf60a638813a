package habit

import (
	"errors"
	"fmt"
	"math"

	"github.com/goalconnect/backend/internal/contracts"
)

// ErrInvalidFrequency is returned when a frequency fails validation.
var ErrInvalidFrequency = errors.New("invalid frequency")

// maxFrequencyDays caps both numerator and denominator at one year.
const maxFrequencyDays = 365

// Frequency expresses a habit's required cadence as "numerator completions
// per denominator days". Daily is 1/1, weekly 1/7, three times a week 3/7.
// Construct through ParseFrequency so invalid cadences are unrepresentable.
type Frequency struct {
	Numerator   int
	Denominator int
	Kind        contracts.FrequencyKind
}

// Preset frequencies for the two common cadences.
var (
	Daily  = Frequency{Numerator: 1, Denominator: 1, Kind: contracts.FrequencyDaily}
	Weekly = Frequency{Numerator: 1, Denominator: 7, Kind: contracts.FrequencyWeekly}
)

// IsValid reports whether the frequency satisfies the domain rules:
// positive integers, numerator <= denominator (no habit requires more than
// one completion per day), both at most 365.
func (f Frequency) IsValid() bool {
	if f.Numerator <= 0 || f.Denominator <= 0 {
		return false
	}
	if f.Numerator > f.Denominator {
		return false
	}
	if f.Numerator > maxFrequencyDays || f.Denominator > maxFrequencyDays {
		return false
	}
	return true
}

// Decimal returns the required completion rate per day, in (0, 1] for any
// valid frequency.
func (f Frequency) Decimal() float64 {
	return float64(f.Numerator) / float64(f.Denominator)
}

// RequiredCompletions returns how many completions the cadence demands
// within the given number of days. Always rounds up: a partial period still
// requires the full count (8 days at 1/7 requires 2, not 1).
func (f Frequency) RequiredCompletions(days int) int {
	return int(math.Ceil(float64(days*f.Numerator) / float64(f.Denominator)))
}

// ParseFrequency builds a validated Frequency from the persisted kind and
// optional custom values. Custom requires both numerator and denominator.
func ParseFrequency(kind contracts.FrequencyKind, numerator, denominator *int) (Frequency, error) {
	var freq Frequency

	switch kind {
	case contracts.FrequencyDaily:
		freq = Daily
	case contracts.FrequencyWeekly:
		freq = Weekly
	case contracts.FrequencyCustom:
		if numerator == nil || denominator == nil {
			return Frequency{}, fmt.Errorf("%w: custom frequency requires both numerator and denominator", ErrInvalidFrequency)
		}
		freq = Frequency{Numerator: *numerator, Denominator: *denominator, Kind: contracts.FrequencyCustom}
	default:
		return Frequency{}, fmt.Errorf("%w: unknown frequency kind %q", ErrInvalidFrequency, kind)
	}

	if !freq.IsValid() {
		return Frequency{}, fmt.Errorf("%w: numerator=%d, denominator=%d (must be positive integers with numerator <= denominator <= %d)",
			ErrInvalidFrequency, freq.Numerator, freq.Denominator, maxFrequencyDays)
	}

	return freq, nil
}
