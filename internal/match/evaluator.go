package match

import (
	"math"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

// DefaultThreshold is the distance below which two descriptors are the same person.
const DefaultThreshold = 0.6

// Verdict is the evaluator's decision for one comparison
type Verdict struct {
	Outcome    domain.Outcome `json:"outcome"`
	Match      bool           `json:"match"`
	Confidence float64        `json:"confidence"`
	Distance   float64        `json:"distance"`
	Threshold  float64        `json:"threshold"`
}

// IsIndeterminate reports whether no match/no-match decision could be made
func (v Verdict) IsIndeterminate() bool {
	return v.Outcome == domain.OutcomeIndeterminate
}

// Evaluator turns a descriptor distance into a verdict. It holds no state
// beyond its threshold and is safe for concurrent use.
type Evaluator struct {
	threshold float64
}

// NewEvaluator creates an evaluator. A non-positive threshold falls back to DefaultThreshold.
func NewEvaluator(threshold float64) *Evaluator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Evaluator{threshold: threshold}
}

func (e *Evaluator) Threshold() float64 {
	return e.threshold
}

// Evaluate decides match = distance < threshold with
// confidence = max(0, 1-distance)*100 rounded to two decimals.
// A negative, NaN or infinite distance yields an indeterminate verdict.
func (e *Evaluator) Evaluate(distance float64) Verdict {
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance < 0 {
		return Indeterminate(e.threshold)
	}

	matched := distance < e.threshold
	outcome := domain.OutcomeNoMatch
	if matched {
		outcome = domain.OutcomeMatch
	}

	return Verdict{
		Outcome:    outcome,
		Match:      matched,
		Confidence: Confidence(distance),
		Distance:   distance,
		Threshold:  e.threshold,
	}
}

// Indeterminate builds the verdict used when extraction or comparison failed
func Indeterminate(threshold float64) Verdict {
	return Verdict{
		Outcome:   domain.OutcomeIndeterminate,
		Threshold: threshold,
	}
}

// Confidence maps a distance to a percentage in [0, 100], rounded to 2 decimals
func Confidence(distance float64) float64 {
	c := math.Max(0, 1-distance) * 100
	if c > 100 {
		c = 100
	}
	return math.Round(c*100) / 100
}
