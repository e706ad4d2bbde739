package suspicion

import (
	"time"

	"github.com/saturnino-fabrica-de-software/campusguard/internal/domain"
)

const (
	// DefaultWindow is the trailing interval over which failures are counted
	DefaultWindow = 10 * time.Minute
	// DefaultThreshold is the number of failures inside the window that is suspicious
	DefaultThreshold = 3
)

// Result is the classification of one identity's recent behavior
type Result struct {
	IsSuspicious  bool                  `json:"is_suspicious"`
	AttemptCount  int                   `json:"attempt_count"`
	WindowMinutes int                   `json:"window_minutes"`
	LastAttempt   *domain.AttemptRecord `json:"last_attempt,omitempty"`
}

// Analyzer classifies attempt histories. It never writes and keeps no state
// between calls, so the window slides with every evaluation.
type Analyzer struct {
	window    time.Duration
	threshold int
}

// NewAnalyzer creates an analyzer. Non-positive values fall back to the defaults.
func NewAnalyzer(window time.Duration, threshold int) *Analyzer {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Analyzer{window: window, threshold: threshold}
}

func (a *Analyzer) Window() time.Duration {
	return a.window
}

func (a *Analyzer) Threshold() int {
	return a.threshold
}

// Analyze counts no-match records with now - timestamp < window.
// Records in the future relative to now are counted as inside the window.
func (a *Analyzer) Analyze(history []domain.AttemptRecord, now time.Time) Result {
	result := Result{
		WindowMinutes: int(a.window / time.Minute),
	}

	for i := range history {
		rec := history[i]
		if rec.Outcome != domain.OutcomeNoMatch {
			continue
		}
		if now.Sub(rec.Timestamp) >= a.window {
			continue
		}
		result.AttemptCount++
		if result.LastAttempt == nil || rec.Timestamp.After(result.LastAttempt.Timestamp) {
			result.LastAttempt = &history[i]
		}
	}

	result.IsSuspicious = result.AttemptCount >= a.threshold
	return result
}
