// ABOUTME: Topic classification adapter over a swappable zero-shot backend
// ABOUTME: Degrades to the catch-all label instead of erroring; callers never block on it
package classify

import (
	"context"
)

// Vocabulary is the fixed, closed set of topic labels. GeneralLabel is the
// catch-all and always present.
var Vocabulary = []string{
	"weather",
	"cooking",
	"travel",
	"technology",
	"sports",
	"health",
	"finance",
	"entertainment",
	"work",
	GeneralLabel,
}

// GeneralLabel is the catch-all topic for uncertain or unclassifiable text
const GeneralLabel = "general"

// DefaultThreshold is the confidence below which a result is uncertain
const DefaultThreshold = 0.5

// Result is a classification outcome. Uncertain means the caller should
// not assert a topic change on this result.
type Result struct {
	Label      string
	Confidence float64
	Uncertain  bool
}

// Backend scores text against candidate labels. Implementations may call
// out to a model; errors are handled by the adapter, not the caller.
type Backend interface {
	Classify(ctx context.Context, text string, labels []string) (label string, score float64, err error)
}

// Adapter wraps a Backend with the vocabulary, the uncertainty threshold,
// and graceful degradation
type Adapter struct {
	backend   Backend
	threshold float64
}

// NewAdapter creates an adapter around the given backend. A threshold of 0
// selects DefaultThreshold. A nil backend is allowed and always degrades.
func NewAdapter(backend Backend, threshold float64) *Adapter {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Adapter{backend: backend, threshold: threshold}
}

// Threshold returns the uncertainty threshold in effect
func (a *Adapter) Threshold() float64 {
	return a.threshold
}

// Classify scores text against the vocabulary. It never returns an error:
// a missing or failing backend yields the catch-all label with confidence 0,
// and an out-of-vocabulary label from the backend is demoted to the
// catch-all as well.
func (a *Adapter) Classify(ctx context.Context, text string) Result {
	if a.backend == nil {
		return Result{Label: GeneralLabel, Confidence: 0, Uncertain: true}
	}

	label, score, err := a.backend.Classify(ctx, text, Vocabulary)
	if err != nil {
		return Result{Label: GeneralLabel, Confidence: 0, Uncertain: true}
	}
	if !inVocabulary(label) {
		label = GeneralLabel
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return Result{
		Label:      label,
		Confidence: score,
		Uncertain:  score < a.threshold,
	}
}

func inVocabulary(label string) bool {
	for _, l := range Vocabulary {
		if l == label {
			return true
		}
	}
	return false
}
