// ABOUTME: Deterministic rule-based classification backend
// ABOUTME: Serves offline use and tests; no model or network involved
package classify

import (
	"context"
	"strings"
)

// ruleTable maps each vocabulary label to trigger words. A token matches a
// trigger by equality, or by prefix for triggers of four or more runes so
// inflected forms ("cooking", "boiled") still hit.
var ruleTable = map[string][]string{
	"weather":       {"weather", "rain", "sunny", "forecast", "temperature", "snow", "cloud", "storm", "cold", "hot"},
	"cooking":       {"cook", "recipe", "bake", "pasta", "dinner", "ingredient", "oven", "boil", "meal", "kitchen"},
	"travel":        {"travel", "trip", "flight", "hotel", "vacation", "visit", "airport", "passport", "tour"},
	"technology":    {"computer", "software", "code", "phone", "internet", "app", "program", "laptop", "website"},
	"sports":        {"game", "team", "score", "match", "play", "football", "basketball", "tennis", "workout"},
	"health":        {"doctor", "exercise", "sleep", "diet", "pain", "medicine", "symptom", "appointment"},
	"finance":       {"money", "budget", "invest", "bank", "tax", "saving", "salary", "expense", "stock"},
	"entertainment": {"movie", "music", "show", "book", "song", "watch", "concert", "series", "album"},
	"work":          {"work", "meeting", "job", "project", "deadline", "boss", "resume", "interview", "colleague"},
}

// RuleBackend classifies by counting trigger-word hits per label.
// Confidence grows with hit count: one hit scores exactly the default
// threshold, more hits score higher.
type RuleBackend struct{}

// NewRuleBackend creates the rule-based backend
func NewRuleBackend() *RuleBackend {
	return &RuleBackend{}
}

// Classify implements Backend
func (b *RuleBackend) Classify(ctx context.Context, text string, labels []string) (string, float64, error) {
	tokens := tokenize(text)

	bestLabel := GeneralLabel
	bestHits := 0
	for _, label := range labels {
		triggers, ok := ruleTable[label]
		if !ok {
			continue
		}
		hits := 0
		for _, token := range tokens {
			for _, trigger := range triggers {
				if token == trigger || (len(trigger) >= 4 && strings.HasPrefix(token, trigger)) {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			bestHits = hits
			bestLabel = label
		}
	}

	if bestHits == 0 {
		return GeneralLabel, 0, nil
	}
	// 1 hit -> 0.5, 2 -> 0.67, 3 -> 0.75, approaching 1
	confidence := float64(bestHits) / (float64(bestHits) + 1)
	return bestLabel, confidence, nil
}
