// ABOUTME: Lightweight keyword extraction for topic tracking
// ABOUTME: Frequency-ranked tokens with stop words removed, bounded count
package classify

import (
	"sort"
	"strings"
	"unicode"
)

// MaxKeywords bounds the extractor's output
const MaxKeywords = 8

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "this": true, "that": true, "with": true,
	"they": true, "them": true, "then": true, "than": true, "what": true,
	"when": true, "where": true, "which": true, "will": true, "would": true,
	"could": true, "should": true, "about": true, "there": true, "their": true,
	"your": true, "from": true, "just": true, "like": true, "some": true,
	"been": true, "were": true, "into": true, "over": true, "also": true,
	"how": true, "why": true, "who": true, "does": true, "did": true,
	"please": true, "really": true, "very": true, "much": true, "more": true,
	"any": true, "get": true, "got": true, "want": true, "need": true,
	"tell": true, "know": true, "think": true, "going": true, "its": true,
	"it's": true, "i'm": true, "don't": true, "can't": true, "let's": true,
	"hey": true, "hello": true, "thanks": true, "thank": true, "okay": true,
}

// ExtractKeywords returns up to MaxKeywords frequency-ranked content words
// from the text. Ties keep first-appearance order so the result is
// deterministic for identical input.
func ExtractKeywords(text string) []string {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	position := 0

	for _, token := range tokenize(text) {
		if len(token) < 3 || stopWords[token] {
			continue
		}
		if _, seen := counts[token]; !seen {
			firstSeen[token] = position
			position++
		}
		counts[token]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(a, b int) bool {
		if counts[words[a]] != counts[words[b]] {
			return counts[words[a]] > counts[words[b]]
		}
		return firstSeen[words[a]] < firstSeen[words[b]]
	})

	if len(words) > MaxKeywords {
		words = words[:MaxKeywords]
	}
	return words
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
