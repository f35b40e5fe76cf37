package source

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s]+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "but": {},
	"to": {}, "of": {}, "in": {}, "on": {}, "for": {}, "with": {},
	"at": {}, "by": {}, "from": {}, "as": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "it": {}, "its": {},
	"this": {}, "that": {}, "has": {}, "have": {}, "had": {}, "will": {},
	"not": {}, "his": {}, "her": {}, "their": {}, "after": {}, "over": {},
}

// extractKeywords returns up to limit of the most frequent words in text
// that are not stop-words and are at least minLen runes long. Ties sort
// alphabetically so the result is deterministic.
func extractKeywords(text string, limit, minLen int) []string {
	clean := strings.ToLower(html.UnescapeString(text))
	clean = urlPattern.ReplaceAllString(clean, " ")
	clean = punctuation.ReplaceAllString(clean, " ")

	freq := make(map[string]int)
	for _, token := range strings.Fields(clean) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if len([]rune(token)) < minLen {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		freq[token]++
	}
	if len(freq) == 0 {
		return nil
	}

	words := make([]string, 0, len(freq))
	for word := range freq {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] == freq[words[j]] {
			return words[i] < words[j]
		}
		return freq[words[i]] > freq[words[j]]
	})

	if limit > 0 && limit < len(words) {
		words = words[:limit]
	}
	return words
}
