package insights

import (
	"sort"
	"strings"
	"unicode"

	"github.com/bbalet/stopwords"
	"github.com/jdkato/prose/v2"
)

type keywordCount struct {
	Word  string
	Count int
}

// countKeywords tokenizes the corpus, drops stopwords, punctuation and short
// tokens, and returns per-word frequencies.
func countKeywords(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, text := range texts {
		cleaned := stopwords.CleanString(strings.ToLower(text), "en", false)
		for _, word := range strings.Fields(cleaned) {
			word = trimNonLetters(word)
			if !eligibleKeyword(word) {
				continue
			}
			counts[word]++
		}
	}
	return counts
}

// countNounKeywords POS-tags the corpus and keeps noun-like tokens (NN*)
// only. Used for improvement areas, where actionable themes are wanted.
func countNounKeywords(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, text := range texts {
		doc, err := prose.NewDocument(text, prose.WithExtraction(false))
		if err != nil {
			continue
		}
		for _, tok := range doc.Tokens() {
			if !strings.HasPrefix(tok.Tag, "NN") {
				continue
			}
			word := strings.ToLower(tok.Text)
			if !eligibleKeyword(word) {
				continue
			}
			if stopwords.CleanString(word, "en", false) == "" {
				continue
			}
			counts[word]++
		}
	}
	return counts
}

// topKeywords orders by descending frequency with a lexicographic tie-break
// and truncates to k.
func topKeywords(counts map[string]int, k int) []string {
	ranked := make([]keywordCount, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, keywordCount{Word: word, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Word < ranked[j].Word
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}

	words := make([]string, len(ranked))
	for i, kc := range ranked {
		words[i] = kc.Word
	}
	return words
}

func trimNonLetters(word string) string {
	return strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func eligibleKeyword(word string) bool {
	if len(word) <= 2 {
		return false
	}
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
