package ui

import (
	"strings"
	"unicode"
)

// WordCache maintains unique words in recency order for tab completion.
// Words are extracted from server output and stored with most recent last.
type WordCache struct {
	words    []string       // oldest first, newest last
	index    map[string]int // word -> position for O(1) lookup
	capacity int
}

// NewWordCache creates a word cache with the given capacity.
func NewWordCache(capacity int) *WordCache {
	return &WordCache{
		words:    make([]string, 0, capacity),
		index:    make(map[string]int),
		capacity: capacity,
	}
}

// AddLine extracts words from the clean text of a server line.
func (wc *WordCache) AddLine(clean string) {
	tokens := strings.FieldsFunc(clean, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, token := range tokens {
		// Skip short words (noise like "a", "to", "is")
		if len(token) < 3 {
			continue
		}
		wc.addWord(token)
	}
}

// AddInput adds words from user input, preserving punctuation so
// aliases like "k!" complete too.
func (wc *WordCache) AddInput(input string) {
	for _, token := range strings.Fields(input) {
		if len(token) < 2 {
			continue
		}
		wc.addWord(token)
	}
}

// addWord adds a single word, moving it to the end if it exists.
// Words are stored lowercase for consistent matching.
func (wc *WordCache) addWord(word string) {
	word = strings.ToLower(word)
	if pos, exists := wc.index[word]; exists {
		wc.words = append(wc.words[:pos], wc.words[pos+1:]...)
		for i := pos; i < len(wc.words); i++ {
			wc.index[wc.words[i]] = i
		}
	}

	wc.words = append(wc.words, word)
	wc.index[word] = len(wc.words) - 1

	if len(wc.words) > wc.capacity {
		oldest := wc.words[0]
		delete(wc.index, oldest)
		wc.words = wc.words[1:]
		for i, w := range wc.words {
			wc.index[w] = i
		}
	}
}

// FindMatches returns words matching the prefix, newest first.
func (wc *WordCache) FindMatches(prefix string) []string {
	if prefix == "" {
		return nil
	}

	prefixLower := strings.ToLower(prefix)
	var matches []string
	for i := len(wc.words) - 1; i >= 0; i-- {
		if strings.HasPrefix(wc.words[i], prefixLower) {
			matches = append(matches, wc.words[i])
		}
	}
	return matches
}
