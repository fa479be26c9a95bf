package navigator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	sourceKeyword   = "keyword"
	sourceEmbedding = "embedding"

	defaultSuggestK = 5
	keywordMinScore = 0.5
)

// Suggester maps a free text description to checklist symptoms.
type Suggester interface {
	Suggest(ctx context.Context, text string, k int) ([]SymptomMatch, error)
}

type keywordSuggester struct {
	symptoms []string
	words    [][]string
}

// newKeywordSuggester matches the words of every symptom against the text.
// Underscores and hyphens in symptom names count as spaces.
func newKeywordSuggester(symptoms []string) *keywordSuggester {
	s := &keywordSuggester{symptoms: cloneStrings(symptoms), words: make([][]string, len(symptoms))}
	for i, sym := range symptoms {
		s.words[i] = strings.Fields(keywordText(sym))
	}
	return s
}

func keywordText(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.ToLower(NormalizeText(s))
}

func (s *keywordSuggester) Suggest(ctx context.Context, text string, k int) ([]SymptomMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text = keywordText(text)
	if text == "" {
		return nil, nil
	}
	matches := make([]SymptomMatch, 0)
	for i, words := range s.words {
		if len(words) == 0 {
			continue
		}
		hits := 0
		for _, w := range words {
			if containsAsWord(text, w) {
				hits++
			}
		}
		score := float32(hits) / float32(len(words))
		if score < keywordMinScore {
			continue
		}
		matches = append(matches, SymptomMatch{Symptom: s.symptoms[i], Score: score, Source: sourceKeyword})
	}
	return topMatches(matches, k), nil
}

type embeddingSuggester struct {
	embedder Embedder
	index    *InMemoryIndex
	minScore float32
}

// newEmbeddingSuggester embeds every symptom once and indexes the vectors.
func newEmbeddingSuggester(ctx context.Context, embedder Embedder, symptoms []string, minScore float32) (*embeddingSuggester, error) {
	texts := make([]string, len(symptoms))
	for i, sym := range symptoms {
		texts[i] = keywordText(sym)
	}
	vecs, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed symptoms: %w", err)
	}
	items := make([]VectorItem, len(symptoms))
	for i, sym := range symptoms {
		items[i] = VectorItem{Label: sym, Vector: vecs[i]}
	}
	idx := NewInMemoryIndex()
	idx.Replace(items)
	return &embeddingSuggester{embedder: embedder, index: idx, minScore: minScore}, nil
}

func (s *embeddingSuggester) Suggest(ctx context.Context, text string, k int) ([]SymptomMatch, error) {
	text = NormalizeText(text)
	if text == "" {
		return nil, nil
	}
	if k <= 0 {
		k = defaultSuggestK
	}
	vec, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	hits := s.index.Search(vec, k)
	out := make([]SymptomMatch, 0, len(hits))
	for _, h := range hits {
		if h.Score < s.minScore {
			continue
		}
		out = append(out, SymptomMatch{Symptom: h.Label, Score: h.Score, Source: sourceEmbedding})
	}
	return out, nil
}

// combinedSuggester merges keyword matches with embedding matches, keeping
// the higher score per symptom.
type combinedSuggester struct {
	parts []Suggester
}

func (c combinedSuggester) Suggest(ctx context.Context, text string, k int) ([]SymptomMatch, error) {
	best := make(map[string]SymptomMatch)
	for _, p := range c.parts {
		matches, err := p.Suggest(ctx, text, k)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if prev, ok := best[m.Symptom]; ok && prev.Score >= m.Score {
				continue
			}
			best[m.Symptom] = m
		}
	}
	out := make([]SymptomMatch, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	return topMatches(out, k), nil
}

func topMatches(matches []SymptomMatch, k int) []SymptomMatch {
	if k <= 0 {
		k = defaultSuggestK
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].Symptom < matches[j].Symptom
		}
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func containsAsWord(text, word string) bool {
	if word == "" {
		return false
	}
	start := 0
	for start < len(text) {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		var before rune
		if idx > 0 {
			before, _ = utf8.DecodeLastRuneInString(text[:idx])
		}
		var after rune
		if end := idx + len(word); end < len(text) {
			after, _ = utf8.DecodeRuneInString(text[end:])
		}
		if !isAlphaNumRune(before) && !isAlphaNumRune(after) {
			return true
		}
		start = idx + len(word)
	}
	return false
}

func isAlphaNumRune(r rune) bool {
	if r == 0 || r == utf8.RuneError {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
