package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns fixed vectors per text and a zero vector otherwise.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
	closed  bool
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, errors.New("embed failed")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.EmbedText(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEmbedder) ModelID() string { return "fake" }

func TestKeywordSuggester(t *testing.T) {
	s := newKeywordSuggester([]string{"runny_nose", "fever", "sensitivity to light", "skin-rash"})

	got, err := s.Suggest(context.Background(), "I have a Runny nose and a fever, maybe a rash", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "fever", got[0].Symptom)
	assert.Equal(t, "runny_nose", got[1].Symptom)
	assert.Equal(t, float32(1), got[1].Score)
	assert.Equal(t, "skin-rash", got[2].Symptom)
	assert.Equal(t, float32(0.5), got[2].Score)
	assert.Equal(t, sourceKeyword, got[0].Source)
}

func TestKeywordSuggesterWordBoundaries(t *testing.T) {
	s := newKeywordSuggester([]string{"fever", "cough"})

	got, err := s.Suggest(context.Background(), "feverish and coughing", 5)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Suggest(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeywordSuggesterLimit(t *testing.T) {
	s := newKeywordSuggester([]string{"a", "b", "c"})
	got, err := s.Suggest(context.Background(), "a b c", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Symptom)
}

func TestKeywordSuggesterHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newKeywordSuggester([]string{"fever"}).Suggest(ctx, "fever", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbeddingSuggester(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"fever":            {1, 0},
		"cough":            {0, 1},
		"high temperature": {0.9, 0.1},
	}}
	s, err := newEmbeddingSuggester(context.Background(), emb, []string{"fever", "cough"}, 0.35)
	require.NoError(t, err)

	got, err := s.Suggest(context.Background(), "high   temperature", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "fever", got[0].Symptom)
	assert.Equal(t, sourceEmbedding, got[0].Source)
	assert.Greater(t, got[0].Score, float32(0.9))
}

func TestEmbeddingSuggesterErrors(t *testing.T) {
	_, err := newEmbeddingSuggester(context.Background(), &fakeEmbedder{fail: true}, []string{"fever"}, 0.35)
	assert.Error(t, err)
}

func TestCombinedSuggesterKeepsBestScore(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"fever":            {1, 0},
		"cough":            {0, 1},
		"fever and chills": {0.6, 0.8},
	}}
	es, err := newEmbeddingSuggester(context.Background(), emb, []string{"fever", "cough"}, 0.35)
	require.NoError(t, err)
	c := combinedSuggester{parts: []Suggester{newKeywordSuggester([]string{"fever", "cough"}), es}}

	got, err := c.Suggest(context.Background(), "fever and chills", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, SymptomMatch{Symptom: "fever", Score: 1, Source: sourceKeyword}, got[0])
	assert.Equal(t, "cough", got[1].Symptom)
	assert.Equal(t, sourceEmbedding, got[1].Source)
}

func TestContainsAsWord(t *testing.T) {
	assert.True(t, containsAsWord("sore throat", "throat"))
	assert.True(t, containsAsWord("throat", "throat"))
	assert.False(t, containsAsWord("throaty", "throat"))
	assert.True(t, containsAsWord("throaty throat", "throat"))
	assert.False(t, containsAsWord("anything", ""))
}
