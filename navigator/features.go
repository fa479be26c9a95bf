package navigator

import (
	"fmt"
	"strings"
)

// FeatureSpace maps symptom tokens to one-hot column indices.
type FeatureSpace struct {
	names  []string
	exact  map[string]int
	folded map[string]int
}

// NewFeatureSpace fixes the column order to the given symptom list.
func NewFeatureSpace(symptoms []string) *FeatureSpace {
	fs := &FeatureSpace{
		names:  cloneStrings(symptoms),
		exact:  make(map[string]int, len(symptoms)),
		folded: make(map[string]int, len(symptoms)),
	}
	for i, s := range fs.names {
		fs.exact[s] = i
		key := symptomKey(s)
		if _, ok := fs.folded[key]; !ok {
			fs.folded[key] = i
		}
	}
	return fs
}

// Names returns the symptom for every column.
func (fs *FeatureSpace) Names() []string {
	return cloneStrings(fs.names)
}

// Len returns the number of feature columns.
func (fs *FeatureSpace) Len() int {
	return len(fs.names)
}

// Index resolves a symptom to its column, trying an exact match before a
// case-insensitive one.
func (fs *FeatureSpace) Index(name string) (int, bool) {
	if idx, ok := fs.exact[name]; ok {
		return idx, true
	}
	if idx, ok := fs.exact[NormalizeText(name)]; ok {
		return idx, true
	}
	idx, ok := fs.folded[symptomKey(name)]
	return idx, ok
}

// Canonical returns the spelling used by the feature column for name.
func (fs *FeatureSpace) Canonical(name string) (string, bool) {
	idx, ok := fs.Index(name)
	if !ok {
		return "", false
	}
	return fs.names[idx], true
}

// Encode converts selected symptoms into a binary vector in column order.
func (fs *FeatureSpace) Encode(selected []string) ([]float64, error) {
	vec := make([]float64, len(fs.names))
	var unknown []string
	for _, s := range selected {
		idx, ok := fs.Index(s)
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		vec[idx] = 1
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymptom, strings.Join(unknown, ", "))
	}
	return vec, nil
}

// Matrix builds the training matrix for records. Tokens outside the feature
// space are ignored.
func (fs *FeatureSpace) Matrix(records []Record) [][]float64 {
	out := make([][]float64, len(records))
	for i, rec := range records {
		row := make([]float64, len(fs.names))
		for _, s := range rec.Symptoms {
			if idx, ok := fs.exact[s]; ok {
				row[idx] = 1
			}
		}
		out[i] = row
	}
	return out
}
