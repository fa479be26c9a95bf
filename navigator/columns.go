package navigator

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// ColumnCandidates defines possible header names for auto-detecting dataset columns.
type ColumnCandidates struct {
	Symptoms []string `yaml:"symptoms"`
	Disease  []string `yaml:"disease"`
	Medicine []string `yaml:"medicine"`
}

var (
	columnCandidatesMu  sync.RWMutex
	activeColumnOptions = defaultColumnCandidates()
)

func defaultColumnCandidates() ColumnCandidates {
	return ColumnCandidates{
		Symptoms: []string{"Symptoms", "Symptom", "Signs"},
		Disease:  []string{"Disease", "Diagnosis", "Condition", "Illness"},
		Medicine: []string{"Medicine", "Medication", "Drug", "Treatment"},
	}
}

// DefaultColumnCandidates returns the built-in column detection candidates.
func DefaultColumnCandidates() ColumnCandidates {
	return defaultColumnCandidates().clone()
}

// SetColumnCandidates updates the column detection candidates used during auto-detection.
// Fields left nil fall back to the built-in defaults.
func SetColumnCandidates(candidates ColumnCandidates) {
	columnCandidatesMu.Lock()
	defer columnCandidatesMu.Unlock()
	activeColumnOptions = candidates.withDefaults()
}

func getColumnCandidates() ColumnCandidates {
	columnCandidatesMu.RLock()
	defer columnCandidatesMu.RUnlock()
	return activeColumnOptions.clone()
}

func (c ColumnCandidates) withDefaults() ColumnCandidates {
	defaults := defaultColumnCandidates()
	return ColumnCandidates{
		Symptoms: pickStrings(c.Symptoms, defaults.Symptoms),
		Disease:  pickStrings(c.Disease, defaults.Disease),
		Medicine: pickStrings(c.Medicine, defaults.Medicine),
	}
}

func (c ColumnCandidates) clone() ColumnCandidates {
	return ColumnCandidates{
		Symptoms: cloneStrings(c.Symptoms),
		Disease:  cloneStrings(c.Disease),
		Medicine: cloneStrings(c.Medicine),
	}
}

func pickStrings(custom, fallback []string) []string {
	if custom == nil {
		return cloneStrings(fallback)
	}
	return cloneStrings(custom)
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// resolveColumn picks the column index for one field. An explicit name or
// 1-based "#n" index wins over the candidate list.
func resolveColumn(header []string, explicit string, candidates []string, field string) (int, error) {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return matchExplicitColumn(header, trimmed)
	}
	if idx := findColumn(header, candidates); idx >= 0 {
		return idx, nil
	}
	return -1, fmt.Errorf("%s column not found (looked for %s)", field, strings.Join(candidates, ", "))
}

func findColumn(header []string, candidates []string) int {
	for _, cand := range candidates {
		for i, col := range header {
			if strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

func matchExplicitColumn(header []string, explicit string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(col, explicit) {
			return i, nil
		}
	}
	if strings.HasPrefix(explicit, "#") {
		idx, err := parseColumnIndex(explicit)
		if err != nil {
			return -1, err
		}
		if idx >= len(header) {
			return -1, fmt.Errorf("column index %s is out of range", explicit)
		}
		return idx, nil
	}
	return -1, fmt.Errorf("column %q not found", explicit)
}

func parseColumnIndex(token string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(token, "#"))
	if trimmed == "" {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	idx, err := strconv.Atoi(trimmed)
	if err != nil {
		return -1, fmt.Errorf("invalid column index %q", token)
	}
	if idx <= 0 {
		return -1, fmt.Errorf("column indices are 1-based: %q", token)
	}
	return idx - 1, nil
}
