package navigator

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	h, err := OpenHistory(filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistoryStoreSaveAndRecent(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	first := Diagnosis{
		ID:            "a",
		Symptoms:      []string{"fever", "cough"},
		Disease:       "Flu",
		Medicine:      "Oseltamivir",
		MedicineFound: true,
		Confidence:    1,
		CreatedAt:     base,
	}
	second := Diagnosis{
		ID:         "b",
		Symptoms:   []string{"rash"},
		Disease:    "Measles",
		Medicine:   NoMedicationFound,
		Confidence: 0.5,
		CreatedAt:  base.Add(time.Minute),
	}
	require.NoError(t, h.Save(ctx, first))
	require.NoError(t, h.Save(ctx, second))

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := h.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
	assert.Equal(t, []string{"fever", "cough"}, all[1].Symptoms)
	assert.True(t, all[1].MedicineFound)
	assert.False(t, all[0].MedicineFound)
	assert.True(t, base.Equal(all[1].CreatedAt))
	assert.Equal(t, DefaultAdvice, all[1].Advice)

	latest, err := h.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "Measles", latest[0].Disease)
}

func TestHistoryStoreDuplicateID(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	d := Diagnosis{ID: "same", Symptoms: []string{"fever"}, Disease: "Flu", Medicine: "Rest", CreatedAt: time.Now()}
	require.NoError(t, h.Save(ctx, d))
	assert.Error(t, h.Save(ctx, d))
}

func TestHistoryStoreClear(t *testing.T) {
	ctx := context.Background()
	h := openTestHistory(t)
	require.NoError(t, h.Save(ctx, Diagnosis{ID: "x", Symptoms: []string{"fever"}, Disease: "Flu", Medicine: "Rest", CreatedAt: time.Now()}))
	require.NoError(t, h.Clear(ctx))

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	rows, err := h.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestHistoryStoreReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, h.Save(ctx, Diagnosis{ID: "x", Symptoms: []string{"fever"}, Disease: "Flu", Medicine: "Rest", CreatedAt: time.Now()}))
	require.NoError(t, h.Close())

	h, err = OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, path, h.Path())
	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
