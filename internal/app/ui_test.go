package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"yashubustudio/healthnavigator/navigator"
)

const uiCSV = `Symptoms,Disease,Medicine
"fever, cough, fatigue",Flu,Oseltamivir
"sneezing, runny nose",Common Cold,Rest and fluids
"headache, nausea",Migraine,Sumatriptan
`

func newTestUI(t *testing.T, opts ...navigator.Option) *uiState {
	t.Helper()
	a := test.NewApp()
	t.Cleanup(a.Quit)

	ds, err := navigator.ReadDataset(strings.NewReader(uiCSV), navigator.DatasetOptions{})
	require.NoError(t, err)
	svc, err := navigator.NewService(context.Background(), ds, navigator.DefaultConfig(), zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	u := buildUI(a, svc, binding.NewString(), zap.NewNop())
	u.runAsync = func(fn func()) { fn() }
	u.onMain = func(fn func()) { fn() }
	return u
}

func (u *uiState) check(name string) {
	for _, c := range u.checks {
		if c.Text == name {
			c.SetChecked(true)
			return
		}
	}
}

func TestBuildUILayout(t *testing.T) {
	u := newTestUI(t)

	assert.Equal(t, windowTitle, u.w.Title())
	require.Len(t, u.checks, 7)
	assert.Equal(t, "cough", u.checks[0].Text)
	assert.False(t, u.newBtn.Visible())
	assert.False(t, u.exitBtn.Visible())
	assert.True(t, u.historyBtn.Disabled())
	assert.Contains(t, u.status.Text, "Trained on 3 rows")
}

func TestPredictWithoutSelectionWarns(t *testing.T) {
	u := newTestUI(t)

	test.Tap(u.predictBtn)

	assert.NotNil(t, u.w.Canvas().Overlays().Top())
	assert.Empty(t, u.result.Text)
	assert.False(t, u.newBtn.Visible())
}

func TestPredictWithoutSelectionMessage(t *testing.T) {
	u := newTestUI(t)
	var title, message string
	u.inform = func(gotTitle, gotMessage string) { title, message = gotTitle, gotMessage }

	test.Tap(u.predictBtn)

	assert.Equal(t, "Input Error", title)
	assert.Equal(t, "Please select at least one symptom.", message)
	assert.Nil(t, u.w.Canvas().Overlays().Top())
}

func TestPredictShowsDiagnosis(t *testing.T) {
	u := newTestUI(t)
	u.check("sneezing")
	u.check("runny nose")

	test.Tap(u.predictBtn)

	assert.Nil(t, u.w.Canvas().Overlays().Top())
	assert.Equal(t,
		"Predicted Disease: Common Cold\n\nSuggested Medication: Rest and fluids\n\nAdvice: Please consult a doctor for confirmation.",
		u.result.Text)
	assert.True(t, u.newBtn.Visible())
	assert.True(t, u.exitBtn.Visible())
}

func TestNewPredictionResets(t *testing.T) {
	u := newTestUI(t)
	u.check("headache")
	test.Tap(u.predictBtn)
	require.NotEmpty(t, u.result.Text)

	test.Tap(u.newBtn)

	assert.Empty(t, u.selectedSymptoms())
	assert.Empty(t, u.result.Text)
	assert.False(t, u.newBtn.Visible())
	assert.False(t, u.exitBtn.Visible())
}

func TestExitQuits(t *testing.T) {
	u := newTestUI(t)
	quit := false
	u.quit = func() { quit = true }

	test.Tap(u.exitBtn)
	assert.True(t, quit)
}

func TestSearchFiltersChecklist(t *testing.T) {
	u := newTestUI(t)

	u.search.SetText("NO")
	for _, c := range u.checks {
		assert.Equal(t, c.Text == "runny nose", c.Visible(), c.Text)
	}

	u.search.SetText("")
	for _, c := range u.checks {
		assert.True(t, c.Visible(), c.Text)
	}
}

func TestSuggestTicksChecks(t *testing.T) {
	u := newTestUI(t)
	u.search.SetText("cough")

	u.describe.SetText("bad headache with nausea")
	test.Tap(u.suggestBtn)

	assert.ElementsMatch(t, []string{"headache", "nausea"}, u.selectedSymptoms())
	assert.Equal(t, "Suggested: headache, nausea", u.status.Text)
	assert.False(t, u.suggestBtn.Disabled())
	for _, c := range u.checks {
		if c.Text == "headache" {
			assert.True(t, c.Visible())
		}
	}
}

func TestSuggestWithoutMatches(t *testing.T) {
	u := newTestUI(t)
	u.describe.SetText("purple toes")
	test.Tap(u.suggestBtn)

	assert.Empty(t, u.selectedSymptoms())
	assert.Equal(t, "No matching symptoms found.", u.status.Text)
}

func TestHistoryDialog(t *testing.T) {
	h, err := navigator.OpenHistory(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	u := newTestUI(t, navigator.WithHistory(h))
	require.False(t, u.historyBtn.Disabled())

	u.check("fever")
	test.Tap(u.predictBtn)
	test.Tap(u.historyBtn)

	assert.NotNil(t, u.w.Canvas().Overlays().Top())
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No diagnoses recorded yet.", formatHistory(nil))

	at := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	got := formatHistory([]navigator.Diagnosis{{
		Disease:    "Flu",
		Medicine:   "Oseltamivir",
		Symptoms:   []string{"fever", "cough"},
		Confidence: 1,
		CreatedAt:  at,
	}})
	assert.Equal(t, "2024-06-01 08:30  Flu (100%)\n    Symptoms: fever, cough\n    Medication: Oseltamivir", got)
}
