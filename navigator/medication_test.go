package navigator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedicationTableFirstOccurrenceWins(t *testing.T) {
	table := BuildMedicationTable(sampleDataset(t).Records)

	med, ok := table.Lookup("Flu")
	assert.True(t, ok)
	assert.Equal(t, "Oseltamivir", med)
	assert.Equal(t, 4, table.Len())
}

func TestMedicationTableFallback(t *testing.T) {
	table := BuildMedicationTable([]Record{{Disease: "Flu", Medicine: ""}, {Disease: "", Medicine: "Rest"}})

	_, ok := table.Lookup("Flu")
	assert.False(t, ok)
	assert.Equal(t, NoMedicationFound, table.Medicine("Flu"))
	assert.Equal(t, 0, table.Len())
}

func TestDiagnosisText(t *testing.T) {
	d := Diagnosis{Disease: "Flu", Medicine: "Oseltamivir"}
	assert.Equal(t,
		"Predicted Disease: Flu\n\nSuggested Medication: Oseltamivir\n\nAdvice: Please consult a doctor for confirmation.",
		d.Text())
}
