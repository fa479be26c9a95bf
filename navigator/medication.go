package navigator

// MedicationTable maps a disease to one medicine string.
type MedicationTable struct {
	m map[string]string
}

// BuildMedicationTable keeps the first medicine seen for every disease.
func BuildMedicationTable(records []Record) *MedicationTable {
	t := &MedicationTable{m: make(map[string]string)}
	for _, rec := range records {
		if rec.Disease == "" || rec.Medicine == "" {
			continue
		}
		if _, ok := t.m[rec.Disease]; ok {
			continue
		}
		t.m[rec.Disease] = rec.Medicine
	}
	return t
}

// Lookup returns the medicine for disease.
func (t *MedicationTable) Lookup(disease string) (string, bool) {
	med, ok := t.m[disease]
	return med, ok
}

// Medicine returns the medicine for disease or NoMedicationFound.
func (t *MedicationTable) Medicine(disease string) string {
	if med, ok := t.m[disease]; ok {
		return med
	}
	return NoMedicationFound
}

// Len returns the number of diseases with a medicine.
func (t *MedicationTable) Len() int {
	return len(t.m)
}
