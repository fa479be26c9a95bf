package navigator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DatasetOptions allows callers to choose which CSV columns map to record fields.
type DatasetOptions struct {
	SymptomColumn  string
	DiseaseColumn  string
	MedicineColumn string
	// Separator splits the symptom cell into tokens. Defaults to ",".
	Separator string
}

// Dataset is the cleaned training table.
type Dataset struct {
	Records []Record
	// Symptoms is the sorted list of distinct symptom tokens. It fixes the
	// feature column order.
	Symptoms []string
	// Skipped counts rows dropped because a required cell was empty.
	Skipped int
}

// Diseases returns the distinct disease labels in sorted order.
func (d *Dataset) Diseases() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, rec := range d.Records {
		if _, ok := seen[rec.Disease]; ok {
			continue
		}
		seen[rec.Disease] = struct{}{}
		out = append(out, rec.Disease)
	}
	sort.Strings(out)
	return out
}

// LoadDataset reads the CSV file at path.
func LoadDataset(path string, opts DatasetOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ds, err := ReadDataset(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// ReadDataset parses CSV data with a header row. Rows with an empty symptom,
// disease or medicine cell are dropped.
func ReadDataset(r io.Reader, opts DatasetOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	candidates := getColumnCandidates()
	symCol, err := resolveColumn(header, opts.SymptomColumn, candidates.Symptoms, "symptoms")
	if err != nil {
		return nil, err
	}
	disCol, err := resolveColumn(header, opts.DiseaseColumn, candidates.Disease, "disease")
	if err != nil {
		return nil, err
	}
	medCol, err := resolveColumn(header, opts.MedicineColumn, candidates.Medicine, "medicine")
	if err != nil {
		return nil, err
	}

	sep := opts.Separator
	if sep == "" {
		sep = ","
	}
	ds := &Dataset{Records: make([]Record, 0, len(rows)-1)}
	vocab := make(map[string]struct{})
	for _, row := range rows[1:] {
		symptoms := splitSymptoms(cellAt(row, symCol), sep)
		disease := cellAt(row, disCol)
		medicine := cellAt(row, medCol)
		if len(symptoms) == 0 || disease == "" || medicine == "" {
			ds.Skipped++
			continue
		}
		for _, s := range symptoms {
			vocab[s] = struct{}{}
		}
		ds.Records = append(ds.Records, Record{Symptoms: symptoms, Disease: disease, Medicine: medicine})
	}
	if len(ds.Records) == 0 {
		return nil, ErrEmptyDataset
	}
	ds.Symptoms = make([]string, 0, len(vocab))
	for s := range vocab {
		ds.Symptoms = append(ds.Symptoms, s)
	}
	sort.Strings(ds.Symptoms)
	return ds, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanCell(row[idx])
}

func splitSymptoms(cell, sep string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, sep)
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		token := NormalizeText(p)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	return out
}
