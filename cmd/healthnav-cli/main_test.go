package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/healthnavigator/navigator"
)

const cliCSV = `Symptoms,Disease,Medicine
"fever, cough, fatigue",Flu,Oseltamivir
"sneezing, runny nose",Common Cold,Rest and fluids
"headache, nausea",Migraine,Sumatriptan
`

// writeFixture creates a dataset and a config pointing every file into a temp dir.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataset := filepath.Join(dir, "medical data.csv")
	require.NoError(t, os.WriteFile(dataset, []byte(cliCSV), 0o644))

	cfg := navigator.DefaultConfig()
	cfg.Dataset.Path = dataset
	cfg.History.Path = filepath.Join(dir, "data", "history.db")
	configPath := filepath.Join(dir, "healthnav.yaml")
	require.NoError(t, navigator.SaveConfig(configPath, cfg))
	return configPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDiagnoseCommand(t *testing.T) {
	config := writeFixture(t)

	out, err := execute(t, "--config", config, "diagnose", "sneezing", "--symptoms", "runny nose")
	require.NoError(t, err)
	assert.Contains(t, out, "Predicted Disease: Common Cold")
	assert.Contains(t, out, "Suggested Medication: Rest and fluids")
	assert.Contains(t, out, "Confidence: 100%")
}

func TestDiagnoseCommandJSON(t *testing.T) {
	config := writeFixture(t)

	out, err := execute(t, "--config", config, "diagnose", "--json", "--symptoms", "fever, cough, fatigue")
	require.NoError(t, err)

	var d navigator.Diagnosis
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "Flu", d.Disease)
	assert.Equal(t, "Oseltamivir", d.Medicine)
	assert.Equal(t, []string{"fever", "cough", "fatigue"}, d.Symptoms)
}

func TestDiagnoseCommandErrors(t *testing.T) {
	config := writeFixture(t)

	_, err := execute(t, "--config", config, "diagnose")
	assert.ErrorIs(t, err, navigator.ErrNoSymptoms)

	_, err = execute(t, "--config", config, "diagnose", "purple toes")
	assert.ErrorIs(t, err, navigator.ErrUnknownSymptom)

	_, err = execute(t, "--config", config, "--dataset", filepath.Join(t.TempDir(), "missing.csv"), "diagnose", "fever")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSymptomsCommand(t *testing.T) {
	config := writeFixture(t)

	out, err := execute(t, "--config", config, "symptoms")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, []string{"cough", "fatigue", "fever", "headache", "nausea", "runny nose", "sneezing"}, lines)

	out, err = execute(t, "--config", config, "symptoms", "--filter", "NOSE")
	require.NoError(t, err)
	assert.Equal(t, "runny nose\n", out)
}

func TestSuggestCommand(t *testing.T) {
	config := writeFixture(t)

	out, err := execute(t, "--config", config, "suggest", "a", "pounding", "headache", "-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "headache")
	assert.Contains(t, out, "keyword")

	out, err = execute(t, "--config", config, "suggest", "purple toes")
	require.NoError(t, err)
	assert.Equal(t, "no matching symptoms\n", out)
}

func TestTreeCommand(t *testing.T) {
	config := writeFixture(t)
	save := filepath.Join(t.TempDir(), "models", "tree.json")

	out, err := execute(t, "--config", config, "tree", "--save", save)
	require.NoError(t, err)
	assert.Contains(t, out, "rows=3 skipped=0 features=7 classes=3")
	assert.Contains(t, out, "|--- ")
	assert.Contains(t, out, "class: Migraine")

	_, err = navigator.LoadDecisionTree(save)
	assert.NoError(t, err)
}

func TestHistoryCommand(t *testing.T) {
	config := writeFixture(t)

	out, err := execute(t, "--config", config, "history")
	require.NoError(t, err)
	assert.Equal(t, "no diagnoses recorded\n", out)

	_, err = execute(t, "--config", config, "diagnose", "headache")
	require.NoError(t, err)

	out, err = execute(t, "--config", config, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Migraine")
	assert.Contains(t, out, "headache")

	out, err = execute(t, "--config", config, "history", "--clear")
	require.NoError(t, err)
	assert.Equal(t, "history cleared\n", out)

	out, err = execute(t, "--config", config, "history")
	require.NoError(t, err)
	assert.Equal(t, "no diagnoses recorded\n", out)
}
