package navigator

import (
	"errors"
	"fmt"
	"time"
)

const (
	// NoMedicationFound is returned when the medication table has no entry for a disease.
	NoMedicationFound = "No medication found."
	// DefaultAdvice is appended to every diagnosis shown to the user.
	DefaultAdvice = "Please consult a doctor for confirmation."
	// DefaultDatasetFile is the training CSV used when the config names none.
	DefaultDatasetFile = "medical data.csv"
	// DefaultMinScore is the embedding similarity a suggestion must reach.
	DefaultMinScore float32 = 0.35
)

var (
	// ErrNoSymptoms is returned by Diagnose when nothing was selected.
	ErrNoSymptoms = errors.New("please select at least one symptom")
	// ErrUnknownSymptom is returned when a symptom is not part of the trained feature space.
	ErrUnknownSymptom = errors.New("unknown symptom")
	// ErrEmptyDataset is returned when no usable rows remain after dropping incomplete ones.
	ErrEmptyDataset = errors.New("dataset has no usable rows")
	// ErrHistoryDisabled is returned by history queries when no store is attached.
	ErrHistoryDisabled = errors.New("diagnosis history is disabled")
	// ErrNotTrained is returned when a decision tree is used before Train or Load.
	ErrNotTrained = errors.New("model not trained")
)

// Record is a single dataset row after cleaning.
type Record struct {
	Symptoms []string `json:"symptoms"`
	Disease  string   `json:"disease"`
	Medicine string   `json:"medicine"`
}

// Diagnosis is the outcome of one prediction.
type Diagnosis struct {
	ID            string    `json:"id"`
	Symptoms      []string  `json:"symptoms"`
	Disease       string    `json:"disease"`
	Medicine      string    `json:"medicine"`
	MedicineFound bool      `json:"medicineFound"`
	Confidence    float64   `json:"confidence"`
	Advice        string    `json:"advice"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Text renders the diagnosis the way the result area shows it.
func (d Diagnosis) Text() string {
	advice := d.Advice
	if advice == "" {
		advice = DefaultAdvice
	}
	return fmt.Sprintf("Predicted Disease: %s\n\nSuggested Medication: %s\n\nAdvice: %s", d.Disease, d.Medicine, advice)
}

// SymptomMatch is a checklist symptom suggested for a free text description.
type SymptomMatch struct {
	Symptom string  `json:"symptom"`
	Score   float32 `json:"score"`
	Source  string  `json:"source"`
}

// ModelInfo summarizes the trained classifier.
type ModelInfo struct {
	Rows      int `json:"rows"`
	Skipped   int `json:"skipped"`
	Features  int `json:"features"`
	Classes   int `json:"classes"`
	Depth     int `json:"depth"`
	Leaves    int `json:"leaves"`
	Medicines int `json:"medicines"`
}

// DatasetConfig locates the training CSV and its columns.
type DatasetConfig struct {
	Path           string `yaml:"path"`
	SymptomColumn  string `yaml:"symptomColumn,omitempty"`
	DiseaseColumn  string `yaml:"diseaseColumn,omitempty"`
	MedicineColumn string `yaml:"medicineColumn,omitempty"`
	Separator      string `yaml:"separator,omitempty"`
}

// ModelConfig holds the decision tree hyperparameters. LoadPath names a
// tree written by SaveModel that is used instead of training when it
// matches the dataset's symptoms and diseases.
type ModelConfig struct {
	MaxDepth        int    `yaml:"maxDepth"`
	MinSamplesSplit int    `yaml:"minSamplesSplit"`
	SavePath        string `yaml:"savePath,omitempty"`
	LoadPath        string `yaml:"loadPath,omitempty"`
}

// HistoryConfig controls the SQLite diagnosis history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EmbedderConfig wraps the configuration for the ORT embedder and its caches.
// MinScore is kept as configured, including 0; negative values fall back to
// DefaultMinScore.
type EmbedderConfig struct {
	OrtDLL        string  `yaml:"ortDll,omitempty"`
	ModelPath     string  `yaml:"modelPath,omitempty"`
	TokenizerPath string  `yaml:"tokenizerPath,omitempty"`
	MaxSeqLen     int     `yaml:"maxSeqLen"`
	Pooling       string  `yaml:"pooling,omitempty"`
	CacheDir      string  `yaml:"cacheDir,omitempty"`
	CacheSize     int     `yaml:"cacheSize"`
	ModelID       string  `yaml:"modelId,omitempty"`
	MinScore      float32 `yaml:"minScore"`
}

// Enabled reports whether a model and tokenizer are configured.
func (c EmbedderConfig) Enabled() bool {
	return c.ModelPath != "" && c.TokenizerPath != ""
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// UIConfig holds window settings for the desktop app.
type UIConfig struct {
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// Config aggregates runtime settings persisted to healthnav.yaml.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Model    ModelConfig    `yaml:"model"`
	History  HistoryConfig  `yaml:"history"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Log      LogConfig      `yaml:"log"`
	UI       UIConfig       `yaml:"ui"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	cfg := Config{
		History:  HistoryConfig{Enabled: true},
		Embedder: EmbedderConfig{MinScore: DefaultMinScore},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Dataset.Path == "" {
		c.Dataset.Path = DefaultDatasetFile
	}
	if c.Dataset.Separator == "" {
		c.Dataset.Separator = ","
	}
	if c.Model.MaxDepth < 0 {
		c.Model.MaxDepth = 0
	}
	if c.Model.MinSamplesSplit < 2 {
		c.Model.MinSamplesSplit = 2
	}
	if c.History.Path == "" {
		c.History.Path = "data/history.db"
	}
	if c.Embedder.MaxSeqLen == 0 {
		c.Embedder.MaxSeqLen = 128
	}
	if c.Embedder.Pooling == "" {
		c.Embedder.Pooling = "cls"
	}
	if c.Embedder.CacheSize <= 0 {
		c.Embedder.CacheSize = 1024
	}
	if c.Embedder.MinScore < 0 {
		c.Embedder.MinScore = DefaultMinScore
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays <= 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.UI.Width <= 0 {
		c.UI.Width = 700
	}
	if c.UI.Height <= 0 {
		c.UI.Height = 700
	}
}

// DatasetOptions converts the dataset section into loader options.
func (c Config) DatasetOptions() DatasetOptions {
	return DatasetOptions{
		SymptomColumn:  c.Dataset.SymptomColumn,
		DiseaseColumn:  c.Dataset.DiseaseColumn,
		MedicineColumn: c.Dataset.MedicineColumn,
		Separator:      c.Dataset.Separator,
	}
}
