package navigator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service trains the classifier once and answers diagnosis requests.
// The model, feature space and medication table are read only after
// construction.
type Service struct {
	cfg       Config
	dataset   *Dataset
	features  *FeatureSpace
	model     *DecisionTree
	meds      *MedicationTable
	suggester Suggester
	embedder  Embedder
	history   *HistoryStore

	logger *zap.Logger
	now    func() time.Time
}

// Option customizes NewService.
type Option func(*Service)

// WithHistory attaches a history store. The service closes it on Close.
func WithHistory(h *HistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithEmbedder enables embedding based symptom suggestions. The service
// closes the embedder on Close.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// WithClock overrides the time source used for diagnosis timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService trains the decision tree on ds and builds the medication table.
func NewService(ctx context.Context, ds *Dataset, cfg Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if ds == nil || len(ds.Records) == 0 {
		return nil, ErrEmptyDataset
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	s := &Service{
		cfg:     cfg,
		dataset: ds,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.features = NewFeatureSpace(ds.Symptoms)
	labels := make([]string, len(ds.Records))
	for i, rec := range ds.Records {
		labels[i] = rec.Disease
	}
	if cfg.Model.LoadPath != "" {
		model, err := loadCompatibleTree(cfg.Model.LoadPath, s.features.Names(), labels)
		if err != nil {
			logger.Warn("saved model unusable, training instead", zap.String("path", cfg.Model.LoadPath), zap.Error(err))
		} else {
			s.model = model
		}
	}
	trained := s.model == nil
	if trained {
		s.model = NewDecisionTree(cfg.Model.MaxDepth, cfg.Model.MinSamplesSplit)
		s.model.SetFeatureNames(s.features.Names())
		if err := s.model.Train(s.features.Matrix(ds.Records), labels); err != nil {
			return nil, fmt.Errorf("train model: %w", err)
		}
	}
	s.meds = BuildMedicationTable(ds.Records)
	logger.Info("model ready",
		zap.Bool("trained", trained),
		zap.Int("rows", len(ds.Records)),
		zap.Int("skipped", ds.Skipped),
		zap.Int("features", s.features.Len()),
		zap.Int("classes", len(s.model.Classes())),
		zap.Int("depth", s.model.Depth()),
		zap.Int("leaves", s.model.LeafCount()))

	if trained && cfg.Model.SavePath != "" {
		if err := s.saveModel(cfg.Model.SavePath); err != nil {
			logger.Warn("saving model failed", zap.String("path", cfg.Model.SavePath), zap.Error(err))
		}
	}

	keyword := newKeywordSuggester(s.features.Names())
	s.suggester = keyword
	if s.embedder != nil {
		es, err := newEmbeddingSuggester(ctx, s.embedder, s.features.Names(), cfg.Embedder.MinScore)
		if err != nil {
			logger.Warn("embedding suggestions disabled", zap.Error(err))
		} else {
			s.suggester = combinedSuggester{parts: []Suggester{keyword, es}}
			logger.Info("embedding suggestions enabled", zap.String("model", s.embedder.ModelID()))
		}
	}
	return s, nil
}

// loadCompatibleTree reads a saved tree and checks that it was built on the
// same symptom columns and disease labels as the current dataset.
func loadCompatibleTree(path string, features, labels []string) (*DecisionTree, error) {
	dt, err := LoadDecisionTree(path)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(dt.Features(), features) {
		return nil, errors.New("symptom columns differ from the dataset")
	}
	if !slices.Equal(dt.Classes(), sortedUnique(labels)) {
		return nil, errors.New("disease labels differ from the dataset")
	}
	return dt, nil
}

// Open loads the dataset named in cfg and wires the optional history store
// and embedder. Only a dataset failure is fatal.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.ApplyDefaults()
	ds, err := LoadDataset(cfg.Dataset.Path, cfg.DatasetOptions())
	if err != nil {
		logger.Error("failed to load dataset", zap.String("path", cfg.Dataset.Path), zap.Error(err))
		return nil, fmt.Errorf("load dataset: %w", err)
	}

	var (
		history  *HistoryStore
		embedder Embedder
		opts     []Option
	)
	if cfg.History.Enabled {
		h, err := OpenHistory(cfg.History.Path)
		if err != nil {
			logger.Warn("diagnosis history disabled", zap.String("path", cfg.History.Path), zap.Error(err))
		} else {
			history = h
			opts = append(opts, WithHistory(h))
		}
	}
	if cfg.Embedder.Enabled() {
		e, err := NewOrtEmbedder(cfg.Embedder, logger)
		if err != nil {
			logger.Warn("embedder unavailable, using keyword suggestions", zap.Error(err))
		} else {
			embedder = e
			opts = append(opts, WithEmbedder(e))
		}
	}
	s, err := NewService(ctx, ds, cfg, logger, opts...)
	if err != nil {
		if embedder != nil {
			_ = embedder.Close()
		}
		if history != nil {
			_ = history.Close()
		}
		return nil, err
	}
	return s, nil
}

// Close releases the history store and embedder.
func (s *Service) Close() error {
	var errs []error
	if s.embedder != nil {
		errs = append(errs, s.embedder.Close())
	}
	if s.history != nil {
		errs = append(errs, s.history.Close())
	}
	return errors.Join(errs...)
}

// Config returns the configuration the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// Symptoms returns every checklist symptom in feature column order.
func (s *Service) Symptoms() []string {
	return s.features.Names()
}

// FilterSymptoms returns the symptoms containing query, ignoring case.
// An empty query returns every symptom.
func (s *Service) FilterSymptoms(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	names := s.features.Names()
	if q == "" {
		return names
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}

// Diagnose predicts a disease for the selected symptoms and looks up its
// medicine. The diagnosis is recorded when a history store is attached.
func (s *Service) Diagnose(ctx context.Context, selected []string) (Diagnosis, error) {
	symptoms := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	var unknown []string
	for _, raw := range selected {
		name := NormalizeText(raw)
		if name == "" {
			continue
		}
		canonical, ok := s.features.Canonical(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		symptoms = append(symptoms, canonical)
	}
	if len(unknown) > 0 {
		return Diagnosis{}, fmt.Errorf("%w: %s", ErrUnknownSymptom, strings.Join(unknown, ", "))
	}
	if len(symptoms) == 0 {
		return Diagnosis{}, ErrNoSymptoms
	}
	vec, err := s.features.Encode(symptoms)
	if err != nil {
		return Diagnosis{}, err
	}
	disease, confidence, err := s.model.Predict(vec)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("predict: %w", err)
	}
	medicine, found := s.meds.Lookup(disease)
	if !found {
		medicine = NoMedicationFound
	}
	d := Diagnosis{
		ID:            uuid.NewString(),
		Symptoms:      symptoms,
		Disease:       disease,
		Medicine:      medicine,
		MedicineFound: found,
		Confidence:    confidence,
		Advice:        DefaultAdvice,
		CreatedAt:     s.now(),
	}
	s.logger.Info("diagnosis",
		zap.String("id", d.ID),
		zap.Strings("symptoms", d.Symptoms),
		zap.String("disease", d.Disease),
		zap.Float64("confidence", d.Confidence))
	if s.history != nil {
		if err := s.history.Save(ctx, d); err != nil {
			s.logger.Warn("recording diagnosis failed", zap.Error(err))
		}
	}
	return d, nil
}

// SuggestSymptoms maps a free text description to at most k checklist symptoms.
func (s *Service) SuggestSymptoms(ctx context.Context, text string, k int) ([]SymptomMatch, error) {
	return s.suggester.Suggest(ctx, text, k)
}

// EmbeddingsEnabled reports whether suggestions use the embedding model.
func (s *Service) EmbeddingsEnabled() bool {
	_, ok := s.suggester.(combinedSuggester)
	return ok
}

// HistoryEnabled reports whether a history store is attached.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// History returns up to limit recorded diagnoses, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]Diagnosis, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}

// ClearHistory removes every recorded diagnosis.
func (s *Service) ClearHistory(ctx context.Context) error {
	if s.history == nil {
		return ErrHistoryDisabled
	}
	return s.history.Clear(ctx)
}

// ModelInfo summarizes the dataset and the trained tree.
func (s *Service) ModelInfo() ModelInfo {
	return ModelInfo{
		Rows:      len(s.dataset.Records),
		Skipped:   s.dataset.Skipped,
		Features:  s.features.Len(),
		Classes:   len(s.model.Classes()),
		Depth:     s.model.Depth(),
		Leaves:    s.model.LeafCount(),
		Medicines: s.meds.Len(),
	}
}

// ExportTree writes the tree rules as indented text.
func (s *Service) ExportTree(w io.Writer) error {
	return s.model.ExportText(w)
}

// SaveModel writes the trained tree as JSON.
func (s *Service) SaveModel(path string) error {
	return s.saveModel(path)
}

func (s *Service) saveModel(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
	}
	return s.model.Save(path)
}
