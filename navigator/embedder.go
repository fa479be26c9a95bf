package navigator

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"yashubustudio/healthnavigator/emb"
)

// Embedder exposes the minimal surface required by the symptom suggester.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

type textEncoder interface {
	Encode(text string) ([]float32, error)
	Close()
}

// OrtEmbedder is a thin wrapper over emb.Encoder with caching.
type OrtEmbedder struct {
	mu      sync.Mutex
	enc     textEncoder
	cache   *embedCache
	modelID string
	logger  *zap.Logger
}

// NewOrtEmbedder initializes the encoder and prepares the caches.
func NewOrtEmbedder(cfg EmbedderConfig, logger *zap.Logger) (*OrtEmbedder, error) {
	encoder := &emb.Encoder{}
	if err := encoder.Init(emb.Config{
		OrtDLL:        cfg.OrtDLL,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
		Pooling:       cfg.Pooling,
	}); err != nil {
		return nil, err
	}
	o, err := newOrtEmbedder(encoder, cfg, logger)
	if err != nil {
		encoder.Close()
		return nil, err
	}
	return o, nil
}

func newOrtEmbedder(enc textEncoder, cfg EmbedderConfig, logger *zap.Logger) (*OrtEmbedder, error) {
	modelID := cfg.ModelID
	if modelID == "" && cfg.ModelPath != "" {
		modelID = filepath.Base(cfg.ModelPath)
	}
	cache, err := newEmbedCache(cfg.CacheDir, modelID, cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrtEmbedder{enc: enc, cache: cache, modelID: modelID, logger: logger}, nil
}

// Close releases ORT resources.
func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	return nil
}

// ModelID returns the identifier used for cache keys.
func (o *OrtEmbedder) ModelID() string {
	return o.modelID
}

// EmbedText embeds a single string, consulting the memory and disk caches first.
func (o *OrtEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc == nil {
		return nil, errors.New("embedder is not initialized")
	}
	normalized := NormalizeText(text)
	key := o.cache.key(normalized)
	if vec, ok := o.cache.get(key); ok {
		return vec, nil
	}
	if vec, ok, err := o.cache.load(key); err != nil {
		o.logger.Warn("embedding cache read failed", zap.Error(err))
	} else if ok {
		o.cache.put(key, vec)
		return vec, nil
	}
	vec, err := o.enc.Encode(normalized)
	if err != nil {
		return nil, err
	}
	o.cache.put(key, vec)
	if err := o.cache.save(key, vec); err != nil {
		o.logger.Warn("embedding cache write failed", zap.Error(err))
	}
	return cloneVector(vec), nil
}

// EmbedTexts embeds a slice of strings sequentially.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := o.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}
