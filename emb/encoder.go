// Package emb wraps an ONNX sentence-embedding model and its tokenizer.
package emb

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// Pooling strategies for turning token states into one vector.
const (
	PoolingCLS  = "cls"
	PoolingMean = "mean"
)

// Config locates the ONNX runtime, the model and the tokenizer.
type Config struct {
	OrtDLL        string
	ModelPath     string
	TokenizerPath string
	MaxSeqLen     int
	Pooling       string
	InputNames    []string
	OutputName    string
}

func (c *Config) applyDefaults() {
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = 128
	}
	if c.Pooling == "" {
		c.Pooling = PoolingCLS
	}
	if len(c.InputNames) == 0 {
		c.InputNames = []string{"input_ids", "attention_mask"}
	}
	if c.OutputName == "" {
		c.OutputName = "last_hidden_state"
	}
}

var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment(dll string) error {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		if dll != "" {
			ort.SetSharedLibraryPath(dll)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() {
	envMu.Lock()
	defer envMu.Unlock()
	if envRefs == 0 {
		return
	}
	envRefs--
	if envRefs == 0 {
		_ = ort.DestroyEnvironment()
	}
}

// Encoder turns text into L2-normalized embedding vectors. Encode calls are
// serialized.
type Encoder struct {
	mu      sync.Mutex
	cfg     Config
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

// Init loads the tokenizer and creates the ONNX session.
func (e *Encoder) Init(cfg Config) error {
	cfg.applyDefaults()
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return errors.New("model and tokenizer paths are required")
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}
	if err := acquireEnvironment(cfg.OrtDLL); err != nil {
		return err
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, cfg.InputNames, []string{cfg.OutputName}, nil)
	if err != nil {
		releaseEnvironment()
		return fmt.Errorf("create session: %w", err)
	}
	e.mu.Lock()
	e.cfg = cfg
	e.tk = tk
	e.session = session
	e.mu.Unlock()
	return nil
}

// Encode embeds a single text.
func (e *Encoder) Encode(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil || e.tk == nil {
		return nil, errors.New("encoder is not initialized")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty text")
	}
	en, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	ids, mask := truncate(en.Ids, en.AttentionMask, e.cfg.MaxSeqLen)
	seqLen := int64(len(ids))
	if seqLen == 0 {
		return nil, errors.New("tokenizer produced no tokens")
	}

	shape := ort.NewShape(1, seqLen)
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("input ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("attention mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	inputs := []ort.Value{idsTensor, maskTensor}
	if len(e.cfg.InputNames) > 2 {
		typeIDs, err := ort.NewTensor(shape, make([]int64, len(ids)))
		if err != nil {
			return nil, fmt.Errorf("token type tensor: %w", err)
		}
		defer typeIDs.Destroy()
		inputs = append(inputs, typeIDs)
	}
	outputs := []ort.Value{nil}
	if err := e.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}
	defer outputs[0].Destroy()
	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	outShape := hidden.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", outShape)
	}
	dim := int(outShape[2])
	states := hidden.GetData()

	var vec []float32
	switch e.cfg.Pooling {
	case PoolingMean:
		vec = MeanPool(states, mask, dim)
	default:
		vec = CLSPool(states, dim)
	}
	return Normalize(vec), nil
}

// Close releases the session and the shared runtime environment.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
		releaseEnvironment()
	}
	e.tk = nil
}

func truncate(ids, mask []int, maxLen int) ([]int64, []int64) {
	n := len(ids)
	if maxLen > 0 && n > maxLen {
		n = maxLen
	}
	outIDs := make([]int64, n)
	outMask := make([]int64, n)
	for i := 0; i < n; i++ {
		outIDs[i] = int64(ids[i])
		if i < len(mask) {
			outMask[i] = int64(mask[i])
		} else {
			outMask[i] = 1
		}
	}
	return outIDs, outMask
}
