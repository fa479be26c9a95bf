package navigator

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
)

// embedCache keeps embeddings in a bounded LRU and, when dir is set, in
// little-endian .bin files keyed by model and text.
type embedCache struct {
	mem     *lru.Cache[string, []float32]
	dir     string
	modelID string
}

func newEmbedCache(dir, modelID string, size int) (*embedCache, error) {
	if size <= 0 {
		size = 1024
	}
	mem, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &embedCache{mem: mem, dir: dir, modelID: modelID}, nil
}

func (c *embedCache) key(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *embedCache) get(key string) ([]float32, bool) {
	vec, ok := c.mem.Get(key)
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

func (c *embedCache) put(key string, vec []float32) {
	c.mem.Add(key, cloneVector(vec))
}

func (c *embedCache) load(key string) ([]float32, bool, error) {
	if c.dir == "" {
		return nil, false, nil
	}
	path := filepath.Join(c.dir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(data) < 4 {
		return nil, false, fmt.Errorf("cache file broken: %s", path)
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, false, fmt.Errorf("cache length mismatch: %s", path)
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4 : (i+1)*4]))
	}
	return vec, true, nil
}

func (c *embedCache) save(key string, vec []float32) error {
	if c.dir == "" {
		return nil
	}
	path := filepath.Join(c.dir, key+".bin")
	tmp := path + ".tmp"
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	off := 4
	for _, v := range vec {
		binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
		off += 4
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
