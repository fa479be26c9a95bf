package emb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLSPool(t *testing.T) {
	states := []float32{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []float32{1, 2, 3}, CLSPool(states, 3))
	assert.Nil(t, CLSPool(states[:2], 3))
}

func TestMeanPoolSkipsMaskedTokens(t *testing.T) {
	states := []float32{
		1, 1,
		3, 5,
		100, 100,
	}
	got := MeanPool(states, []int64{1, 1, 0}, 2)
	require.Len(t, got, 2)
	assert.InDelta(t, 2, got[0], 1e-6)
	assert.InDelta(t, 3, got[1], 1e-6)
}

func TestMeanPoolAllMasked(t *testing.T) {
	got := MeanPool([]float32{1, 2}, []int64{0}, 2)
	assert.Equal(t, []float32{0, 0}, got)
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)

	zero := Normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestTruncate(t *testing.T) {
	ids, mask := truncate([]int{5, 6, 7, 8}, []int{1, 1, 1}, 3)
	assert.Equal(t, []int64{5, 6, 7}, ids)
	assert.Equal(t, []int64{1, 1, 1}, mask)

	ids, mask = truncate([]int{5, 6}, []int{1}, 0)
	assert.Equal(t, []int64{5, 6}, ids)
	assert.Equal(t, []int64{1, 1}, mask)
}

func TestEncoderRequiresInit(t *testing.T) {
	var e Encoder
	_, err := e.Encode("fever")
	require.Error(t, err)

	err = e.Init(Config{})
	require.Error(t, err)
}
