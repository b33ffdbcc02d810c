package embedder

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("scales vector to unit length", func(t *testing.T) {
		v := []float32{3, 4}
		out := normalize(v)

		var sumSq float64
		for _, x := range out {
			sumSq += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-6)
	})

	t.Run("preserves direction", func(t *testing.T) {
		v := []float32{3, 4}
		out := normalize(v)
		assert.InDelta(t, 0.6, out[0], 1e-6)
		assert.InDelta(t, 0.8, out[1], 1e-6)
	})

	t.Run("leaves zero vector unchanged", func(t *testing.T) {
		v := []float32{0, 0, 0}
		out := normalize(v)
		assert.Equal(t, v, out)
	})
}

func TestHugotEmbedderDimension(t *testing.T) {
	e := &HugotEmbedder{dim: 384}
	assert.Equal(t, 384, e.Dimension())
}
