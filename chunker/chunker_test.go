package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk(t *testing.T) {
	t.Run("empty text returns empty slice", func(t *testing.T) {
		chunks, err := Chunk("", 500, 50)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("whitespace-only text returns empty slice", func(t *testing.T) {
		chunks, err := Chunk("   \n\n  ", 500, 50)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("is deterministic", func(t *testing.T) {
		text := "First paragraph sentence one. Sentence two.\n\nSecond paragraph here. More text follows."
		a, err := Chunk(text, 50, 10)
		require.NoError(t, err)
		b, err := Chunk(text, 50, 10)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("respects chunk size for short text", func(t *testing.T) {
		text := "A short sentence."
		chunks, err := Chunk(text, 500, 50)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, "A short sentence.", chunks[0])
	})

	t.Run("splits long paragraph into multiple chunks within size", func(t *testing.T) {
		sentence := "This is a moderately long sentence used to fill up space. "
		var text string
		for i := 0; i < 20; i++ {
			text += sentence
		}

		chunks, err := Chunk(text, 100, 20)
		require.NoError(t, err)
		assert.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 100)
		}
	})

	t.Run("uses defaults for invalid size and overlap", func(t *testing.T) {
		chunks, err := Chunk("Some text here.", 0, -5)
		require.NoError(t, err)
		assert.NotEmpty(t, chunks)
	})

	t.Run("adjacent chunks share overlap content", func(t *testing.T) {
		sentence := "Word "
		var text string
		for i := 0; i < 100; i++ {
			text += sentence
		}

		chunks, err := Chunk(text, 50, 20)
		require.NoError(t, err)
		require.Greater(t, len(chunks), 1)
		for i := 1; i < len(chunks); i++ {
			prev := chunks[i-1]
			assert.Contains(t, chunks[i], strings.TrimSpace(prev[len(prev)-20:]))
		}
	})
}
