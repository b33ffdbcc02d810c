package ner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "PER", normalizeLabel("B-PER"))
	assert.Equal(t, "PER", normalizeLabel("I-PER"))
	assert.Equal(t, "PER", normalizeLabel("PER"))
}

func TestIsValidMention(t *testing.T) {
	assert.True(t, isValidMention("Paris"))
	assert.False(t, isValidMention("a"))
	assert.False(t, isValidMention("#artifact"))
	assert.False(t, isValidMention("12"))
}

func TestHugotNERExtractEmptyText(t *testing.T) {
	n := &HugotNER{confidenceThreshold: 0.7}
	mentions, err := n.Extract("   ")
	assert.NoError(t, err)
	assert.Nil(t, mentions)
}
