package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValueNil(t *testing.T) {
	var m Metadata
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestMetadataValueRoundTrip(t *testing.T) {
	m := Metadata{"source": "upload", "priority": 3.0}
	v, err := m.Value()
	require.NoError(t, err)

	var scanned Metadata
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, "upload", scanned["source"])
	assert.Equal(t, 3.0, scanned["priority"])
}

func TestMetadataScanNil(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan(nil))
	assert.Equal(t, Metadata{}, m)
}

func TestMetadataScanRejectsUnsupportedType(t *testing.T) {
	var m Metadata
	err := m.Scan(42)
	assert.Error(t, err)
}
