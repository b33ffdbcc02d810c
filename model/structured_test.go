package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredValueRaw(t *testing.T) {
	assert.Equal(t, "Alice", StructuredValue{Type: DataTypeString, String: "Alice"}.Raw())
	assert.Equal(t, int64(42), StructuredValue{Type: DataTypeInteger, Integer: 42}.Raw())
	assert.Equal(t, 3.5, StructuredValue{Type: DataTypeFloat, Float: 3.5}.Raw())
	assert.Equal(t, true, StructuredValue{Type: DataTypeBoolean, Bool: true}.Raw())
	now := time.Now()
	assert.Equal(t, now, StructuredValue{Type: DataTypeDatetime, Datetime: now}.Raw())
}

func TestStructuredValueMarshalJSONIsPlainScalar(t *testing.T) {
	b, err := json.Marshal(StructuredValue{Type: DataTypeString, String: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, `"Alice"`, string(b))

	b, err = json.Marshal(StructuredValue{Type: DataTypeInteger, Integer: 7})
	require.NoError(t, err)
	assert.Equal(t, `7`, string(b))
}

func TestStructuredDataValueFlattensToPlainJSON(t *testing.T) {
	d := StructuredData{
		"name": {Type: DataTypeString, String: "Northwind"},
		"age":  {Type: DataTypeInteger, Integer: 10},
	}
	v, err := d.Value()
	require.NoError(t, err)

	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(v.([]byte), &plain))
	assert.Equal(t, "Northwind", plain["name"])
	assert.Equal(t, float64(10), plain["age"])
}

func TestStructuredDataScanInfersTypesFromJSONScalars(t *testing.T) {
	raw := []byte(`{"name": "Bob", "active": true, "count": 5, "ratio": 2.5}`)

	var d StructuredData
	require.NoError(t, d.Scan(raw))

	assert.Equal(t, DataTypeString, d["name"].Type)
	assert.Equal(t, "Bob", d["name"].Raw())

	assert.Equal(t, DataTypeBoolean, d["active"].Type)
	assert.Equal(t, true, d["active"].Raw())

	assert.Equal(t, DataTypeInteger, d["count"].Type)
	assert.Equal(t, int64(5), d["count"].Raw())

	assert.Equal(t, DataTypeFloat, d["ratio"].Type)
	assert.Equal(t, 2.5, d["ratio"].Raw())
}

func TestStructuredDataScanNilProducesEmptyMap(t *testing.T) {
	var d StructuredData
	require.NoError(t, d.Scan(nil))
	assert.Equal(t, StructuredData{}, d)
}

func TestStructuredDataScanRejectsUnsupportedType(t *testing.T) {
	var d StructuredData
	err := d.Scan(42)
	assert.Error(t, err)
}
