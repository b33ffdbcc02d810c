package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// AttributeDataType is the closed set of scalar types a structured attribute
// may declare. It replaces the source's free-form dynamic typing (see
// SPEC_FULL.md's "Dynamic typing on structured payloads" note) with an
// explicit tagged variant.
type AttributeDataType string

const (
	DataTypeString   AttributeDataType = "string"
	DataTypeInteger  AttributeDataType = "integer"
	DataTypeFloat    AttributeDataType = "float"
	DataTypeBoolean  AttributeDataType = "boolean"
	DataTypeDatetime AttributeDataType = "datetime"
)

// StructuredValue is a tagged variant holding exactly one typed value.
// Node/Edge structured_data values are validated into this shape before
// being persisted; unstructured_data and Metadata stay as raw interface{}.
type StructuredValue struct {
	Type     AttributeDataType
	String   string
	Integer  int64
	Float    float64
	Bool     bool
	Datetime time.Time
}

// Raw returns the underlying Go value for JSON marshaling and for handing to
// downstream consumers that don't care about the tag.
func (v StructuredValue) Raw() interface{} {
	switch v.Type {
	case DataTypeString:
		return v.String
	case DataTypeInteger:
		return v.Integer
	case DataTypeFloat:
		return v.Float
	case DataTypeBoolean:
		return v.Bool
	case DataTypeDatetime:
		return v.Datetime
	default:
		return nil
	}
}

// MarshalJSON encodes the tagged value as its plain JSON representation,
// not as a {type, value} envelope — structured_data columns store plain JSON
// scalars so the relational store's JSON introspection tools still work.
func (v StructuredValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// StructuredData is the validated, typed attribute map carried by Node and
// Edge. Keys are attribute names; values are tagged scalars.
type StructuredData map[string]StructuredValue

// Value implements driver.Valuer, flattening tagged values to plain JSON.
func (d StructuredData) Value() (driver.Value, error) {
	plain := make(map[string]interface{}, len(d))
	for k, v := range d {
		plain[k] = v.Raw()
	}
	return json.Marshal(plain)
}

// Scan implements sql.Scanner. Because the column stores plain JSON scalars
// (not tagged), Scan alone cannot recover the original AttributeDataType,
// and this package has no helper that restores it from a schema. Scan here
// produces a best-effort StructuredData inferring types from the JSON
// scalar kind.
func (d *StructuredData) Scan(value interface{}) error {
	if value == nil {
		*d = StructuredData{}
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return errors.New("structured_data: type assertion to []byte failed")
		}
	}

	var plain map[string]interface{}
	if len(b) == 0 {
		*d = StructuredData{}
		return nil
	}
	if err := json.Unmarshal(b, &plain); err != nil {
		return err
	}

	out := make(StructuredData, len(plain))
	for k, raw := range plain {
		out[k] = inferStructuredValue(raw)
	}
	*d = out
	return nil
}

func inferStructuredValue(raw interface{}) StructuredValue {
	switch v := raw.(type) {
	case string:
		return StructuredValue{Type: DataTypeString, String: v}
	case bool:
		return StructuredValue{Type: DataTypeBoolean, Bool: v}
	case float64:
		if v == float64(int64(v)) {
			return StructuredValue{Type: DataTypeInteger, Integer: int64(v), Float: v}
		}
		return StructuredValue{Type: DataTypeFloat, Float: v}
	default:
		return StructuredValue{Type: DataTypeString, String: ""}
	}
}
