package graphmirror

import (
	"testing"

	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
)

func TestDirectionPattern(t *testing.T) {
	assert.Equal(t, "-[*1..2]->", directionPattern(DirectionOutgoing, 2))
	assert.Equal(t, "<-[*1..2]-", directionPattern(DirectionIncoming, 2))
	assert.Equal(t, "-[*1..2]-", directionPattern(DirectionBoth, 2))
	assert.Equal(t, "-[*1..3]->", directionPattern(DirectionOutgoing, 3))
}

func TestItoa(t *testing.T) {
	assert.Equal(t, "0", itoa(0))
	assert.Equal(t, "2", itoa(2))
	assert.Equal(t, "42", itoa(42))
}

func TestFlattenStructuredValues(t *testing.T) {
	data := model.StructuredData{
		"name": {Type: model.DataTypeString, String: "Alice"},
		"age":  {Type: model.DataTypeInteger, Integer: 30},
	}
	out := flattenStructuredValues(data)
	assert.Equal(t, "Alice", out["name"])
	assert.Equal(t, int64(30), out["age"])
}
