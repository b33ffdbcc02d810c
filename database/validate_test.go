package database

import (
	"testing"

	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personSchemaFixture() *model.Schema {
	minAge := 0.0
	maxAge := 150.0
	return &model.Schema{
		SchemaName: "PERSON",
		EntityType: model.EntityTypeNode,
		StructuredAttributes: []model.AttributeDef{
			{Name: "full_name", DataType: model.DataTypeString, Required: true},
			{
				Name: "age", DataType: model.DataTypeInteger, Required: false,
				Constraints: &model.AttributeConstraints{Min: &minAge, Max: &maxAge},
			},
			{
				Name: "role", DataType: model.DataTypeString, Required: false,
				Constraints: &model.AttributeConstraints{Enum: []string{"engineer", "manager"}},
			},
		},
	}
}

func TestValidateStructuredDataRequiredAttributeMissing(t *testing.T) {
	_, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{})
	require.Error(t, err)
	assert.True(t, helper.IsKind(err, helper.ErrSchemaValidation))
}

func TestValidateStructuredDataCoercesLooseTypes(t *testing.T) {
	out, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{
		"full_name": "Alice Chen",
		"age":       "30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Chen", out["full_name"].Raw())
	assert.Equal(t, int64(30), out["age"].Raw())
}

func TestValidateStructuredDataRejectsOutOfRangeConstraint(t *testing.T) {
	_, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{
		"full_name": "Alice Chen",
		"age":       200,
	})
	require.Error(t, err)
	assert.True(t, helper.IsKind(err, helper.ErrSchemaValidation))
}

func TestValidateStructuredDataRejectsValueOutsideEnum(t *testing.T) {
	_, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{
		"full_name": "Alice Chen",
		"role":      "intern",
	})
	require.Error(t, err)
}

func TestValidateStructuredDataRejectsUncoercibleType(t *testing.T) {
	_, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{
		"full_name": "Alice Chen",
		"age":       "not-a-number",
	})
	require.Error(t, err)
	assert.True(t, helper.IsKind(err, helper.ErrAttributeType))
}

func TestValidateStructuredDataPreservesUnknownKeys(t *testing.T) {
	out, err := ValidateStructuredData(personSchemaFixture(), map[string]interface{}{
		"full_name": "Alice Chen",
		"nickname":  "Ace",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ace", out["nickname"].Raw())
}

func TestCanonicalKeyNormalizesWhitespaceAndCase(t *testing.T) {
	key, ok := CanonicalKey(personSchemaFixture(), map[string]interface{}{
		"full_name": "  Alice   Chen  ",
	})
	require.True(t, ok)
	assert.Equal(t, "alice chen", key)
}

func TestCanonicalKeyFalseWhenNoRequiredStringAttribute(t *testing.T) {
	schema := &model.Schema{
		StructuredAttributes: []model.AttributeDef{
			{Name: "age", DataType: model.DataTypeInteger, Required: true},
		},
	}
	_, ok := CanonicalKey(schema, map[string]interface{}{"age": 30})
	assert.False(t, ok)
}
