package induce

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kgraph/corekg/model"
)

var validDataTypes = map[string]model.AttributeDataType{
	"string":   model.DataTypeString,
	"integer":  model.DataTypeInteger,
	"float":    model.DataTypeFloat,
	"boolean":  model.DataTypeBoolean,
	"datetime": model.DataTypeDatetime,
}

// validateProposal validates every proposed node/edge schema, normalizes
// edge schema_name to UPPER_SNAKE_CASE, and splits the result into
// surviving schemas and rejections with a reason.
func validateProposal(raw rawProposal) ([]model.Schema, []model.RejectedSchema) {
	var schemas []model.Schema
	var rejected []model.RejectedSchema

	for _, n := range raw.Nodes {
		s, err := toSchema(n, model.EntityTypeNode)
		if err != nil {
			rejected = append(rejected, model.RejectedSchema{
				SchemaName: n.SchemaName, EntityType: n.EntityType, Reason: err.Error(),
			})
			continue
		}
		schemas = append(schemas, s)
	}

	for _, e := range raw.Edges {
		e.SchemaName = toUpperSnakeCase(e.SchemaName)
		s, err := toSchema(e, model.EntityTypeEdge)
		if err != nil {
			rejected = append(rejected, model.RejectedSchema{
				SchemaName: e.SchemaName, EntityType: e.EntityType, Reason: err.Error(),
			})
			continue
		}
		schemas = append(schemas, s)
	}

	return schemas, rejected
}

func toSchema(r rawSchema, expected model.EntityType) (model.Schema, error) {
	if strings.TrimSpace(r.SchemaName) == "" {
		return model.Schema{}, fmt.Errorf("missing schema_name")
	}

	attrs := make([]model.AttributeDef, 0, len(r.StructuredAttributes))
	for _, a := range r.StructuredAttributes {
		dataType, ok := validDataTypes[strings.ToLower(a.DataType)]
		if !ok {
			return model.Schema{}, fmt.Errorf("attribute %q has invalid data_type %q", a.Name, a.DataType)
		}
		if strings.TrimSpace(a.Name) == "" {
			return model.Schema{}, fmt.Errorf("attribute with empty name")
		}
		if err := validateConstraints(dataType, a.Constraints); err != nil {
			return model.Schema{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}

		attrs = append(attrs, model.AttributeDef{
			Name:        a.Name,
			DataType:    dataType,
			Required:    a.Required,
			Constraints: a.Constraints,
		})
	}

	return model.Schema{
		SchemaName:           r.SchemaName,
		EntityType:           expected,
		StructuredAttributes: attrs,
		Description:          r.Notes,
	}, nil
}

func validateConstraints(dataType model.AttributeDataType, c *model.AttributeConstraints) error {
	if c == nil {
		return nil
	}

	switch dataType {
	case model.DataTypeInteger, model.DataTypeFloat:
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			return fmt.Errorf("min %.2f exceeds max %.2f", *c.Min, *c.Max)
		}
	case model.DataTypeString:
		if c.MinLength != nil && c.MaxLength != nil && *c.MinLength > *c.MaxLength {
			return fmt.Errorf("min_length %d exceeds max_length %d", *c.MinLength, *c.MaxLength)
		}
		if c.Pattern != "" {
			if _, err := regexp.Compile(c.Pattern); err != nil {
				return fmt.Errorf("invalid pattern: %w", err)
			}
		}
	default:
		if c.Min != nil || c.Max != nil || c.Pattern != "" || len(c.Enum) > 0 || c.MinLength != nil || c.MaxLength != nil {
			return fmt.Errorf("constraints not supported for data_type %q", dataType)
		}
	}

	return nil
}

// toUpperSnakeCase normalizes an edge schema_name like "works at" or
// "worksAt" to "WORKS_AT".
func toUpperSnakeCase(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder

	for i, r := range name {
		switch {
		case r == ' ' || r == '-' || r == '_':
			if b.Len() > 0 && b.String()[b.Len()-1] != '_' {
				b.WriteByte('_')
			}
		case r >= 'A' && r <= 'Z':
			if i > 0 && b.Len() > 0 && b.String()[b.Len()-1] != '_' {
				prev := rune(name[i-1])
				if prev >= 'a' && prev <= 'z' {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	return strings.ToUpper(strings.Trim(b.String(), "_"))
}
