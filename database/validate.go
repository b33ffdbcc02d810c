package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kgraph/corekg/helper"
	"github.com/kgraph/corekg/model"
)

var validate = validator.New()

// ValidateStructuredData applies the four validation rules of the
// persistence layer (§4.1) to candidate against schema, used identically
// by NodesDBHandler.CreateNode and EdgesDBHandler.CreateEdge. It returns a
// SchemaValidationError (missing required attribute or violated
// constraint) or an AttributeTypeError (value not coercible to the
// declared type), naming the first offending attribute.
func ValidateStructuredData(schema *model.Schema, candidate map[string]interface{}) (model.StructuredData, error) {
	out := make(model.StructuredData, len(candidate))

	for _, attr := range schema.StructuredAttributes {
		raw, present := candidate[attr.Name]
		if !present || raw == nil {
			if attr.Required {
				return nil, helper.NewKindError(
					"validate structured data",
					helper.ErrSchemaValidation,
					fmt.Errorf("attribute %q is required", attr.Name),
				)
			}
			continue
		}

		value, err := coerce(attr.DataType, raw)
		if err != nil {
			return nil, helper.NewKindError(
				"validate structured data",
				helper.ErrAttributeType,
				fmt.Errorf("attribute %q: %w", attr.Name, err),
			)
		}

		if err := checkConstraints(attr, value); err != nil {
			return nil, helper.NewKindError(
				"validate structured data",
				helper.ErrSchemaValidation,
				fmt.Errorf("attribute %q: %w", attr.Name, err),
			)
		}

		out[attr.Name] = value
	}

	// Unknown keys (rule 4) are preserved as best-effort typed values.
	for k, raw := range candidate {
		if _, declared := schema.AttributeByName(k); declared {
			continue
		}
		out[k] = inferLooseValue(raw)
	}

	return out, nil
}

// coerce converts raw into the declared data_type, accepting the loose
// on-write coercions rule 2 calls for ("30" → 30, "true" → true).
func coerce(dataType model.AttributeDataType, raw interface{}) (model.StructuredValue, error) {
	switch dataType {
	case model.DataTypeString:
		switch v := raw.(type) {
		case string:
			return model.StructuredValue{Type: model.DataTypeString, String: v}, nil
		default:
			return model.StructuredValue{Type: model.DataTypeString, String: fmt.Sprintf("%v", v)}, nil
		}
	case model.DataTypeInteger:
		switch v := raw.(type) {
		case int64:
			return model.StructuredValue{Type: model.DataTypeInteger, Integer: v}, nil
		case int:
			return model.StructuredValue{Type: model.DataTypeInteger, Integer: int64(v)}, nil
		case float64:
			if v != float64(int64(v)) {
				return model.StructuredValue{}, fmt.Errorf("value %v is not an integer", v)
			}
			return model.StructuredValue{Type: model.DataTypeInteger, Integer: int64(v)}, nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return model.StructuredValue{}, fmt.Errorf("cannot coerce %q to integer", v)
			}
			return model.StructuredValue{Type: model.DataTypeInteger, Integer: n}, nil
		default:
			return model.StructuredValue{}, fmt.Errorf("cannot coerce %T to integer", raw)
		}
	case model.DataTypeFloat:
		switch v := raw.(type) {
		case float64:
			return model.StructuredValue{Type: model.DataTypeFloat, Float: v}, nil
		case int64:
			return model.StructuredValue{Type: model.DataTypeFloat, Float: float64(v)}, nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return model.StructuredValue{}, fmt.Errorf("cannot coerce %q to float", v)
			}
			return model.StructuredValue{Type: model.DataTypeFloat, Float: f}, nil
		default:
			return model.StructuredValue{}, fmt.Errorf("cannot coerce %T to float", raw)
		}
	case model.DataTypeBoolean:
		switch v := raw.(type) {
		case bool:
			return model.StructuredValue{Type: model.DataTypeBoolean, Bool: v}, nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return model.StructuredValue{}, fmt.Errorf("cannot coerce %q to boolean", v)
			}
			return model.StructuredValue{Type: model.DataTypeBoolean, Bool: b}, nil
		default:
			return model.StructuredValue{}, fmt.Errorf("cannot coerce %T to boolean", raw)
		}
	case model.DataTypeDatetime:
		switch v := raw.(type) {
		case time.Time:
			return model.StructuredValue{Type: model.DataTypeDatetime, Datetime: v}, nil
		case string:
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return model.StructuredValue{}, fmt.Errorf("cannot coerce %q to datetime: %w", v, err)
			}
			return model.StructuredValue{Type: model.DataTypeDatetime, Datetime: t}, nil
		default:
			return model.StructuredValue{}, fmt.Errorf("cannot coerce %T to datetime", raw)
		}
	default:
		return model.StructuredValue{}, fmt.Errorf("unknown data_type %q", dataType)
	}
}

// checkConstraints enforces rule 3: numeric min/max, string min_length/
// max_length/pattern/enum.
func checkConstraints(attr model.AttributeDef, value model.StructuredValue) error {
	c := attr.Constraints
	if c == nil {
		return nil
	}

	switch value.Type {
	case model.DataTypeInteger:
		f := float64(value.Integer)
		if c.Min != nil && f < *c.Min {
			return validate.Var(f, fmt.Sprintf("gte=%f", *c.Min))
		}
		if c.Max != nil && f > *c.Max {
			return validate.Var(f, fmt.Sprintf("lte=%f", *c.Max))
		}
	case model.DataTypeFloat:
		if c.Min != nil && value.Float < *c.Min {
			return validate.Var(value.Float, fmt.Sprintf("gte=%f", *c.Min))
		}
		if c.Max != nil && value.Float > *c.Max {
			return validate.Var(value.Float, fmt.Sprintf("lte=%f", *c.Max))
		}
	case model.DataTypeString:
		if c.MinLength != nil {
			if err := validate.Var(value.String, fmt.Sprintf("min=%d", *c.MinLength)); err != nil {
				return err
			}
		}
		if c.MaxLength != nil {
			if err := validate.Var(value.String, fmt.Sprintf("max=%d", *c.MaxLength)); err != nil {
				return err
			}
		}
		if c.Pattern != "" {
			re, err := regexp.Compile(c.Pattern)
			if err != nil {
				return fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
			}
			if !re.MatchString(value.String) {
				return fmt.Errorf("value %q does not match pattern %q", value.String, c.Pattern)
			}
		}
		if len(c.Enum) > 0 {
			if err := validate.Var(value.String, "oneof="+strings.Join(c.Enum, " ")); err != nil {
				return fmt.Errorf("value %q not in enum %v", value.String, c.Enum)
			}
		}
	}

	return nil
}

func inferLooseValue(raw interface{}) model.StructuredValue {
	switch v := raw.(type) {
	case string:
		return model.StructuredValue{Type: model.DataTypeString, String: v}
	case bool:
		return model.StructuredValue{Type: model.DataTypeBoolean, Bool: v}
	case int64:
		return model.StructuredValue{Type: model.DataTypeInteger, Integer: v}
	case float64:
		if v == float64(int64(v)) {
			return model.StructuredValue{Type: model.DataTypeInteger, Integer: int64(v)}
		}
		return model.StructuredValue{Type: model.DataTypeFloat, Float: v}
	default:
		return model.StructuredValue{Type: model.DataTypeString, String: fmt.Sprintf("%v", v)}
	}
}

// CanonicalKey computes the canonical key of a candidate entity, used for
// node deduplication in Stage B (step 5): the value of the schema's first
// required string attribute, case-folded and whitespace-normalized.
func CanonicalKey(schema *model.Schema, candidate map[string]interface{}) (string, bool) {
	for _, attr := range schema.RequiredAttributes() {
		if attr.DataType != model.DataTypeString {
			continue
		}
		raw, ok := candidate[attr.Name]
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		return strings.ToLower(strings.Join(strings.Fields(s), " ")), true
	}
	return "", false
}
