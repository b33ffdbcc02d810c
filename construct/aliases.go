package construct

import (
	"strings"

	"github.com/kgraph/corekg/model"
)

// LabelAliasTable maps an NER label (e.g. "PER") to a node schema_name
// (e.g. "Person") for the cases where the NER model's label vocabulary
// doesn't already equal a project's schema names.
type LabelAliasTable map[string]string

// DefaultLabelAliasTable is the alias table spec.md §4.4 step 4 names as
// the example mapping for a distilbert-NER-class backend.
func DefaultLabelAliasTable() LabelAliasTable {
	return LabelAliasTable{
		"PER": "Person",
		"ORG": "Organization",
		"LOC": "Location",
	}
}

// matchSchema maps an NER label to one of nodeSchemas: first an exact
// case-insensitive match on schema_name, then the alias table. Returns nil
// if neither matches (the label is dropped and counted).
func matchSchema(nodeSchemas []*model.Schema, label string, aliases LabelAliasTable) *model.Schema {
	for _, s := range nodeSchemas {
		if strings.EqualFold(s.SchemaName, label) {
			return s
		}
	}

	if aliased, ok := aliases[strings.ToUpper(label)]; ok {
		for _, s := range nodeSchemas {
			if strings.EqualFold(s.SchemaName, aliased) {
				return s
			}
		}
	}

	return nil
}
