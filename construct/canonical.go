package construct

import (
	"sync"

	"github.com/google/uuid"
)

// canonicalEntity is one deduplicated entity candidate within a document:
// the schema it was matched against, its canonical key, and the merged
// structured/unstructured data accumulated across every chunk mention.
type canonicalEntity struct {
	schemaID         uuid.UUID
	schemaName       string
	key              string
	structuredData   map[string]interface{}
	unstructuredData map[string]interface{}
}

// canonicalIndex deduplicates entity candidates within a document by
// (schema_id, canonical_key), implementing spec.md §4.4 step 5: on
// conflict in other attributes, first write wins; subsequent values are
// appended to unstructured_data.alternate_values[attribute_name].
type canonicalIndex struct {
	mu      sync.Mutex
	byKey   map[string]*canonicalEntity
}

func newCanonicalIndex() *canonicalIndex {
	return &canonicalIndex{byKey: make(map[string]*canonicalEntity)}
}

// merge folds candidate into the entity identified by (schemaID, key),
// creating it on first sight, and returns the merged entity's current
// state.
func (idx *canonicalIndex) merge(schemaID uuid.UUID, schemaName, key string, candidate map[string]interface{}) canonicalEntity {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	mapKey := schemaID.String() + "|" + key
	existing, ok := idx.byKey[mapKey]
	if !ok {
		existing = &canonicalEntity{
			schemaID:         schemaID,
			schemaName:       schemaName,
			key:              key,
			structuredData:   map[string]interface{}{},
			unstructuredData: map[string]interface{}{},
		}
		idx.byKey[mapKey] = existing
	}

	for k, v := range candidate {
		if _, has := existing.structuredData[k]; !has {
			existing.structuredData[k] = v
			continue
		}
		if existing.structuredData[k] == v {
			continue
		}

		alternates, _ := existing.unstructuredData["alternate_values"].(map[string]interface{})
		if alternates == nil {
			alternates = map[string]interface{}{}
			existing.unstructuredData["alternate_values"] = alternates
		}
		list, _ := alternates[k].([]interface{})
		alternates[k] = append(list, v)
	}

	return *existing
}
