package construct

import (
	"fmt"
	"sort"
	"strings"
)

// jsonStable renders data as a deterministic key-sorted string so that
// identical structured_data always embeds to the same vector, satisfying
// spec.md §4.4 step 6's "embed json_stable(structured_data)" requirement
// without depending on Go map iteration order.
func jsonStable(data map[string]interface{}) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%q:%q", k, fmt.Sprintf("%v", data[k]))
	}
	b.WriteByte('}')
	return b.String()
}
