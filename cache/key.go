package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Params are the logical parameters of a request that identify its result
type Params map[string]any

// Key derives a stable cache key from a feature prefix and request parameters.
// encoding/json writes map keys in sorted order, and string slices are
// lowercased, de-duplicated and sorted before hashing, so field order,
// interest order and repeated interests never change the key.
func Key(prefix string, params Params) string {
	h := sha256.New()
	data, _ := json.Marshal(normalize(params))
	h.Write(data)
	return fmt.Sprintf("%s:%x", prefix, h.Sum(nil))
}

func normalize(params Params) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case []string:
			seen := make(map[string]bool, len(val))
			sorted := make([]string, 0, len(val))
			for _, s := range val {
				s = strings.ToLower(strings.TrimSpace(s))
				if seen[s] {
					continue
				}
				seen[s] = true
				sorted = append(sorted, s)
			}
			sort.Strings(sorted)
			out[k] = sorted
		case string:
			out[k] = strings.TrimSpace(val)
		case Params:
			out[k] = normalize(val)
		case map[string]any:
			out[k] = normalize(val)
		default:
			out[k] = v
		}
	}
	return out
}
