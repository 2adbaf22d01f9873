package scraper

import (
	"fmt"
	"strconv"
	"strings"
)

// lookupPath resolves a dot-path (e.g. "company.display_name" or
// "tags.0.name") against a decoded JSON value (map[string]any / []any /
// scalars). Used by the api strategy to map its opaque field_paths config
// onto each listing object.
func lookupPath(v any, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[seg]
			if !ok {
				return "", false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return "", false
			}
			cur = node[idx]
		default:
			return "", false
		}
	}
	return toString(cur), cur != nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// extractList resolves a dot-path to a []any within a decoded JSON document,
// the api strategy's list_path.
func extractList(v any, path string) ([]any, bool) {
	if path == "" {
		list, ok := v.([]any)
		return list, ok
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	list, ok := cur.([]any)
	return list, ok
}
