package quatt

import (
	"strconv"
	"strings"
)

// Feed is a decoded controller response: nested objects, arrays and scalars.
type Feed map[string]any

// Value walks a dot separated path such as "hp1.temperatureOutside" or
// "heatPumps.0.oduType". Array elements are addressed by index.
func (f Feed) Value(path string) (any, bool) {
	if f == nil || path == "" {
		return nil, false
	}

	var current any = map[string]any(f)
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case Feed:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			index, err := strconv.Atoi(part)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}
			current = node[index]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// Has reports whether path resolves to a non-null value.
func (f Feed) Has(path string) bool {
	_, ok := f.Value(path)
	return ok
}

// Len returns the length of the array at path, or 0.
func (f Feed) Len(path string) int {
	value, ok := f.Value(path)
	if !ok {
		return 0
	}
	if list, ok := value.([]any); ok {
		return len(list)
	}
	return 0
}
