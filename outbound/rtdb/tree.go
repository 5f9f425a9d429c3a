package rtdb

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ServerValue is a placeholder resolved by the store when a write commits.
type ServerValue string

// ServerTimestamp is replaced with the Redis server clock in milliseconds.
const ServerTimestamp ServerValue = "timestamp"

func splitPath(path string) ([]string, error) {
	segs := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	for _, seg := range segs {
		if !validKey(seg) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}

	return segs, nil
}

func validKey(seg string) bool {
	return seg != "" && seg != wildcard && !strings.ContainsAny(seg, "/.#$[]")
}

func joinSegs(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

// overlaps reports whether a write at one path can change data seen at the other.
func overlaps(a, b []string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func getAt(node any, segs []string) any {
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[seg]
		if node == nil {
			return nil
		}
	}
	return node
}

// setAt places value below node and returns the new node. A nil value removes
// the child and maps left empty disappear with it.
func setAt(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return prune(value)
	}

	m, ok := node.(map[string]any)
	if !ok {
		if value == nil {
			return node
		}
		m = make(map[string]any)
	}

	next := setAt(m[segs[0]], segs[1:], value)
	if next == nil {
		delete(m, segs[0])
	} else {
		m[segs[0]] = next
	}

	if len(m) == 0 {
		return nil
	}
	return m
}

func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	for k, child := range m {
		if p := prune(child); p == nil {
			delete(m, k)
		} else {
			m[k] = p
		}
	}

	if len(m) == 0 {
		return nil
	}
	return m
}

// normalize turns a Go value into the generic JSON tree stored in a document,
// keeping ServerValue placeholders intact.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case ServerValue, string, bool, float64:
		return t, nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			n, err := normalize(child)
			if err != nil {
				return nil, err
			}
			if n != nil {
				out[k] = n
			}
		}
		return prune(out), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	return prune(out), nil
}

func containsServerValue(v any) bool {
	switch t := v.(type) {
	case ServerValue:
		return true
	case map[string]any:
		for _, child := range t {
			if containsServerValue(child) {
				return true
			}
		}
	}
	return false
}

func resolve(v any, nowMillis int64) any {
	switch t := v.(type) {
	case ServerValue:
		return float64(nowMillis)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = resolve(child, nowMillis)
		}
		return out
	}
	return v
}

func clone(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	out := make(map[string]any, len(m))
	for k, child := range m {
		out[k] = clone(child)
	}
	return out
}

// Int reads a numeric tree value, treating anything else as zero.
func Int(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case int:
		return int64(t)
	}
	return 0
}

// Map returns the children of an object value, or nil for leaves.
func Map(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
