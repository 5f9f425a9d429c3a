package rtdb

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// Snapshot is an immutable read of one path.
type Snapshot struct {
	path  []string
	value any
}

func newSnapshot(segs []string, value any) Snapshot {
	return Snapshot{path: segs, value: clone(value)}
}

func (s Snapshot) Path() string {
	return strings.Join(s.path, "/")
}

// Key is the last path segment.
func (s Snapshot) Key() string {
	if len(s.path) == 0 {
		return ""
	}
	return s.path[len(s.path)-1]
}

func (s Snapshot) Exists() bool {
	return s.value != nil
}

func (s Snapshot) Value() any {
	return clone(s.value)
}

func (s Snapshot) Int() int64 {
	return Int(s.value)
}

// Decode fills dst from the snapshot. A missing value leaves dst untouched.
func (s Snapshot) Decode(dst any) error {
	if s.value == nil {
		return nil
	}

	data, err := json.Marshal(s.value)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dst)
}

// Children lists child snapshots ordered by key.
func (s Snapshot) Children() []Snapshot {
	m := Map(s.value)
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	children := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		children = append(children, newSnapshot(joinSegs(s.path, []string{k}), m[k]))
	}
	return children
}

func (s Snapshot) Equal(other Snapshot) bool {
	a, errA := json.Marshal(s.value)
	b, errB := json.Marshal(other.value)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}
