package config

import (
	"sort"
	"strings"

	"github.com/goliatone/go-confmerge/value"
)

// accumulator is an insertion ordered key/value set. Config treats it as
// immutable: every mutation happens on a clone.
type accumulator struct {
	keys    []string
	entries map[string]value.Value
}

func newAccumulator() *accumulator {
	return &accumulator{entries: map[string]value.Value{}}
}

func (a *accumulator) clone() *accumulator {
	out := &accumulator{
		keys:    make([]string, len(a.keys), len(a.keys)+8),
		entries: make(map[string]value.Value, len(a.entries)),
	}
	copy(out.keys, a.keys)
	for k, v := range a.entries {
		out.entries[k] = v
	}
	return out
}

func (a *accumulator) len() int { return len(a.keys) }

func (a *accumulator) has(key string) bool {
	_, ok := a.entries[key]
	return ok
}

func (a *accumulator) get(key string) (value.Value, bool) {
	v, ok := a.entries[key]
	return v, ok
}

// insert adds key. With overwrite off an existing key is rejected and false
// is returned. A replaced key keeps its original position.
func (a *accumulator) insert(key string, v value.Value, overwrite bool) bool {
	if _, exists := a.entries[key]; exists {
		if !overwrite {
			return false
		}
		a.entries[key] = v
		return true
	}
	a.keys = append(a.keys, key)
	a.entries[key] = v
	return true
}

// retainPrefix returns the entries whose key starts with prefix.
func (a *accumulator) retainPrefix(prefix string) *accumulator {
	out := newAccumulator()
	for _, k := range a.keys {
		if strings.HasPrefix(k, prefix) {
			out.insert(k, a.entries[k], false)
		}
	}
	return out
}

type entry struct {
	key   string
	value value.Value
}

// sortedEntries orders a map-shaped source by key so duplicate detection
// does not depend on map iteration.
func sortedEntries(m map[string]value.Value) []entry {
	out := make([]entry, 0, len(m))
	for k, v := range m {
		out = append(out, entry{key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}
