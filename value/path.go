package value

import (
	"strconv"
	"strings"
)

// Lookup resolves a path such as "a.b[2].c" against v. At every map level
// the longest exact key wins, so keys that contain dots stay addressable.
func Lookup(v Value, path string) (Value, bool) {
	if path == "" {
		return v, true
	}
	switch v.kind {
	case KindArray:
		return lookupIndex(v, path)
	case KindMap:
	default:
		return None(), false
	}
	if e, ok := v.m[path]; ok {
		return e, true
	}
	for i := len(path) - 1; i > 0; i-- {
		var rest string
		switch path[i] {
		case '.':
			rest = path[i+1:]
		case '[':
			rest = path[i:]
		default:
			continue
		}
		head, ok := v.m[path[:i]]
		if !ok {
			continue
		}
		if found, ok := Lookup(head, rest); ok {
			return found, true
		}
	}
	return None(), false
}

// lookupIndex consumes a leading "[i]" segment against an array.
func lookupIndex(v Value, path string) (Value, bool) {
	if path[0] != '[' {
		return None(), false
	}
	end := strings.IndexByte(path, ']')
	if end < 0 {
		return None(), false
	}
	i, err := strconv.Atoi(path[1:end])
	if err != nil || i < 0 || i >= len(v.arr) {
		return None(), false
	}
	rest := path[end+1:]
	switch {
	case rest == "":
		return v.arr[i], true
	case rest[0] == '.':
		rest = rest[1:]
		if rest == "" {
			return None(), false
		}
	case rest[0] != '[':
		return None(), false
	}
	return Lookup(v.arr[i], rest)
}

// Set returns a copy of v with path replaced by item. Intermediate maps are
// created when missing; a non-map along the way is replaced.
func Set(v Value, path string, item Value) Value {
	if path == "" {
		return item
	}
	base := v
	if base.kind != KindMap {
		base = Map(nil)
	}
	m, _ := base.AsMap()
	if _, ok := m[path]; ok {
		m[path] = item
		return Value{kind: KindMap, m: m}
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		m[path] = item
		return Value{kind: KindMap, m: m}
	}
	m[head] = Set(m[head], rest, item)
	return Value{kind: KindMap, m: m}
}
