// Package solvers resolves references embedded in string leaves of a merged
// configuration tree: ${path} variables, @proto:// URIs and {{ expr }}
// expressions.
package solvers

import (
	"strconv"

	"github.com/goliatone/go-confmerge/value"
)

// Solver rewrites a tree and returns the result. Solvers never mutate their
// input.
type Solver interface {
	Solve(tree value.Value) (value.Value, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(value.Value) (value.Value, error)

func (f SolverFunc) Solve(tree value.Value) (value.Value, error) { return f(tree) }

// ToString renders a leaf for embedding into a larger string. Strings are
// used verbatim.
func ToString(v value.Value) string {
	if s, err := v.AsString(); err == nil {
		return s
	}
	if v.IsNone() {
		return ""
	}
	return v.String()
}

type delimiters struct {
	Start string
	End   string
}

type action int

const (
	keep action = iota
	replace
	remove
)

// leafFunc inspects one string leaf at path.
type leafFunc func(path string, s string) (value.Value, action, error)

// walk applies fn to every string leaf of tree. Removed map entries are
// deleted; removed array items become None so indexes stay stable.
func walk(tree value.Value, path string, fn leafFunc) (value.Value, action, error) {
	switch tree.Kind() {
	case value.KindString:
		s, _ := tree.AsString()
		return fn(path, s)
	case value.KindArray:
		items, _ := tree.AsArray()
		changed := false
		for i, item := range items {
			out, act, err := walk(item, path+"["+strconv.Itoa(i)+"]", fn)
			if err != nil {
				return tree, keep, err
			}
			switch act {
			case replace:
				items[i] = out
				changed = true
			case remove:
				items[i] = value.None()
				changed = true
			}
		}
		if !changed {
			return tree, keep, nil
		}
		return value.Array(items...), replace, nil
	case value.KindMap:
		entries, _ := tree.AsMap()
		changed := false
		for _, k := range tree.Keys() {
			child := k
			if path != "" {
				child = path + "." + k
			}
			out, act, err := walk(entries[k], child, fn)
			if err != nil {
				return tree, keep, err
			}
			switch act {
			case replace:
				entries[k] = out
				changed = true
			case remove:
				delete(entries, k)
				changed = true
			}
		}
		if !changed {
			return tree, keep, nil
		}
		return value.Map(entries), replace, nil
	default:
		return tree, keep, nil
	}
}

// Apply runs every solver in order, repeating the whole chain until the tree
// stops changing or passes is reached.
func Apply(tree value.Value, passes int, slvrs ...Solver) (value.Value, error) {
	if passes < 1 {
		passes = 1
	}
	for pass := 0; pass < passes; pass++ {
		before := tree
		for _, s := range slvrs {
			if s == nil {
				continue
			}
			out, err := s.Solve(tree)
			if err != nil {
				return value.None(), err
			}
			tree = out
		}
		if tree.Equal(before) {
			break
		}
	}
	return tree, nil
}
