package solvers

import (
	"strings"

	"github.com/goliatone/go-confmerge/value"
)

type variables struct {
	delimeters *delimiters
}

// NewVariablesSolver will resolve variables
func NewVariablesSolver(s, e string) Solver {
	return &variables{
		delimeters: &delimiters{
			Start: s,
			End:   e,
		},
	}
}

// Solve replaces every resolvable reference. A string that is exactly one
// reference takes the referenced value, type included.
func (s variables) Solve(tree value.Value) (value.Value, error) {
	out, _, err := walk(tree, "", func(_ string, val string) (value.Value, action, error) {
		return s.resolve(tree, val)
	})
	return out, err
}

func (s variables) resolve(tree value.Value, val string) (value.Value, action, error) {
	start, end := s.delimeters.Start, s.delimeters.End
	if start == "" || end == "" || !strings.Contains(val, start) {
		return value.None(), keep, nil
	}

	if path, ok := s.whole(val); ok {
		ref, found := value.Lookup(tree, path)
		if !found {
			return value.None(), keep, nil
		}
		return ref, replace, nil
	}

	var (
		sb      strings.Builder
		changed bool
		rest    = val
	)
	for {
		i := strings.Index(rest, start)
		if i == -1 {
			sb.WriteString(rest)
			break
		}
		j := strings.Index(rest[i+len(start):], end)
		if j == -1 {
			sb.WriteString(rest)
			break
		}
		path := rest[i+len(start) : i+len(start)+j]
		token := rest[i : i+len(start)+j+len(end)]
		sb.WriteString(rest[:i])
		if ref, found := value.Lookup(tree, path); found && path != "" {
			sb.WriteString(ToString(ref))
			changed = true
		} else {
			sb.WriteString(token)
		}
		rest = rest[i+len(token):]
	}

	if !changed {
		return value.None(), keep, nil
	}
	return value.String(sb.String()), replace, nil
}

func (s variables) whole(val string) (string, bool) {
	start, end := s.delimeters.Start, s.delimeters.End
	if !strings.HasPrefix(val, start) || !strings.HasSuffix(val, end) {
		return "", false
	}
	path := val[len(start) : len(val)-len(end)]
	if path == "" || strings.Contains(path, start) || strings.Contains(path, end) {
		return "", false
	}
	return path, true
}
