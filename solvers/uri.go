package solvers

import (
	"encoding/base64"
	"io/fs"
	"os"
	"strings"

	"github.com/goliatone/go-confmerge/value"
)

type uris struct {
	fs         fs.FS
	delimeters *delimiters
}

// NewURISolver resolves @file:// and @base64:// values relative to the
// working directory.
func NewURISolver(s, e string) Solver {
	return NewURISolverWithFS(s, e, os.DirFS("."))
}

func NewURISolverWithFS(s, e string, f fs.FS) Solver {
	return &uris{
		fs: f,
		delimeters: &delimiters{
			Start: s,
			End:   e,
		},
	}
}

// Solve replaces whole-string URIs with the content they point at. URIs
// that cannot be resolved are left as they are.
func (s uris) Solve(tree value.Value) (value.Value, error) {
	out, _, err := walk(tree, "", func(_ string, val string) (value.Value, action, error) {
		return s.resolve(val)
	})
	return out, err
}

func (s uris) resolve(val string) (value.Value, action, error) {
	if !strings.HasPrefix(val, s.delimeters.Start) {
		return value.None(), keep, nil
	}

	rest := val[len(s.delimeters.Start):]
	protocol, uri, found := strings.Cut(rest, s.delimeters.End)
	if !found {
		return value.None(), keep, nil
	}

	var (
		content string
		err     error
	)
	switch protocol {
	case "file":
		content, err = SolveFileProtocol(s.fs, uri)
	case "base64":
		content, err = SolveBase64DecodeProtocol(s.fs, uri)
	default:
		return value.None(), keep, nil
	}
	if err != nil {
		return value.None(), keep, nil
	}
	return value.String(content), replace, nil
}

func SolveFileProtocol(f fs.FS, uri string) (string, error) {
	content := ""
	b, err := fs.ReadFile(f, uri)
	if err == nil {
		content = string(b)
		content = strings.TrimRight(content, "\n")
	}
	return content, err
}

func SolveBase64DecodeProtocol(_ fs.FS, uri string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(uri)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
