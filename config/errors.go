package config

import (
	"github.com/goliatone/go-errors"
)

// ErrorPrefix starts every ConfigError message.
const ErrorPrefix = "[CONFIG][ERROR]"

// ErrorKind is the closed set of failure kinds.
type ErrorKind int

const (
	KindDuplicateKey ErrorKind = iota + 1
	KindFile
	KindJSON
	KindYAML
	KindTOML
	KindEnv
	KindParse
	KindBuild
	KindSerde
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicateKey:
		return "Duplicate key"
	case KindFile:
		return "File error"
	case KindJSON:
		return "Json parsing error"
	case KindYAML:
		return "Yaml parsing error"
	case KindTOML:
		return "Toml parsing error"
	case KindEnv:
		return "Env parsing error"
	case KindParse:
		return "Parsing error"
	case KindBuild:
		return "Failed building config"
	case KindSerde:
		return "Deserialization error"
	default:
		return "Unknown error"
	}
}

func (k ErrorKind) category() errors.Category {
	switch k {
	case KindDuplicateKey:
		return errors.CategoryConflict
	case KindFile:
		return errors.CategoryOperation
	case KindJSON, KindYAML, KindTOML, KindEnv, KindParse:
		return errors.CategoryBadInput
	case KindSerde:
		return errors.CategoryValidation
	default:
		return errors.CategoryOperation
	}
}

func (k ErrorKind) textCode() string {
	switch k {
	case KindDuplicateKey:
		return "DUPLICATE_KEY"
	case KindFile:
		return "FILE_READ_FAILED"
	case KindJSON:
		return "JSON_PARSE_FAILED"
	case KindYAML:
		return "YAML_PARSE_FAILED"
	case KindTOML:
		return "TOML_PARSE_FAILED"
	case KindEnv:
		return "ENV_PARSE_FAILED"
	case KindParse:
		return "PARSE_FAILED"
	case KindSerde:
		return "DESERIALIZATION_FAILED"
	default:
		return "BUILD_FAILED"
	}
}

// ConfigError is the single error type returned by Config. Err holds a
// go-errors payload with category, text code and metadata. Path is the file
// for file and parse failures, and the field path for deserialization ones.
type ConfigError struct {
	Kind   ErrorKind
	Key    string
	Path   string
	Detail string
	Err    error
	cause  error
}

var (
	ErrDuplicateKey = &ConfigError{Kind: KindDuplicateKey}
	ErrFile         = &ConfigError{Kind: KindFile}
	ErrJSON         = &ConfigError{Kind: KindJSON}
	ErrYAML         = &ConfigError{Kind: KindYAML}
	ErrTOML         = &ConfigError{Kind: KindTOML}
	ErrEnv          = &ConfigError{Kind: KindEnv}
	ErrParse        = &ConfigError{Kind: KindParse}
	ErrBuild        = &ConfigError{Kind: KindBuild}
	ErrSerde        = &ConfigError{Kind: KindSerde}
)

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	return ErrorPrefix + " " + e.Kind.String() + ": " + e.Detail
}

func (e *ConfigError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, 2)
	if e.Err != nil {
		out = append(out, e.Err)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// Is matches any ConfigError of the same kind, so the exported sentinels
// work with errors.Is.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

func newConfigError(kind ErrorKind, detail string, cause error, meta map[string]any) *ConfigError {
	var payload *errors.Error
	if cause != nil {
		payload = errors.Wrap(cause, kind.category(), detail)
	} else {
		payload = errors.New(detail, kind.category())
	}
	payload = payload.WithTextCode(kind.textCode())
	if len(meta) > 0 {
		payload = payload.WithMetadata(meta)
	}

	ce := &ConfigError{Kind: kind, Detail: detail, Err: payload, cause: cause}
	if key, ok := meta["key"].(string); ok {
		ce.Key = key
	}
	if path, ok := meta["path"].(string); ok {
		ce.Path = path
	}
	return ce
}

func duplicateKeyError(key, source string) *ConfigError {
	return newConfigError(KindDuplicateKey, key, nil, map[string]any{
		"key":    key,
		"source": source,
	})
}

func fileError(path string, cause error) *ConfigError {
	return newConfigError(KindFile, cause.Error(), cause, map[string]any{
		"path": path,
	})
}

func formatError(format Format, path string, cause error) *ConfigError {
	detail := cause.Error()
	if path != "" {
		detail = path + ": " + detail
	}
	return newConfigError(format.errorKind(), detail, cause, map[string]any{
		"path":   path,
		"format": format.String(),
	})
}
