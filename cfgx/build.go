package cfgx

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-confmerge/value"
	"github.com/mitchellh/copystructure"
)

func init() {
	// Values are immutable, sharing them is a valid copy.
	copystructure.Copiers[valueType] = func(v any) (any, error) {
		return v, nil
	}
}

const (
	stageDefaults   = "defaults"
	stagePreprocess = "preprocess"
	stageDecode     = "decode"
	stageValidate   = "validate"
)

var (
	// ErrDefaults wraps failures when generating or cloning default config instances.
	ErrDefaults = errors.New("cfgx: defaults stage failed")
	// ErrPreprocess wraps failures while executing preprocessors before decoding.
	ErrPreprocess = errors.New("cfgx: preprocess stage failed")
	// ErrDecode wraps materialization failures; the cause is a *DecodeError.
	ErrDecode = errors.New("cfgx: decode stage failed")
	// ErrValidate wraps validator-reported errors.
	ErrValidate = errors.New("cfgx: validate stage failed")
	// ErrOption indicates a misconfigured builder option (e.g., duplicate validator).
	ErrOption = errors.New("cfgx: option configuration failed")
)

// StageError describes a failure in a specific build stage along with contextual metadata.
type StageError struct {
	Stage string
	Base  error
	Err   error
	Meta  map[string]any
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether the target matches either the stage sentinel or wrapped error.
func (e *StageError) Is(target error) bool {
	if e == nil {
		return target == nil
	}
	if errors.Is(e.Base, target) {
		return true
	}
	return errors.Is(e.Err, target)
}

func stageError(stage string, base, err error, meta map[string]any) error {
	if err == nil {
		return nil
	}
	return &StageError{
		Stage: stage,
		Base:  base,
		Err:   err,
		Meta:  meta,
	}
}

// builder holds Build state and user-supplied options.
type builder[T any] struct {
	input         value.Value
	defaults      func() (T, error)
	preprocessors []Preprocessor
	decodeHooks   []mapstructure.DecodeHookFunc
	tagName       string
	strictKeys    bool
	validator     Validator[T]
	useHookSet    bool
	optionErr     error
}

func newBuilder[T any](input value.Value) *builder[T] {
	return &builder[T]{
		input:      input,
		tagName:    DefaultTagName,
		useHookSet: true,
	}
}

// Build materializes input into T, running defaults, preprocessors, the strict
// decoder and the validator in that order. When any stage fails, the returned
// error wraps one of the ErrDefaults/ErrPreprocess/ErrDecode/ErrValidate
// sentinels so callers can branch via errors.Is while still reaching the
// StageError and DecodeError details via errors.As. No partial result is
// returned on failure.
func Build[T any](input value.Value, opts ...Option[T]) (T, error) {
	b := newBuilder[T](input)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(b)
	}
	if b.optionErr != nil {
		var zero T
		return zero, b.optionErr
	}
	return b.build()
}

// Decode materializes input into out, which must be a non-nil pointer. It
// uses the default tag name and hook set.
func Decode(input value.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: decode target must be a non-nil pointer, got %T", ErrOption, out)
	}
	d := &decoder{tagName: DefaultTagName, hook: composeHooks(true, nil)}
	if err := d.decode("", input, rv.Elem(), false); err != nil {
		return stageError(stageDecode, ErrDecode, err, nil)
	}
	return nil
}

func (b *builder[T]) setOptionError(format string, args ...any) {
	if b.optionErr != nil {
		return
	}
	err := fmt.Errorf(format, args...)
	b.optionErr = fmt.Errorf("%w: %w", ErrOption, err)
}

func (b *builder[T]) build() (T, error) {
	result, seeded, err := b.applyDefaults()
	if err != nil {
		var zero T
		return zero, err
	}

	currentInput, err := b.applyPreprocessors(b.input)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := b.decode(currentInput, &result, seeded); err != nil {
		var zero T
		return zero, err
	}

	if err := b.runValidator(&result); err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

func (b *builder[T]) applyDefaults() (T, bool, error) {
	var zero T
	if b.defaults == nil {
		return zero, false, nil
	}
	val, err := b.defaults()
	if err != nil {
		return zero, false, stageError(stageDefaults, ErrDefaults, err, nil)
	}
	cloned, err := cloneValue(val)
	if err != nil {
		return zero, false, stageError(stageDefaults, ErrDefaults, err, map[string]any{
			"reason": "clone",
		})
	}
	return cloned, true, nil
}

func (b *builder[T]) applyPreprocessors(input value.Value) (value.Value, error) {
	current := input
	for idx, pre := range b.preprocessors {
		if pre == nil {
			continue
		}
		next, err := pre(current)
		if err != nil {
			return value.None(), stageError(stagePreprocess, ErrPreprocess, err, map[string]any{
				"preprocessor_index": idx,
			})
		}
		current = next
	}
	return current, nil
}

func (b *builder[T]) decode(input value.Value, result *T, seeded bool) error {
	d := &decoder{
		tagName: b.tagName,
		strict:  b.strictKeys,
		hook:    composeHooks(b.useHookSet, b.decodeHooks),
	}
	if err := d.decode("", input, reflect.ValueOf(result).Elem(), seeded); err != nil {
		meta := map[string]any{}
		var de *DecodeError
		if errors.As(err, &de) {
			meta["path"] = de.Path
			meta["reason"] = string(de.Reason)
		}
		return stageError(stageDecode, ErrDecode, err, meta)
	}
	return nil
}

func (b *builder[T]) runValidator(result *T) error {
	if b.validator == nil {
		return nil
	}
	if err := b.validator(result); err != nil {
		return stageError(stageValidate, ErrValidate, err, nil)
	}
	return nil
}

func cloneValue[T any](v T) (T, error) {
	var zero T
	cloned, err := copystructure.Copy(v)
	if err != nil {
		return zero, err
	}
	casted, ok := cloned.(T)
	if !ok {
		return zero, fmt.Errorf("cfgx: failed to cast cloned value %T to target type", cloned)
	}
	return casted, nil
}
