package cfgx

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Option allows callers to tweak builder behavior before decoding a config struct.
type Option[T any] func(*builder[T])

// Validator represents the validation hook invoked after decoding completes.
type Validator[T any] func(*T) error

// WithDefaults seeds the builder with a default config value that will be cloned
// before decoding. Fields whose keys are absent from the tree keep the seeded
// value instead of failing. Later calls override earlier defaults.
func WithDefaults[T any](value T) Option[T] {
	return func(b *builder[T]) {
		b.defaults = func() (T, error) {
			return value, nil
		}
	}
}

// WithDefaultFunc allows defaults to be generated lazily. The provided function
// should return a fully configured instance ready for decoding overlays.
func WithDefaultFunc[T any](fn func() (T, error)) Option[T] {
	return func(b *builder[T]) {
		b.defaults = fn
	}
}

// WithPreprocess registers one or more preprocessors to run sequentially before decode.
func WithPreprocess[T any](pre ...Preprocessor) Option[T] {
	return func(b *builder[T]) {
		b.preprocessors = append(b.preprocessors, pre...)
	}
}

// WithPreprocessFunc is a convenience for registering inline preprocessors.
func WithPreprocessFunc[T any](fn Preprocessor) Option[T] {
	if fn == nil {
		return func(*builder[T]) {}
	}
	return WithPreprocess[T](fn)
}

// WithMerge merges the provided sources into the input tree before decoding.
func WithMerge[T any](sources ...any) Option[T] {
	return WithPreprocess[T](PreprocessMerge(sources...))
}

// WithTransformStrings rewrites every string leaf before decoding.
func WithTransformStrings[T any](fns ...StringTransformer) Option[T] {
	return WithPreprocess[T](PreprocessTransformStrings(fns...))
}

// WithDecodeHooks appends custom decode hooks onto the builder.
func WithDecodeHooks[T any](hooks ...mapstructure.DecodeHookFunc) Option[T] {
	return func(b *builder[T]) {
		for _, hook := range hooks {
			if hook == nil {
				continue
			}
			b.decodeHooks = append(b.decodeHooks, hook)
		}
	}
}

// WithStrictKeys rejects tree keys that no destination field consumes.
func WithStrictKeys[T any]() Option[T] {
	return func(b *builder[T]) {
		b.strictKeys = true
	}
}

// WithTagName overrides the struct tag key the decoder reads.
func WithTagName[T any](tag string) Option[T] {
	return func(b *builder[T]) {
		if tag == "" {
			return
		}
		b.tagName = tag
	}
}

// WithValidator registers a validator function invoked after decoding. Only one validator is allowed.
func WithValidator[T any](validator Validator[T]) Option[T] {
	return func(b *builder[T]) {
		if validator == nil {
			return
		}
		if b.validator != nil {
			b.setOptionError("validator already registered")
			return
		}
		b.validator = validator
	}
}

// WithValidatorFunc adapts a value-based validator into the pointer-based contract.
func WithValidatorFunc[T any](validator func(T) error) Option[T] {
	if validator == nil {
		return func(*builder[T]) {}
	}
	return WithValidator(func(cfg *T) error {
		if cfg == nil {
			var zero T
			return validator(zero)
		}
		return validator(*cfg)
	})
}

// WithoutDefaultHooks disables automatic inclusion of default decode hooks.
func WithoutDefaultHooks[T any]() Option[T] {
	return func(b *builder[T]) {
		b.useHookSet = false
	}
}

// WithDefaultHooks forces default hooks back on (useful when another option disabled them earlier).
func WithDefaultHooks[T any]() Option[T] {
	return func(b *builder[T]) {
		b.useHookSet = true
	}
}

// WithOptionError allows external helpers to surface option misconfiguration errors.
func WithOptionError[T any](err error) Option[T] {
	return func(b *builder[T]) {
		if err == nil {
			return
		}
		if b.optionErr == nil {
			b.optionErr = fmt.Errorf("%w: %w", ErrOption, err)
		}
	}
}
