// Package cfgx materializes a merged value tree into a caller-chosen Go type.
//
// Build walks the destination type with reflection and asks the tree for
// exactly the variant each field needs. Scalars never widen: an int field
// accepts Int64 and nothing else, a float field accepts Float64 and nothing
// else. Struct fields match tree keys exactly, letter case included.
//
// Option catalog:
//   - Defaults: WithDefaults, WithDefaultFunc.
//   - Preprocessing: WithPreprocess, WithPreprocessFunc, WithMerge, WithTransformStrings.
//   - Decoder behavior: WithDecodeHooks, WithoutDefaultHooks/WithDefaultHooks,
//     WithStrictKeys, WithTagName.
//   - Validation: WithValidator, WithValidatorFunc.
//   - Diagnostics: WithOptionError lets wrappers surface invalid option state.
//
// Shapes:
//   - Pointers and Optional[T] are optional: a missing key or None leaves them empty.
//   - The `default` struct tag supplies a literal used when the key is missing.
//   - RegisterEnum and RegisterStringEnum declare tagged unions. A string selects
//     a unit variant, a single-entry map selects a variant and carries its payload.
//   - Types implementing Unmarshaler decode themselves from the Source.
//
// Hook helpers:
//   - DurationHook mirrors mapstructure's string-to-duration helper.
//   - TextUnmarshalerHook preserves compatibility with encoding.TextUnmarshaler types.
package cfgx
