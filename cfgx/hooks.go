package cfgx

import (
	"encoding"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// DefaultDecodeHooks returns the standard hook set (duration, text unmarshaler).
// Hooks only see scalar leaves; their result is used when it is assignable to
// the destination, otherwise the strict decoding rules apply.
func DefaultDecodeHooks() []mapstructure.DecodeHookFunc {
	return []mapstructure.DecodeHookFunc{
		DurationHook(),
		TextUnmarshalerHook(),
	}
}

// DurationHook converts strings (e.g., "5s") into time.Duration.
func DurationHook() mapstructure.DecodeHookFunc {
	return mapstructure.StringToTimeDurationHookFunc()
}

// TextUnmarshalerHook lets encoding.TextUnmarshaler targets accept strings.
func TextUnmarshalerHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String {
			return data, nil
		}
		result := reflect.New(to).Interface()
		unmarshaller, ok := result.(encoding.TextUnmarshaler)
		if !ok {
			return data, nil
		}
		if err := unmarshaller.UnmarshalText([]byte(reflect.ValueOf(data).String())); err != nil {
			return nil, err
		}
		return result, nil
	}
}

func composeHooks(useDefaults bool, extra []mapstructure.DecodeHookFunc) mapstructure.DecodeHookFunc {
	hooks := make([]mapstructure.DecodeHookFunc, 0, len(extra)+2)
	if useDefaults {
		hooks = append(hooks, DefaultDecodeHooks()...)
	}
	hooks = append(hooks, extra...)
	switch len(hooks) {
	case 0:
		return nil
	case 1:
		return hooks[0]
	default:
		return mapstructure.ComposeDecodeHookFunc(hooks...)
	}
}
