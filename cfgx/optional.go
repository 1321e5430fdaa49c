package cfgx

import (
	"fmt"
	"reflect"
)

// Optional carries an explicit present/absent state for T. A missing key or a
// None value leaves it unset; anything else is decoded into V and marks it
// valid. Fields are exported so copystructure clones defaults faithfully.
type Optional[T any] struct {
	V     T
	Valid bool
}

// Some returns a set Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{V: v, Valid: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.V, o.Valid
}

// Or returns the value when set, otherwise def.
func (o Optional[T]) Or(def T) T {
	if o.Valid {
		return o.V
	}
	return def
}

func (o Optional[T]) String() string {
	if !o.Valid {
		return "<unset>"
	}
	return fmt.Sprint(o.V)
}

func (o *Optional[T]) optionalElem() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (o *Optional[T]) optionalSet(v reflect.Value) {
	reflect.ValueOf(&o.V).Elem().Set(v)
	o.Valid = true
}

func (o *Optional[T]) optionalUnset() {
	var zero T
	o.V = zero
	o.Valid = false
}

// optional is implemented by *Optional[T] for every T.
type optional interface {
	optionalElem() reflect.Type
	optionalSet(reflect.Value)
	optionalUnset()
}

var optionalIface = reflect.TypeOf((*optional)(nil)).Elem()

func isOptional(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(optionalIface)
}
