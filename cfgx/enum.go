package cfgx

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Variant describes one constructor of a registered enum.
type Variant struct {
	name string
	typ  reflect.Type
}

// VariantOf declares a variant named name whose payload is decoded into V.
// A struct type without fields is a unit variant: it is selected by a plain
// string and carries no payload.
func VariantOf[V any](name string) Variant {
	return Variant{name: name, typ: reflect.TypeOf((*V)(nil)).Elem()}
}

type variantDef struct {
	name    string
	typ     reflect.Type
	unit    bool
	pointer bool
}

type enumDef struct {
	name     string
	typ      reflect.Type
	variants map[string]variantDef
	strings  bool
}

func (s *enumDef) variantNames() []string {
	names := make([]string, 0, len(s.variants))
	for name := range s.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type enumRegistry struct {
	mu    sync.RWMutex
	enums map[reflect.Type]*enumDef
}

var enums = &enumRegistry{enums: map[reflect.Type]*enumDef{}}

func (r *enumRegistry) register(def *enumDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enums[def.typ] = def
}

func (r *enumRegistry) lookup(t reflect.Type) (*enumDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.enums[t]
	return def, ok
}

// RegisterEnum declares the interface type E as a tagged union. Every variant
// type (or its pointer) must implement E. Registering the same E again
// replaces the earlier declaration.
//
// Registration errors are programmer mistakes and panic.
func RegisterEnum[E any](name string, variants ...Variant) {
	enumType := reflect.TypeOf((*E)(nil)).Elem()
	if enumType.Kind() != reflect.Interface {
		panic(fmt.Sprintf("cfgx: RegisterEnum expects an interface type, got %s", enumType))
	}
	if len(variants) == 0 {
		panic(fmt.Sprintf("cfgx: enum %s declares no variants", name))
	}

	def := &enumDef{name: name, typ: enumType, variants: make(map[string]variantDef, len(variants))}
	for _, v := range variants {
		if v.name == "" || v.typ == nil {
			panic(fmt.Sprintf("cfgx: enum %s has an unnamed variant", name))
		}
		if _, dup := def.variants[v.name]; dup {
			panic(fmt.Sprintf("cfgx: enum %s declares variant %s twice", name, v.name))
		}
		vs := variantDef{
			name: v.name,
			typ:  v.typ,
			unit: v.typ.Kind() == reflect.Struct && v.typ.NumField() == 0,
		}
		switch {
		case v.typ.Implements(enumType):
		case reflect.PointerTo(v.typ).Implements(enumType):
			vs.pointer = true
		default:
			panic(fmt.Sprintf("cfgx: variant %s (%s) does not implement %s", v.name, v.typ, enumType))
		}
		def.variants[v.name] = vs
	}
	enums.register(def)
}

// RegisterStringEnum declares a string-backed enum whose variants are all
// unit variants named by their own value.
func RegisterStringEnum[E ~string](name string, values ...E) {
	enumType := reflect.TypeOf((*E)(nil)).Elem()
	if len(values) == 0 {
		panic(fmt.Sprintf("cfgx: enum %s declares no variants", name))
	}
	def := &enumDef{name: name, typ: enumType, variants: make(map[string]variantDef, len(values)), strings: true}
	for _, v := range values {
		def.variants[string(v)] = variantDef{name: string(v), typ: enumType, unit: true}
	}
	enums.register(def)
}

// EnumVariants lists the variant names registered for E, sorted.
func EnumVariants[E any]() []string {
	def, ok := enums.lookup(reflect.TypeOf((*E)(nil)).Elem())
	if !ok {
		return nil
	}
	return def.variantNames()
}
