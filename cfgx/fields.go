package cfgx

import (
	"reflect"
	"strings"
	"sync"
)

// DefaultTagName is the struct tag consulted for field keys and options:
//
//	Port    int      `config:"port,alias=PORT,alias=APP_PORT"`
//	Debug   *bool    `config:"debug"`
//	Region  string   `config:"region,optional"`
//	Timeout Duration `config:"timeout" default:"5s"`
//	Common  Base     `config:",squash"`
//
// An empty name falls back to the Go field name, matched exactly.
const DefaultTagName = "config"

// DefaultValueTag holds literal defaults. The literal is scalar-coerced and
// decoded like any other value when the key is absent.
const DefaultValueTag = "default"

type fieldPlan struct {
	index    int
	name     string
	keys     []string
	optional bool
	squash   bool
	def      *string
}

type structPlan struct {
	fields []fieldPlan
}

type planKey struct {
	typ reflect.Type
	tag string
}

var plans sync.Map

func planFor(t reflect.Type, tagName string) *structPlan {
	key := planKey{typ: t, tag: tagName}
	if cached, ok := plans.Load(key); ok {
		return cached.(*structPlan)
	}
	plan := buildPlan(t, tagName)
	actual, _ := plans.LoadOrStore(key, plan)
	return actual.(*structPlan)
}

func buildPlan(t reflect.Type, tagName string) *structPlan {
	plan := &structPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")
		fp := fieldPlan{index: i, name: strings.TrimSpace(name)}
		for _, opt := range strings.Split(opts, ",") {
			opt = strings.TrimSpace(opt)
			switch {
			case opt == "optional":
				fp.optional = true
			case opt == "squash":
				fp.squash = true
			case strings.HasPrefix(opt, "alias="):
				if alias := strings.TrimPrefix(opt, "alias="); alias != "" {
					fp.keys = append(fp.keys, alias)
				}
			}
		}

		if sf.Anonymous && fp.name == "" && isStructLike(sf.Type) {
			fp.squash = true
		}
		if fp.squash && !isStructLike(sf.Type) {
			fp.squash = false
		}
		if fp.name == "" {
			fp.name = sf.Name
		}
		fp.keys = append([]string{fp.name}, fp.keys...)

		if def, ok := sf.Tag.Lookup(DefaultValueTag); ok {
			literal := def
			fp.def = &literal
		}
		plan.fields = append(plan.fields, fp)
	}
	return plan
}

func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}
