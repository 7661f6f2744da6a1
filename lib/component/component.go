package component

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"spl/spl"
)

var ErrUnknownType = errors.New("unknown component type")

//registry maps a component type, the value of the `type` property, to its factory
type registry[F any] struct {
	kind      string
	mutex     sync.RWMutex
	factories map[string]F
}

func newRegistry[F any](kind string) *registry[F] {
	return &registry[F]{kind: kind, factories: map[string]F{}}
}

//register panics on a duplicated type, registration happens in init
func (r *registry[F]) register(_type string, factory F) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, ok := r.factories[_type]; ok {
		panic(errors.Errorf("%s %q registered twice", r.kind, _type))
	}
	r.factories[_type] = factory
}

func (r *registry[F]) lookup(_type string) (F, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	factory, ok := r.factories[_type]
	if !ok {
		return factory, errors.WithMessagef(ErrUnknownType, "%s %q", r.kind, _type)
	}
	return factory, nil
}

func (r *registry[F]) types() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	types := make([]string, 0, len(r.factories))
	for _type := range r.factories {
		types = append(types, _type)
	}
	sort.Strings(types)
	return types
}

var (
	sources   = newRegistry[spl.NewSourceFunc]("source")
	operators = newRegistry[spl.NewOperatorFunc]("operator")
	sinks     = newRegistry[spl.NewSinkFunc]("sink")
)

func RegisterNewSourceFunc(_type string, sourceFunc spl.NewSourceFunc) {
	sources.register(_type, sourceFunc)
}

func RegisterNewOperatorFunc(_type string, operatorFunc spl.NewOperatorFunc) {
	operators.register(_type, operatorFunc)
}

func RegisterNewSinkFunc(_type string, sinkFunc spl.NewSinkFunc) {
	sinks.register(_type, sinkFunc)
}

func NewSource(_type string) (spl.Source, error) {
	newFunc, err := sources.lookup(_type)
	if err != nil {
		return nil, err
	}
	return newFunc(), nil
}

func NewOperator(_type string) (spl.Operator, error) {
	newFunc, err := operators.lookup(_type)
	if err != nil {
		return nil, err
	}
	return newFunc(), nil
}

func NewSink(_type string) (spl.Sink, error) {
	newFunc, err := sinks.lookup(_type)
	if err != nil {
		return nil, err
	}
	return newFunc(), nil
}

//Def is the properties definition of one registered component type
type Def struct {
	Type       string
	Properties spl.PropertiesDef
}

//ListDefs lists the registered types of a kind (source, operator or sink) sorted by type
func ListDefs(kind string) ([]Def, error) {
	var (
		types []string
		def   func(_type string) spl.PropertiesDef
	)
	switch kind {
	case sources.kind:
		types = sources.types()
		def = func(_type string) spl.PropertiesDef {
			newFunc, _ := sources.lookup(_type)
			return newFunc().PropertiesDef()
		}
	case operators.kind:
		types = operators.types()
		def = func(_type string) spl.PropertiesDef {
			newFunc, _ := operators.lookup(_type)
			return newFunc().PropertiesDef()
		}
	case sinks.kind:
		types = sinks.types()
		def = func(_type string) spl.PropertiesDef {
			newFunc, _ := sinks.lookup(_type)
			return newFunc().PropertiesDef()
		}
	default:
		return nil, errors.Errorf("unknown component kind %q", kind)
	}
	defs := make([]Def, len(types))
	for i, _type := range types {
		defs[i] = Def{Type: _type, Properties: def(_type)}
	}
	return defs, nil
}
