package emit

import (
	"sync"

	"github.com/pkg/errors"

	"spl/spl"
)

var ErrUnknownSelector = errors.New("unknown emit selector")

var (
	mutex      sync.RWMutex
	generators = map[string]spl.NewEmitNextGeneratorFunc{}
)

//RegisterEmitNextGeneratorFunc binds a selector name, the `selector` property of sources and operators
func RegisterEmitNextGeneratorFunc(name string, emitNextGeneratorFunc spl.NewEmitNextGeneratorFunc) {
	mutex.Lock()
	defer mutex.Unlock()
	if _, ok := generators[name]; ok {
		panic(errors.Errorf("selector %q registered twice", name))
	}
	generators[name] = emitNextGeneratorFunc
}

func NewEmitNextGenerator(name string) (spl.EmitNextGenerator, error) {
	mutex.RLock()
	defer mutex.RUnlock()
	newFunc, ok := generators[name]
	if !ok {
		return nil, errors.WithMessagef(ErrUnknownSelector, "%q", name)
	}
	return newFunc(), nil
}
