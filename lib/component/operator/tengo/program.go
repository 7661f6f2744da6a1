package tengo

import (
	"context"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/pkg/errors"
)

//program is a compiled script with the tengo stdlib, runs are serialized
type program struct {
	mutex    sync.Mutex
	compiled *tengo.Compiled
}

func compile(source string, variables map[string]tengo.Object) (*program, error) {
	script := tengo.NewScript([]byte(source))
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	for name, value := range variables {
		if err := script.Add(name, value); err != nil {
			return nil, errors.WithMessagef(err, "can't add variable %s", name)
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		return nil, errors.WithMessage(err, "can't compile script")
	}
	return &program{compiled: compiled}, nil
}

//run sets the inputs, runs the script and reads the output variable
func (p *program) run(ctx context.Context, inputs map[string]tengo.Object, output string) (tengo.Object, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for name, value := range inputs {
		if err := p.compiled.Set(name, value); err != nil {
			return nil, errors.WithMessagef(err, "can't set variable %s", name)
		}
	}
	if err := p.compiled.RunContext(ctx); err != nil {
		return nil, errors.WithMessage(err, "can't run script")
	}
	return p.compiled.Get(output).Object(), nil
}
