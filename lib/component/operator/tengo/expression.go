package tengo

import (
	"context"
	"fmt"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/pkg/errors"

	"spl/spl"
)

const resultVariable = "__res__"

//Expression is a compiled tengo expression over the `event` variable, safe for concurrent use
type Expression struct {
	source  string
	program *program
}

func CompileExpression(source string) (*Expression, error) {
	program, err := compile(fmt.Sprintf("%s := (%s)", resultVariable, strings.TrimSpace(source)),
		map[string]tengo.Object{"event": emptyEventObject()})
	if err != nil {
		return nil, errors.WithMessagef(err, "expression %q", source)
	}
	return &Expression{source: source, program: program}, nil
}

func (e *Expression) String() string {
	return e.source
}

//Eval runs the expression and returns its value as a go value
func (e *Expression) Eval(ctx context.Context, event *spl.Event) (interface{}, error) {
	object, err := toEventObject(event)
	if err != nil {
		return nil, err
	}
	res, err := e.program.run(ctx, map[string]tengo.Object{"event": object}, resultVariable)
	if err != nil {
		return nil, errors.WithMessagef(err, "expression %q", e.source)
	}
	return tengo.ToInterface(res), nil
}
