package tengo

import (
	"context"

	"github.com/d5/tengo/v2"

	"spl/spl"
)

//Reducer is a compiled tengo script that folds the `events` array into the `result` variable
type Reducer struct {
	program *program
}

func CompileReducer(source string) (*Reducer, error) {
	program, err := compile(source, map[string]tengo.Object{
		"events": &tengo.ImmutableArray{},
		"result": tengo.UndefinedValue,
	})
	if err != nil {
		return nil, err
	}
	return &Reducer{program: program}, nil
}

//Reduce runs the script over events and returns `result` as a go value
func (r *Reducer) Reduce(ctx context.Context, events []*spl.Event) (interface{}, error) {
	array, err := toEventArray(events)
	if err != nil {
		return nil, err
	}
	res, err := r.program.run(ctx, map[string]tengo.Object{"events": array, "result": tengo.UndefinedValue}, "result")
	if err != nil {
		return nil, err
	}
	return tengo.ToInterface(res), nil
}
