package replicating

import (
	"fmt"
	"regexp"
	"sync/atomic"

	"github.com/pkg/errors"

	"spl/lib/emit"
	"spl/lib/properties"
	"spl/pkg/constant"
	"spl/spl"
)

var (
	OutputsProperty = properties.NewRequiredProperty[[]string]("outputs", "replicating select outputs")
	ErrEmitNextNil  = fmt.Errorf("replicating emit next can't be nil")
)

func init() {
	emit.RegisterEmitNextGeneratorFunc("replicating", func() spl.EmitNextGenerator {
		return func(ctx spl.Context, allEmitGenerator map[spl.Context]spl.EmitGenerator, topology map[spl.Context][]spl.Context) spl.EmitNext {
			var emitNextSlice []spl.Emit
			for _, emitNextRegexp := range ctx.Properties().GetStringSlice(OutputsProperty) {
				if compile, err := regexp.Compile(emitNextRegexp); err != nil {
					panic(fmt.Sprintf("output %s can't compile.", emitNextRegexp))
				} else {
					for _ctx, emitGenerator := range allEmitGenerator {
						if compile.MatchString(_ctx.Name()) {
							emitNextSlice = append(emitNextSlice, emitGenerator(ctx))
							topology[_ctx] = append(topology[_ctx], ctx)
						}
					}
				}
			}
			if emitNextSlice == nil || len(emitNextSlice) == 0 {
				panic(ErrEmitNextNil)
			}
			var emitNext spl.EmitNext

			mode := ctx.Properties().Global().GetString(constant.RuntimeModeProperty)
			switch mode {
			case spl.Snapshot:
				emitNext = func(event *spl.Event, handler spl.ACKHandler) {
					for _, emit := range emitNextSlice {
						emit(event)
					}
					if handler != nil {
						handler()
					}
				}
			case spl.ACK:
				emitNext = func(event *spl.Event, handler spl.ACKHandler) {
					var (
						time       int64 = 0
						newHandler spl.ACKHandler
					)
					if handler != nil {
						newHandler = func() {
							if atomic.AddInt64(&time, 1) == int64(len(emitNextSlice)) {
								handler()
							}
						}
						event.Private = map[string]any{spl.PrivateACKHandler: newHandler}
					}
					for _, emit := range emitNextSlice {
						emit(event)
					}

				}
			default:
				panic(errors.WithMessage(constant.ErrUnsupportedMode, mode))
			}
			return emitNext
		}
	})
}
