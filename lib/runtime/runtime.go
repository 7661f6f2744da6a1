package runtime

import (
	_c "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"

	ckpt "spl/lib/checkpoint"
	"spl/lib/component"
	"spl/lib/context"
	"spl/lib/emit"
	"spl/lib/log"
	"spl/lib/properties"
	"spl/lib/runtime/checkpoint"
	"spl/lib/runtime/task"
	"spl/pkg/constant"
	"spl/spl"
)

type QOS uint

const (
	SourcePrefix   = "source"
	OperatorPrefix = "operator"
	SinkPrefix     = "sink"
)

var (
	propertiesDef = spl.PropertiesDef{constant.RuntimeModeProperty, constant.RuntimeLogLevelProperty,
		constant.RuntimeStatusDirProperty, constant.RuntimeCheckpointProperty}
)

type Runtime struct {
	ctx           spl.Context
	logger        spl.Logger
	runtime       spl.Properties
	life          *tomb.Tomb
	coordinator   *checkpoint.Coordinator
	sourceTasks   map[spl.Context]*task.SourceTask
	operatorTasks map[spl.Context]*task.OperatorTask
	sinkTasks     map[spl.Context]*task.SinkTask

	allEmitNext map[spl.Context]spl.EmitGenerator
	topology    map[spl.Context][]spl.Context
}

func (e *Runtime) initSources() {
	sourceNames := e.ctx.Properties().PrefixKeys(SourcePrefix)
	if sourceNames == nil || len(sourceNames) == 0 {
		panic("source has to have at least one.")
	}
	for _, name := range sourceNames {
		sourceName := SourcePrefix + "." + name
		sourceCtx := e.ctx.Named(sourceName)
		if sourceCtx.Properties() == nil {
			panic("sources can't be nil")
		}
		source, err := component.NewSource(sourceCtx.Properties().GetString(constant.TypeProperty))
		if err != nil {
			panic(errors.WithMessage(err, sourceName))
		}
		renderText, err := properties.InitAndRender(sourceCtx.Properties(), source.PropertiesDef())
		if err != nil {
			panic(errors.WithMessage(err, "failed to init source properties"))
		} else {
			e.logger.Infof("init %s:\n%s", sourceName, renderText)
		}
		sourceTask := &task.SourceTask{
			Source:      source,
			Ctx:         sourceCtx,
			Coordinator: e.coordinator,
		}
		e.sourceTasks[sourceCtx] = sourceTask

	}
}

func (e *Runtime) initOperators() {
	operatorNames := e.ctx.Properties().PrefixKeys(OperatorPrefix)
	for _, name := range operatorNames {
		operatorName := OperatorPrefix + "." + name
		operatorCtx := e.ctx.Named(operatorName)
		if operatorCtx.Properties() == nil {
			panic(fmt.Sprintf("operator %s properties can't be nil.", operatorName))
		}
		operator, err := component.NewOperator(operatorCtx.Properties().GetString(constant.TypeProperty))
		if err != nil {
			panic(errors.WithMessage(err, operatorName))
		}

		renderText, err := properties.InitAndRender(operatorCtx.Properties(), operator.PropertiesDef())
		if err != nil {
			panic(errors.WithMessage(err, "failed to init operator properties"))
		} else {
			e.logger.Infof("init %s:\n%s", operatorName, renderText)
		}
		operatorTask := &task.OperatorTask{
			Operator:    operator,
			Ctx:         operatorCtx,
			Coordinator: e.coordinator,
		}
		e.operatorTasks[operatorCtx] = operatorTask
		e.allEmitNext[operatorCtx] = operatorTask.GenerateEmit
	}
}

func (e *Runtime) initSinks() {
	sinkNames := e.ctx.Properties().PrefixKeys(SinkPrefix)
	if sinkNames == nil || len(sinkNames) == 0 {
		panic("sink has to have at least one.")
	}
	for _, name := range sinkNames {
		sinkName := SinkPrefix + "." + name
		sinkCtx := e.ctx.Named(sinkName)
		if sinkCtx.Properties() == nil {
			panic(fmt.Sprintf("sink %s properties can't be nil.", sinkName))
		}
		sink, err := component.NewSink(sinkCtx.Properties().GetString(constant.TypeProperty))
		if err != nil {
			panic(errors.WithMessage(err, sinkName))
		}
		renderText, err := properties.InitAndRender(sinkCtx.Properties(), sink.PropertiesDef())
		if err != nil {
			panic(errors.WithMessage(err, "failed to init sink properties"))
		} else {
			e.logger.Infof("init %s:\n%s", sinkName, renderText)
		}
		sinkTask := &task.SinkTask{
			Sink: sink,
			Ctx:  sinkCtx,
		}
		e.sinkTasks[sinkCtx] = sinkTask
		e.allEmitNext[sinkCtx] = sinkTask.GenerateEmit
	}
}

func (e *Runtime) initTopology() {
	for _, operatorTask := range e.operatorTasks {
		operatorTask.EmitNext = e.emitNext(operatorTask.Ctx)
	}
	for _, sourceTask := range e.sourceTasks {
		sourceTask.EmitNext = e.emitNext(sourceTask.Ctx)
	}
}

func (e *Runtime) emitNext(ctx spl.Context) spl.EmitNext {
	generator, err := emit.NewEmitNextGenerator(ctx.Properties().GetString(constant.SelectorProperty))
	if err != nil {
		panic(errors.WithMessage(err, ctx.Name()))
	}
	return generator(ctx, e.allEmitNext, e.topology)
}

func (e *Runtime) Run() {
	//notify system signal
	e.life.Go(func() error {
		c := make(chan os.Signal)
		signal.Notify(c)
		for {
			select {
			case s := <-c:
				switch s {
				case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT: // ctrl + c
					e.logger.Infof("notify system signal %s, done.", s)
					e.ctx.Cancel()
					return nil
				}
			case <-e.ctx.Done():
				e.logger.Warn("context done.")
				return nil
			}
		}
	})

	e.initCheckpoint()
	e.initSources()
	e.initOperators()
	e.initSinks()
	e.initTopology()
	e.openAll()
	e.runAll()
	<-e.life.Dead()
	if e.coordinator != nil {
		e.coordinator.Stop()
	}
}

func (e *Runtime) initCheckpoint() {
	switch mode := e.runtime.GetString(constant.RuntimeModeProperty); mode {
	case spl.ACK:
		return
	case spl.Snapshot:
		store, err := ckpt.NewFileStore(e.runtime.GetString(constant.RuntimeStatusDirProperty))
		if err != nil {
			panic(errors.WithMessage(err, "can't open status dir"))
		}
		coordinator, err := checkpoint.New(e.logger, store, e.runtime.GetString(constant.RuntimeCheckpointProperty))
		if err != nil {
			panic(errors.WithMessage(err, "can't init checkpoint coordinator"))
		}
		e.coordinator = coordinator
		e.coordinator.Start()
	default:
		panic(fmt.Sprintf("unknown runtime mode %s", mode))
	}
}

type runnable interface {
	Open() error
	Run() error
}

//openAll opens downstream components first, so every emit target is ready before a source collects
func (e *Runtime) openAll() {
	for ctx, sinkTask := range e.sinkTasks {
		e.open(ctx, sinkTask)
	}
	for ctx, operatorTask := range e.operatorTasks {
		e.open(ctx, operatorTask)
	}
	for ctx, sourceTask := range e.sourceTasks {
		e.open(ctx, sourceTask)
	}
}

func (e *Runtime) open(ctx spl.Context, t runnable) {
	if err := t.Open(); err != nil {
		panic(errors.WithMessagef(err, "can't open %s", ctx.Name()))
	}
	e.logger.Infow("task is opened.", "task", ctx.Name())
}

func (e *Runtime) runAll() {
	for ctx, sinkTask := range e.sinkTasks {
		e.run(ctx, sinkTask)
	}
	for ctx, operatorTask := range e.operatorTasks {
		e.run(ctx, operatorTask)
	}
	for ctx, sourceTask := range e.sourceTasks {
		e.run(ctx, sourceTask)
	}
}

//run starts a task, the first task to finish stops the whole topology
func (e *Runtime) run(ctx spl.Context, t runnable) {
	e.life.Go(func() error {
		e.logger.Infow("starting run task.", "task", ctx.Name())
		err := t.Run()
		if err != nil {
			e.logger.Errorw("failed run task.", "task", ctx.Name(), "err", err)
		} else {
			e.logger.Infow("task is complete.", "task", ctx.Name())
		}
		e.ctx.Cancel()
		return err
	})
}

func New(originCtx _c.Context, propertiesName string, propertiesType string, propertiesPath ...string) *Runtime {
	log.Setup(log.DefaultOptions().WithOutputEncoder(log.ConsoleOutputEncoder))
	ps := properties.New(propertiesName, propertiesType, propertiesPath...)
	if ps.Global().IsSet(constant.RuntimeLogLevelProperty.Name()) {
		log.SetLevel(ps.Global().GetString(constant.RuntimeLogLevelProperty))
	}
	ctx := context.New(originCtx, ps)
	logger := log.Ctx(ctx)
	initAndRender, err := properties.InitAndRender(ps.Global(), propertiesDef)
	if err != nil {
		panic(errors.WithMessage(err, "can't init runtime properties"))
	}
	logger.Infof("global:\n%s", initAndRender)

	life, _ := tomb.WithContext(ctx.Ctx())
	engine := &Runtime{
		logger:        logger,
		sourceTasks:   map[spl.Context]*task.SourceTask{},
		operatorTasks: map[spl.Context]*task.OperatorTask{},
		sinkTasks:     map[spl.Context]*task.SinkTask{},
		allEmitNext:   map[spl.Context]spl.EmitGenerator{},
		topology:      map[spl.Context][]spl.Context{},
		runtime:       ps.Global(),
		life:          life,
		ctx:           ctx,
	}
	return engine
}
