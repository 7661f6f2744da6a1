package log

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spl/spl"
)

type OutputEncoder string

const (
	ConsoleOutputEncoder OutputEncoder = "console"
	JSONOutputEncoder    OutputEncoder = "json"
)

type Options struct {
	level         zapcore.Level
	outputEncoder OutputEncoder
	caller        bool
}

func DefaultOptions() *Options {
	return &Options{
		level:         zapcore.InfoLevel,
		outputEncoder: JSONOutputEncoder,
		caller:        true,
	}
}

func (o *Options) WithOutputEncoder(encoder OutputEncoder) *Options {
	o.outputEncoder = encoder
	return o
}

//WithLevel accepts zap level names, unknown names keep the current level
func (o *Options) WithLevel(level string) *Options {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(level))); err == nil {
		o.level = l
	}
	return o
}

func (o *Options) WithCaller(caller bool) *Options {
	o.caller = caller
	return o
}

var (
	mutex sync.RWMutex
	root  = zap.NewNop().Sugar()
	level = zap.NewAtomicLevel()
)

//Setup replaces the process logger
func Setup(options *Options) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	switch options.outputEncoder {
	case ConsoleOutputEncoder:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}
	level.SetLevel(options.level)
	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	var opts []zap.Option
	if options.caller {
		opts = append(opts, zap.AddCaller())
	}
	mutex.Lock()
	root = zap.New(core, opts...).Sugar()
	mutex.Unlock()
}

//SetLevel changes the level of every logger handed out so far
func SetLevel(l string) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(strings.ToLower(l))); err == nil {
		level.SetLevel(zl)
	}
}

func Named(name string) spl.Logger {
	mutex.RLock()
	defer mutex.RUnlock()
	return root.Named(name)
}

//Ctx returns a logger named after the context path
func Ctx(ctx spl.Context) spl.Logger {
	if ctx == nil || ctx.Name() == "" {
		mutex.RLock()
		defer mutex.RUnlock()
		return root
	}
	return Named(ctx.Name())
}
