package log

import (
	"fmt"

	"spl/spl"
)

//TailLoggerWrapper adapts spl.Logger to the hpcloud/tail and ants logger interfaces
type TailLoggerWrapper struct {
	spl.Logger
}

func (l *TailLoggerWrapper) Fatalln(v ...interface{}) {
	l.Logger.Fatal(v...)
}

func (l *TailLoggerWrapper) Panic(v ...interface{}) {
	l.Logger.Error(v...)
	panic(fmt.Sprint(v...))
}

func (l *TailLoggerWrapper) Panicf(format string, v ...interface{}) {
	l.Logger.Errorf(format, v...)
	panic(fmt.Sprintf(format, v...))
}

func (l *TailLoggerWrapper) Panicln(v ...interface{}) {
	l.Logger.Error(v...)
	panic(fmt.Sprint(v...))
}

func (l *TailLoggerWrapper) Print(v ...interface{}) {
	l.Logger.Info(v...)
}

func (l *TailLoggerWrapper) Println(v ...interface{}) {
	l.Logger.Info(v...)
}

func (l *TailLoggerWrapper) Printf(format string, args ...interface{}) {
	l.Logger.Infof(format, args...)
}
