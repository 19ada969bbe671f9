package logger

import (
	"fmt"
	"log"
)

type Logger struct {
	l     *log.Logger
	name  string
	debug bool
}

func New(l *log.Logger) *Logger {
	return &Logger{l: l}
}

// Named returns a logger sharing the output but prefixing every line with name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l, name: name, debug: l.debug}
}

func (l *Logger) WithDebug(enabled bool) *Logger {
	return &Logger{l: l.l, name: l.name, debug: enabled}
}

func (l *Logger) LogErrorf(format string, v ...any) {
	l.print("Error", format, v...)
}

func (l *Logger) LogWarn(format string, v ...any) {
	l.print("Warn", format, v...)
}

func (l *Logger) LogInfo(format string, v ...any) {
	l.print("Info", format, v...)
}

func (l *Logger) LogDebug(format string, v ...any) {
	if !l.debug {
		return
	}

	l.print("Debug", format, v...)
}

func (l *Logger) print(level, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)

	if l.name != "" {
		l.l.Printf("[%s] %s: %s\n", level, l.name, msg)

		return
	}

	l.l.Printf("[%s]: %s\n", level, msg)
}
