package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger is the leveled key/value logger used across the service
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
}

type logLevel int

const (
	debugLevel logLevel = iota
	infoLevel
	warnLevel
	errorLevel
)

var levelNames = map[logLevel]string{
	debugLevel: "DEBUG",
	infoLevel:  "INFO",
	warnLevel:  "WARN",
	errorLevel: "ERROR",
}

type stdLogger struct {
	out   *log.Logger
	err   *log.Logger
	level logLevel
}

// NewLogger creates a logger that writes at or above the given level
func NewLogger(level string) Logger {
	var l logLevel

	switch strings.ToLower(level) {
	case "debug":
		l = debugLevel
	case "info":
		l = infoLevel
	case "warn":
		l = warnLevel
	case "error":
		l = errorLevel
	default:
		l = infoLevel
	}

	return &stdLogger{
		out:   log.New(os.Stdout, "", log.Ldate|log.Ltime),
		err:   log.New(os.Stderr, "", log.Ldate|log.Ltime),
		level: l,
	}
}

func (l *stdLogger) Debug(msg string, keyvals ...interface{}) {
	l.log(debugLevel, msg, keyvals...)
}

func (l *stdLogger) Info(msg string, keyvals ...interface{}) {
	l.log(infoLevel, msg, keyvals...)
}

func (l *stdLogger) Warn(msg string, keyvals ...interface{}) {
	l.log(warnLevel, msg, keyvals...)
}

func (l *stdLogger) Error(msg string, keyvals ...interface{}) {
	l.log(errorLevel, msg, keyvals...)
}

func (l *stdLogger) log(level logLevel, msg string, keyvals ...interface{}) {
	if level < l.level {
		return
	}

	target := l.out

	if level == errorLevel {
		target = l.err
	}

	target.Println(levelNames[level] + ": " + formatMsg(msg, keyvals...))
}

func formatMsg(msg string, keyvals ...interface{}) string {
	if len(keyvals) == 0 {
		return msg
	}

	var b strings.Builder
	b.WriteString(msg)

	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprintf("%v", keyvals[i])
		value := "missing"

		if i+1 < len(keyvals) {
			value = fmt.Sprintf("%v", keyvals[i+1])
		}

		b.WriteString(" " + key + "=" + value)
	}

	return b.String()
}

// NopLogger returns a logger that discards everything; useful in tests
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keyvals ...interface{}) {}
func (nopLogger) Info(msg string, keyvals ...interface{})  {}
func (nopLogger) Warn(msg string, keyvals ...interface{})  {}
func (nopLogger) Error(msg string, keyvals ...interface{}) {}
