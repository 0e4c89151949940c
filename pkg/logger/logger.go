// Package logger provides level-filtered, optionally colorized console
// logging for the settlement worker.
package logger

import (
	"log"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// ParseLevel maps a config string ("debug", "info", "notice", "error") to a
// Level, defaulting to InfoLevel for anything unrecognized.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "notice":
		return NoticeLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Stage identifies which pipeline component is emitting a log line. Unlike
// the multi-chain fulfiller this worker targets a single chain, so the axis
// worth coloring is the pipeline stage rather than the chain ID.
type Stage int

const (
	None Stage = iota
	Producer
	Worker
	Processor
	Nonce
	Supervisor
)

var stagePrefixes = map[Stage]string{
	None:       "",
	Producer:   "[producer] ",
	Worker:     "[worker]   ",
	Processor:  "[processor]",
	Nonce:      "[nonce]    ",
	Supervisor: "[supervisor]",
}

var stageColors = map[Stage]color.Attribute{
	None:       color.FgWhite,
	Producer:   color.FgHiBlue,
	Worker:     color.FgHiGreen,
	Processor:  color.FgYellow,
	Nonce:      color.FgMagenta,
	Supervisor: color.FgCyan,
}

// Logger is the interface every pipeline component logs through.
type Logger interface {
	Info(format string, args ...interface{})
	InfoWithStage(stage Stage, format string, args ...interface{})

	Error(format string, args ...interface{})
	ErrorWithStage(stage Stage, format string, args ...interface{})

	Debug(format string, args ...interface{})
	DebugWithStage(stage Stage, format string, args ...interface{})

	Notice(format string, args ...interface{})
	NoticeWithStage(stage Stage, format string, args ...interface{})
}

// EmptyLogger discards everything. Used by tests that don't care about log
// output.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                     {}
func (l *EmptyLogger) InfoWithStage(_ Stage, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) ErrorWithStage(_ Stage, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                    {}
func (l *EmptyLogger) DebugWithStage(_ Stage, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})                   {}
func (l *EmptyLogger) NoticeWithStage(_ Stage, _ string, _ ...interface{}) {}

// StdLogger logs to the standard logger, level-filtered and optionally
// colorized by pipeline stage.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

func (l *StdLogger) formatMessage(level Level, stage Stage, format string) string {
	prefix := stagePrefixes[stage]
	if l.enableColoring {
		prefix = color.New(stageColors[stage]).Sprint(prefix)
	}

	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	return levelStr + prefix + " " + format
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.InfoWithStage(None, format, args...)
}

func (l *StdLogger) InfoWithStage(stage Stage, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= InfoLevel {
		log.Printf(l.formatMessage(InfoLevel, stage, format), args...)
	}
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.ErrorWithStage(None, format, args...)
}

func (l *StdLogger) ErrorWithStage(stage Stage, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= ErrorLevel {
		log.Printf(l.formatMessage(ErrorLevel, stage, format), args...)
	}
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.DebugWithStage(None, format, args...)
}

func (l *StdLogger) DebugWithStage(stage Stage, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= DebugLevel {
		log.Printf(l.formatMessage(DebugLevel, stage, format), args...)
	}
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.NoticeWithStage(None, format, args...)
}

func (l *StdLogger) NoticeWithStage(stage Stage, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= NoticeLevel {
		log.Printf(l.formatMessage(NoticeLevel, stage, format), args...)
	}
}
