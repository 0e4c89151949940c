package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, NoticeLevel, ParseLevel("notice"))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("info"))
	assert.Equal(t, InfoLevel, ParseLevel("unrecognized"), "an unrecognized level string must default to info")
}

func TestEmptyLoggerDiscardsEverything(t *testing.T) {
	var l EmptyLogger
	assert.NotPanics(t, func() {
		l.Info("x")
		l.InfoWithStage(Worker, "x")
		l.Error("x")
		l.ErrorWithStage(Worker, "x")
		l.Debug("x")
		l.DebugWithStage(Worker, "x")
		l.Notice("x")
		l.NoticeWithStage(Worker, "x")
	})
}

func TestStdLoggerFormatMessageIncludesStagePrefix(t *testing.T) {
	l := NewStdLogger(false, InfoLevel)
	msg := l.formatMessage(InfoLevel, Producer, "hello %s")
	assert.Contains(t, msg, "[producer]")
	assert.Contains(t, msg, "hello %s")
	assert.Contains(t, msg, "[INFO]")
}

func TestStdLoggerFormatMessageWithNoStage(t *testing.T) {
	l := NewStdLogger(false, InfoLevel)
	msg := l.formatMessage(ErrorLevel, None, "boom")
	assert.Contains(t, msg, "[ERROR]")
	assert.Contains(t, msg, "boom")
}
