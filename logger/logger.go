package logger

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Logger is a subsystem logger for a Backend.
type Logger struct {
	lvl Level // atomic
	tag string
	b   *Backend
}

func (l *Logger) write(logLevel Level, format *string, args ...interface{}) {
	if logLevel < l.Level() {
		return
	}

	var message string
	if format == nil {
		message = fmt.Sprint(args...)
	} else {
		message = fmt.Sprintf(*format, args...)
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	entry := fmt.Sprintf("%s [%s] %s: %s\n", timestamp, logLevel, l.tag, message)
	l.b.write(logLevel, []byte(entry))
}

// Trace formats a message using the default formats for its operands, and
// writes it to the log with LevelTrace.
func (l *Logger) Trace(args ...interface{}) {
	l.write(LevelTrace, nil, args...)
}

// Tracef formats a message according to a format specifier and writes it to
// the log with LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, &format, args...)
}

// Debug formats a message using the default formats for its operands, and
// writes it to the log with LevelDebug.
func (l *Logger) Debug(args ...interface{}) {
	l.write(LevelDebug, nil, args...)
}

// Debugf formats a message according to a format specifier and writes it to
// the log with LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, &format, args...)
}

// Info formats a message using the default formats for its operands, and
// writes it to the log with LevelInfo.
func (l *Logger) Info(args ...interface{}) {
	l.write(LevelInfo, nil, args...)
}

// Infof formats a message according to a format specifier and writes it to
// the log with LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, &format, args...)
}

// Warn formats a message using the default formats for its operands, and
// writes it to the log with LevelWarn.
func (l *Logger) Warn(args ...interface{}) {
	l.write(LevelWarn, nil, args...)
}

// Warnf formats a message according to a format specifier and writes it to
// the log with LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, &format, args...)
}

// Error formats a message using the default formats for its operands, and
// writes it to the log with LevelError.
func (l *Logger) Error(args ...interface{}) {
	l.write(LevelError, nil, args...)
}

// Errorf formats a message according to a format specifier and writes it to
// the log with LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, &format, args...)
}

// Critical formats a message using the default formats for its operands, and
// writes it to the log with LevelCritical.
func (l *Logger) Critical(args ...interface{}) {
	l.write(LevelCritical, nil, args...)
}

// Criticalf formats a message according to a format specifier and writes it
// to the log with LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, &format, args...)
}

// CriticalfAndExit formats a message according to a format specifier, writes
// it to the log with LevelCritical, and exits the process.
func (l *Logger) CriticalfAndExit(format string, args ...interface{}) {
	l.write(LevelCritical, &format, args...)
	l.b.Close()
	os.Exit(1)
}

// LogAndMeasureExecutionTime logs the start of functionName and returns a
// function that, when deferred, logs its completion time.
func LogAndMeasureExecutionTime(log *Logger, functionName string) (onEnd func()) {
	start := time.Now()
	log.Debugf("%s start", functionName)
	return func() {
		log.Debugf("%s end. Took: %s", functionName, time.Since(start))
	}
}

// Level returns the current logging level.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32((*uint32)(&l.lvl)))
}

// SetLevel changes the logging level to the passed level.
func (l *Logger) SetLevel(logLevel Level) {
	atomic.StoreUint32((*uint32)(&l.lvl), uint32(logLevel))
}
