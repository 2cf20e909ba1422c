package logger

import "strings"

// Level is the level at which a logger is configured. All messages sent
// to a level which is below the current level are filtered.
type Level uint32

// Level constants.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

// levelStrs defines the human-readable names for each logging level.
var levelStrs = [...]string{"TRC", "DBG", "INF", "WRN", "ERR", "CRT", "OFF"}

// levelFromStr maps the accepted spellings of each level, long and short,
// to the level itself.
var levelFromStr = map[string]Level{
	"trace": LevelTrace, "trc": LevelTrace,
	"debug": LevelDebug, "dbg": LevelDebug,
	"info": LevelInfo, "inf": LevelInfo,
	"warn": LevelWarn, "wrn": LevelWarn,
	"error": LevelError, "err": LevelError,
	"critical": LevelCritical, "crt": LevelCritical,
	"off": LevelOff,
}

// LevelFromString returns a level based on the input string s. If the input
// can't be interpreted as a valid log level, the info level and false is
// returned.
func LevelFromString(s string) (l Level, ok bool) {
	l, ok = levelFromStr[strings.ToLower(s)]
	if !ok {
		return LevelInfo, false
	}
	return l, true
}

// SupportedLevels returns a comma-separated list of the accepted log level
// names, for use in configuration error messages.
func SupportedLevels() string {
	return "trace, debug, info, warn, error, critical, off"
}

// String returns the tag of the logger used in log messages, or "OFF" if
// the level will not produce any log output.
func (l Level) String() string {
	if l >= LevelOff {
		return "OFF"
	}
	return levelStrs[l]
}
