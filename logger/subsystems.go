package logger

import (
	"fmt"
	"os"
	"sync"
)

// backendLog is the logging backend used to create all subsystem loggers.
var backendLog = NewBackend()

var (
	subsystemsMtx sync.Mutex
	subsystems    = make(map[string]*Logger)
)

// RegisterSubSystem returns the logger for the given subsystem tag, creating
// it if it's the first request for that tag. Packages call this in their
// log.go to obtain their package-level logger.
func RegisterSubSystem(subsystemTag string) *Logger {
	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()

	logger, ok := subsystems[subsystemTag]
	if !ok {
		logger = backendLog.Logger(subsystemTag)
		subsystems[subsystemTag] = logger
	}
	return logger
}

// InitLog attaches log file and error log file to the backend log, alongside
// a stdout writer for interactive use.
func InitLog(logFile, errLogFile string) {
	err := backendLog.AddLogWriter(os.Stdout, LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding stdout to the logger for level %s: %s", LevelInfo, err)
		os.Exit(1)
	}
	err = backendLog.AddLogFile(logFile, LevelTrace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", logFile, LevelTrace, err)
		os.Exit(1)
	}
	err = backendLog.AddLogFile(errLogFile, LevelWarn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error adding log file %s as log rotator for level %s: %s", errLogFile, LevelWarn, err)
		os.Exit(1)
	}
}

// SetLogLevels sets the logging level for all of the subsystems to the passed
// level. It returns false if the level string is invalid.
func SetLogLevels(logLevel string) bool {
	level, ok := LevelFromString(logLevel)
	if !ok {
		return false
	}

	subsystemsMtx.Lock()
	defer subsystemsMtx.Unlock()
	for _, logger := range subsystems {
		logger.SetLevel(level)
	}
	return true
}

// BackendLog returns the backend log to let the caller flush and close the
// log writers on shutdown.
func BackendLog() *Backend {
	return backendLog
}
