// Package logger provides the process-wide log used by all runner
// components. Output goes to stderr until Init points it at a file.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	logFile      *os.File
	verbose      bool
	mu           sync.Mutex
)

// Init redirects the global logger to the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Close previous log file if exists
	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// SetVerbose enables debug-level output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Close closes the log file and falls back to stderr.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	globalLogger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	globalLogger.Printf("[INFO] "+format, v...)
}

// Debug logs a debug message. Suppressed unless SetVerbose(true).
func Debug(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if verbose {
		globalLogger.Printf("[DEBUG] "+format, v...)
	}
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	globalLogger.Printf("[ERROR] "+format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	globalLogger.Printf("[WARN] "+format, v...)
}

// GetWriter returns the raw log sink. The event gate streams its wait
// progress dots here, bypassing the line-oriented helpers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return os.Stderr
}
