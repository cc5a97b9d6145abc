package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/fuzzyhash/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// ServerMode is set while the MCP stdio server owns stdin/stdout
var ServerMode = false

var (
	// verbose is the runtime switch set by the CLI --verbose flag
	verbose bool

	// debugOutput is the writer for debug output (nil means no output)
	debugOutput io.Writer

	// debugFile holds the open file handle if debug output goes to a file
	debugFile *os.File

	debugMutex sync.Mutex
)

// SetServerMode enables server mode which suppresses all debug output
func SetServerMode(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	ServerMode = enabled
}

// SetVerbose turns debug output on or off at runtime
func SetVerbose(enabled bool) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	verbose = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile routes debug output to a timestamped file in the temp dir.
// Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "fuzzyhash-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s-%d.log", timestamp, os.Getpid()))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled and output cannot
// interfere with a stdio server. A debug log file is always safe.
func IsDebugEnabled() bool {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if ServerMode && debugFile == nil {
		return false
	}
	if EnableDebug == "true" || verbose {
		return true
	}

	// Allow runtime override via environment variable
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogManifest logs manifest build and check activity
func LogManifest(format string, args ...interface{}) {
	Log("MANIFEST", format, args...)
}

// LogWatch logs watcher events
func LogWatch(format string, args ...interface{}) {
	Log("WATCH", format, args...)
}

// LogMCP logs MCP server activity
func LogMCP(format string, args ...interface{}) {
	Log("MCP", format, args...)
}

// LogCLI logs command dispatch
func LogCLI(format string, args ...interface{}) {
	Log("CLI", format, args...)
}

// Fatal writes a fatal message to the debug log and returns it as an error.
// Callers decide how to exit.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	debugMutex.Lock()
	w := debugOutput
	if ServerMode && debugFile == nil {
		w = nil
	}
	debugMutex.Unlock()
	if w != nil {
		fmt.Fprintf(w, "[FATAL] %s\n", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
