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
// go build -ldflags "-X github.com/standardbeagle/scalarviz/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output, e.g. when the engine is embedded
// behind a transport that owns stdio (set via SetQuietMode).
var QuietMode = false

// debugOutput is the writer for debug output (defaults to nil, meaning no output)
var debugOutput io.Writer

// debugFile holds the open file handle if debug output goes to a file
var debugFile *os.File

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// SetQuietMode suppresses debug output regardless of EnableDebug/DEBUG.
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file, or an error if initialization fails.
// Call CloseDebugLog when done to ensure the file is properly closed.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "scalarviz-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

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

// IsDebugEnabled returns true if debug mode is enabled and not suppressed by QuietMode.
func IsDebugEnabled() bool {
	if QuietMode {
		return false
	}

	if EnableDebug == "true" {
		return true
	}

	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}

	return false
}

// getDebugWriter returns the writer for debug output, or nil if none is configured
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

// Println prints debug information only when debug mode is enabled and output is configured
func Println(args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprint(w, "[DEBUG] ")
	fmt.Fprintln(w, args...)
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

// LogWatch logs filesystem-watch events: debounced create/write/rename
// notifications coming off fsnotify.
func LogWatch(format string, args ...interface{}) {
	Log("WATCH", format, args...)
}

// LogParse logs wire-format decode progress and scheduler dispatch.
func LogParse(format string, args ...interface{}) {
	Log("PARSE", format, args...)
}

// LogQuery logs line-op composition and GraphLine materialization.
func LogQuery(format string, args ...interface{}) {
	Log("QUERY", format, args...)
}

// LogStore logs file-store and graph-index mutations.
func LogStore(format string, args ...interface{}) {
	Log("STORE", format, args...)
}

// LogServer logs HTTP request handling and server lifecycle events.
func LogServer(format string, args ...interface{}) {
	Log("SERVER", format, args...)
}

// Fatal outputs a catastrophic error message to the debug log and returns a fatal error.
// This function does not call os.Exit - callers should handle the error appropriately.
// In quiet mode, output is suppressed entirely.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		w := getDebugWriter()
		if w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}

// FatalAndExit outputs a catastrophic error message and exits (for CLI use only).
// This should only be used in main.go or other CLI entry points.
// Output goes to the debug log file, not stderr.
func FatalAndExit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		w := getDebugWriter()
		if w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	os.Exit(1)
}

// CatastrophicError outputs an error that indicates system failure to the debug log.
// In quiet mode, this is suppressed so an embedding caller can own error reporting.
func CatastrophicError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		w := getDebugWriter()
		if w != nil {
			fmt.Fprintf(w, "[CATASTROPHIC] %s", msg)
		}
	}
}
