// Package logx provides component-scoped logging for the agent runtime.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes timestamped, component-tagged log lines to stderr.
type Logger struct {
	component string
	logger    *log.Logger
}

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Debug logging is controlled process-wide: DEBUG=1 enables it, and
// DEBUG_COMPONENTS=restclient,taoloop restricts it to specific components.
var (
	debugMutex      sync.RWMutex
	debugEnabled    bool
	debugComponents map[string]bool
)

//nolint:gochecknoinits // Required for env var initialization
func init() {
	initDebugFromEnv()
}

func initDebugFromEnv() {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	debug := os.Getenv("DEBUG")
	debugEnabled = debug == "1" || strings.EqualFold(debug, "true")
	debugComponents = nil

	if components := os.Getenv("DEBUG_COMPONENTS"); components != "" {
		debugComponents = make(map[string]bool)
		for _, c := range strings.Split(components, ",") {
			debugComponents[strings.TrimSpace(c)] = true
		}
	}
}

// SetDebug overrides the environment-derived debug configuration.
func SetDebug(enabled bool, components []string) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	debugEnabled = enabled
	if len(components) == 0 {
		debugComponents = nil // All components
	} else {
		debugComponents = make(map[string]bool, len(components))
		for _, c := range components {
			debugComponents[strings.TrimSpace(c)] = true
		}
	}
}

// IsDebugEnabled reports whether debug logging is enabled for the component.
func IsDebugEnabled(component string) bool {
	debugMutex.RLock()
	defer debugMutex.RUnlock()

	if !debugEnabled {
		return false
	}
	if debugComponents == nil {
		return true
	}
	return debugComponents[component]
}

// NewLogger creates a logger scoped to one component (e.g. "restclient").
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0), // Log to stderr for CLI compatibility
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)
}

func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabled(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}
