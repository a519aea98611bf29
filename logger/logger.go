package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
	initOnce      sync.Once
)

// Init initializes the logger writing to stdout. Only the first call, or
// the first call to InitWithWriter, has any effect.
func Init() {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
		setDefault(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	})
}

// InitWithWriter replaces the default logger with one writing to w
func InitWithWriter(w io.Writer) {
	initOnce.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339
	})
	setDefault(w)
}

func setDefault(w io.Writer) {
	level := getLogLevel()
	zerolog.SetGlobalLevel(level)

	l := &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()

	l.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// Default returns the process-wide logger, initializing it on first use
func Default() *Logger {
	return get()
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("CARSPEC_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithField returns a child logger that adds key to every event
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Global functions for bootstrapping code that runs before components exist

// Info logs an info message
func Info(format string, v ...interface{}) {
	get().Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	get().Warn().Msgf(format, v...)
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	get().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

// ForOrchestrator creates a logger for the crawl orchestrator
func ForOrchestrator() *Logger {
	return get().WithField("component", "orchestrator")
}

// ForFetcher creates a logger for the page fetcher
func ForFetcher() *Logger {
	return get().WithField("component", "fetcher")
}

// ForStore creates a logger for the persistence collaborator
func ForStore() *Logger {
	return get().WithField("component", "store")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return get().WithField("component", "publisher")
}

// ForWorker creates a logger for the scheduled worker
func ForWorker() *Logger {
	return get().WithField("component", "worker")
}

// ForAPI creates a logger for the HTTP trigger surface
func ForAPI() *Logger {
	return get().WithField("component", "api")
}

func get() *Logger {
	Init()
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}
