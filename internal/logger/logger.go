// Package logger provides structured logging for aroresolve
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with aroresolve-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// ParseLevel maps a configured level name, defaulting to info
func ParseLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new structured logger
func NewLogger(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	// Pretty printing for development
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "aroresolve").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// GetZerolog returns the underlying zerolog logger
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

// Info logs an info message
func (l *Logger) Info(msg string) *zerolog.Event {
	return l.zlog.Info().Str("msg", msg)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string) *zerolog.Event {
	return l.zlog.Debug().Str("msg", msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string) *zerolog.Event {
	return l.zlog.Warn().Str("msg", msg)
}

// Error logs an error message
func (l *Logger) Error(msg string) *zerolog.Event {
	return l.zlog.Error().Str("msg", msg)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(msg string) *zerolog.Event {
	return l.zlog.Fatal().Str("msg", msg)
}

// GrpcLogger returns a logger for gRPC operations
func (l *Logger) GrpcLogger(method string) *Logger {
	return &Logger{
		zlog: l.zlog.With().
			Str("component", "grpc").
			Str("method", method).
			Logger(),
	}
}

// EngineLogger returns a logger for the resolution engine, suitable for
// engine.WithLogger
func (l *Logger) EngineLogger(operation string) zerolog.Logger {
	return l.zlog.With().
		Str("component", "engine").
		Str("operation", operation).
		Logger()
}

// LogGrpcRequest logs a completed gRPC request. Caller mistakes (bad
// arguments, unknown keys) are logged at warn, everything else failing at
// error.
func (l *Logger) LogGrpcRequest(method string, duration time.Duration, code string, err error) {
	var event *zerolog.Event
	switch {
	case err == nil:
		event = l.zlog.Info()
	case code == "InvalidArgument" || code == "NotFound":
		event = l.zlog.Warn().Err(err)
	default:
		event = l.zlog.Error().Err(err)
	}

	event.
		Str("component", "grpc").
		Str("method", method).
		Str("code", code).
		Dur("duration_ms", duration).
		Msg("gRPC request completed")
}

// LogResolution logs one resolution outcome at debug level
func (l *Logger) LogResolution(kind, outcome string, candidates int) {
	l.zlog.Debug().
		Str("component", "resolver").
		Str("kind", kind).
		Str("outcome", outcome).
		Int("candidates", candidates).
		Msg("Query resolved")
}

// LogServerStart logs server startup
func (l *Logger) LogServerStart(port int, ontologyPath string) {
	l.zlog.Info().
		Str("event", "server_start").
		Int("port", port).
		Str("ontology", ontologyPath).
		Msg("aroresolve server starting")
}

// LogServerReady logs when server is ready
func (l *Logger) LogServerReady(port int, generation uint32, entries int) {
	l.zlog.Info().
		Str("event", "server_ready").
		Int("port", port).
		Uint32("generation", generation).
		Int("entries", entries).
		Msg("aroresolve server ready to accept connections")
}

// LogServerShutdown logs server shutdown
func (l *Logger) LogServerShutdown() {
	l.zlog.Info().
		Str("event", "server_shutdown").
		Msg("aroresolve server shutting down")
}

// Global logger instance
var globalLogger *Logger

// InitGlobalLogger initializes the global logger
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		InitGlobalLogger(Config{
			Level:  "info",
			Pretty: true,
		})
	}
	return globalLogger
}
