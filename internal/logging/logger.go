// logger.go - Centralized logging configuration for the Flowise MCP server.
//
// This package provides a structured logging solution using Go's slog package
// with configurable log levels, structured output, and component-based loggers.
//
// Key Features:
// - Structured logging with key-value pairs
// - Configurable log levels (DEBUG, INFO, WARN, ERROR)
// - Component-based loggers with automatic prefixing
// - Environment-based configuration
// - Support for both text and JSON output formats
//
// Usage:
//   logger := logging.GetLogger("flowise")
//   logger.Info("Prediction request sent", "chatflow_id", chatflowID)
//   logger.Error("Prediction failed", "error", err)
//
// Configuration:
// - LOG_LEVEL: Set to DEBUG, INFO, WARN, or ERROR (default: INFO)
// - LOG_FORMAT: Set to "json" for JSON output, "text" for human-readable (default: text)
// - MCP_LOG_FILE: Optional file path for log output
//
// Logs always go to stderr (or the configured file), never stdout: stdout
// carries the MCP stdio transport.

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	defaultLogger *slog.Logger
	logLevel      slog.Level = slog.LevelDebug // Start with maximum verbosity until config is loaded
)

// Initialize sets up the global logger configuration based on environment variables.
// This is used for early initialization before config loading.
// IMPORTANT: Defaults to DEBUG level to capture all config loading details.
func Initialize() {
	InitializeFromEnv()
}

// InitializeFromEnv sets up logging from environment variables only.
// Used during early startup before a config object is available.
func InitializeFromEnv() {
	logLevel = parseLevel(os.Getenv("LOG_LEVEL"), slog.LevelDebug)

	output := resolveOutput(os.Getenv("MCP_LOG_FILE"))
	defaultLogger = slog.New(buildHandler(output, os.Getenv("LOG_FORMAT")))
	slog.SetDefault(defaultLogger)
}

// LoggingConfig defines the configuration surface the logging package needs.
// internal/config.Config satisfies it.
type LoggingConfig interface {
	GetLogLevel() string
	GetLogFormat() string
	GetLogFile() string
}

// InitializeFromConfig reinitializes logging based on a configuration object.
// This is called after config loading to apply any settings from config files.
// Note: this may reduce verbosity from the initial DEBUG level used during
// config loading.
func InitializeFromConfig(cfg LoggingConfig) {
	levelStr := cfg.GetLogLevel()
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}
	formatStr := cfg.GetLogFormat()
	if formatStr == "" {
		formatStr = os.Getenv("LOG_FORMAT")
	}
	fileStr := cfg.GetLogFile()
	if fileStr == "" {
		fileStr = os.Getenv("MCP_LOG_FILE")
	}

	// After config loading, default to INFO level (less verbose than initial DEBUG)
	logLevel = parseLevel(levelStr, slog.LevelInfo)

	output := resolveOutput(fileStr)
	defaultLogger = slog.New(buildHandler(output, formatStr))
	slog.SetDefault(defaultLogger)

	refreshComponentLoggers()

	defaultLogger.Debug("Logging reconfigured from config",
		"final_log_level", logLevel.String(),
		"log_format", strings.ToLower(formatStr),
		"log_file", fileStr)
}

func parseLevel(levelStr string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return fallback
	}
}

func resolveOutput(logFile string) io.Writer {
	var output io.Writer = os.Stderr
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			// Fallback to stderr and log the error
			slog.Error("Failed to open log file, using stderr", "file", logFile, "error", err)
		} else {
			output = file
		}
	}
	return output
}

func buildHandler(output io.Writer, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(output, opts)
	}
	return slog.NewTextHandler(output, opts)
}

// GetLogger returns a component-specific logger with the given component name.
// The component name will be included in all log entries for easier filtering.
func GetLogger(component string) *slog.Logger {
	if defaultLogger == nil {
		Initialize()
	}
	return defaultLogger.With("component", component)
}

// GetLevel returns the current log level
func GetLevel() slog.Level {
	return logLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return logLevel <= slog.LevelDebug
}

// Component-specific logger instances for commonly used components
var (
	AuthLogger    = GetLogger("auth")
	ConfigLogger  = GetLogger("config")
	FlowiseLogger = GetLogger("flowise")
	ToolsLogger   = GetLogger("tools")
	MainLogger    = GetLogger("main")
)

// refreshComponentLoggers rebinds the package-level loggers after the default
// handler has been replaced, so components pick up the new level and output.
func refreshComponentLoggers() {
	AuthLogger = GetLogger("auth")
	ConfigLogger = GetLogger("config")
	FlowiseLogger = GetLogger("flowise")
	ToolsLogger = GetLogger("tools")
	MainLogger = GetLogger("main")
}
