package logger

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Config selects level, encoding and sink of the service logger.
type Config struct {
	Level      string // debug|info|warn|error
	Format     string // json|console
	OutputFile string // stdout, stderr or a file path
}

func lookup(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// ConfigFromEnv reads LOG_LEVEL, LOG_FORMAT and LOG_OUTPUT_FILE.
func ConfigFromEnv() Config {
	return Config{
		Level:      strings.ToLower(lookup("LOG_LEVEL", "info")),
		Format:     strings.ToLower(lookup("LOG_FORMAT", "json")),
		OutputFile: lookup("LOG_OUTPUT_FILE", "stdout"),
	}
}

// ZapLevel maps Level onto zapcore, falling back to info.
func (c Config) ZapLevel() zapcore.Level {
	switch c.Level {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (c Config) console() bool {
	return c.Format == "console" || c.Format == "text"
}
