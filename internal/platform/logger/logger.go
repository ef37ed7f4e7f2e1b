package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps *zap.Logger so components can be handed a named child.
type Logger struct {
	*zap.Logger
	cfg Config
}

// New builds a logger from cfg. A broken sink degrades to stdout instead of
// failing startup.
func New(cfg Config) *Logger {
	var zc zap.Config
	if cfg.Level == "debug" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(cfg.ZapLevel())

	zc.OutputPaths = []string{"stdout"}
	zc.ErrorOutputPaths = []string{"stderr"}
	switch cfg.OutputFile {
	case "", "stdout":
	case "stderr":
		zc.OutputPaths = []string{"stderr"}
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.OutputFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "logger: cannot create directory for %s, using stdout: %v\n", cfg.OutputFile, err)
		} else {
			zc.OutputPaths = []string{cfg.OutputFile, "stdout"}
			zc.ErrorOutputPaths = []string{cfg.OutputFile, "stderr"}
		}
	}

	if cfg.console() {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc.Encoding = "json"
	}

	zl, err := zc.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: falling back to zap production logger: %v\n", err)
		zl, _ = zap.NewProduction()
	}

	l := &Logger{Logger: zl, cfg: cfg}
	l.Info("Logger initialized",
		zap.String("level", cfg.Level),
		zap.String("format", zc.Encoding),
		zap.Strings("output_paths", zc.OutputPaths))
	return l
}

// NewLogger builds a logger from the LOG_* environment variables.
func NewLogger() *Logger {
	return New(ConfigFromEnv())
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Named adds a segment to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), cfg: l.cfg}
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), cfg: l.cfg}
}
