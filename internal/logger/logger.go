package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps the zap logger with additional functionality
type Logger struct {
	*zap.Logger
}

// Options controls where log entries go and which entries are kept.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Dir is the directory for the log file. Empty disables file output.
	Dir string
	// File is the log file name inside Dir.
	File string
}

// NewLogger creates a new logger instance with production configuration
func NewLogger() (*Logger, error) {
	return NewLoggerWithOptions(Options{})
}

// NewLoggerWithOptions builds a logger that writes to stdout and, when Dir is
// set, also appends JSON entries to Dir/File.
func NewLoggerWithOptions(opts Options) (*Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}

		file := opts.File
		if file == "" {
			file = "scalper.log"
		}

		config.OutputPaths = append(config.OutputPaths, filepath.Join(opts.Dir, file))
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		Logger: zapLogger,
	}, nil
}

// NewNopLogger returns a logger that discards everything. Used in tests.
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// ParseLevel maps a textual level to a zap level. Empty input means info.
func ParseLevel(level string) (zapcore.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zapcore.InfoLevel, nil
	}

	return zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l.Logger != nil {
		return l.Logger.Sync()
	}

	return nil
}
