package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	loggerMu  sync.Mutex
	cliLogger = zap.NewNop()

	cleanupMu sync.Mutex
	cleanups  []func()
)

// LogOptions controls CLI log output.
type LogOptions struct {
	Verbose bool
	Format  string
	File    string
}

// SetupLogging builds the CLI logger from the global flags.
func SetupLogging() error {
	logger, err := NewLogger(LogOptions{
		Verbose: viper.GetBool("verbose"),
		Format:  viper.GetString("log-format"),
		File:    viper.GetString("log-file"),
	})
	if err != nil {
		return err
	}

	loggerMu.Lock()
	cliLogger = logger
	loggerMu.Unlock()

	registerCleanup(func() { _ = logger.Sync() })

	return nil
}

// NewLogger creates a zap logger writing to stderr, or to a rotated file
// when opts.File is set. Warnings and errors are always emitted; debug
// output requires Verbose.
func NewLogger(opts LogOptions) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zap.WarnLevel)
	if opts.Verbose {
		level.SetLevel(zap.DebugLevel)
	}

	var encoder zapcore.Encoder

	switch strings.ToLower(opts.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "", "console":
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encoder = zapcore.NewConsoleEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unsupported log format %q", opts.Format)
	}

	var sink zapcore.WriteSyncer

	if opts.File != "" {
		dir := filepath.Dir(opts.File)

		err := os.MkdirAll(dir, constants.ConfigDirPerm)
		if err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    constants.LogMaxSizeMB,
			MaxBackups: constants.LogMaxBackups,
			MaxAge:     constants.LogMaxAgeDays,
			Compress:   true,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewTee(zapcore.NewCore(encoder, sink, level))

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)), nil
}

func currentLogger() *zap.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	return cliLogger
}

// Shutdown flushes the logger and closes connections opened by commands.
func Shutdown() {
	cleanupMu.Lock()
	pending := cleanups
	cleanups = nil
	cleanupMu.Unlock()

	// Reverse order so the logger outlives the things that log on close.
	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}

func registerCleanup(fn func()) {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()

	cleanups = append(cleanups, fn)
}

// zapLogger adapts a zap logger to masto.Logger.
type zapLogger struct {
	logger *zap.Logger
}

var _ masto.Logger = (*zapLogger)(nil)

func newZapLogger(logger *zap.Logger) *zapLogger {
	return &zapLogger{logger: logger}
}

func (l *zapLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, zapFields(fields)...)
}

func (l *zapLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, zapFields(fields)...)
}

func (l *zapLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, zapFields(fields)...)
}

func (l *zapLogger) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, zapFields(fields)...)
}

func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	result := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		result = append(result, zap.Any(key, value))
	}

	return result
}
