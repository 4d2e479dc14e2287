// Copyright 2026 The NexusDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"sync"

	"github.com/nexusdb/core/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// globalLogger is the process-wide logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Logger is the structured logger wrapper.
type Logger struct {
	zap    *zap.Logger
	sugar  *zap.SugaredLogger
	config *Config
}

// Config controls logger construction.
type Config struct {
	// Level is one of debug, info, warn, error, dpanic, panic, fatal.
	Level string

	// OutputPaths lists log destinations,
	// e.g. ["stdout", "/var/log/nexusdb/app.log"].
	OutputPaths []string

	// ErrorOutputPaths lists destinations for Error and above.
	ErrorOutputPaths []string

	// Encoding is "json" or "console".
	Encoding string

	// Development enables dev-mode behavior (richer stacktraces).
	Development bool

	// DisableCaller drops the caller file/line annotation.
	DisableCaller bool

	// DisableStacktrace drops automatic stacktraces.
	DisableStacktrace bool

	// EnableColor colorizes levels (console encoding only).
	EnableColor bool
}

// DefaultConfig is the stock configuration.
var DefaultConfig = &Config{
	Level:             "info",
	OutputPaths:       []string{"stdout"},
	ErrorOutputPaths:  []string{"stderr"},
	Encoding:          "console",
	Development:       false,
	DisableCaller:     false,
	DisableStacktrace: false,
	EnableColor:       true,
}

// ProductionConfig is the production preset.
var ProductionConfig = &Config{
	Level:             "info",
	OutputPaths:       []string{"stdout", "/var/log/metastore/app.log"},
	ErrorOutputPaths:  []string{"stderr", "/var/log/metastore/error.log"},
	Encoding:          "json",
	Development:       false,
	DisableCaller:     false,
	DisableStacktrace: true,
	EnableColor:       false,
}

// DevelopmentConfig is the development preset.
var DevelopmentConfig = &Config{
	Level:             "debug",
	OutputPaths:       []string{"stdout"},
	ErrorOutputPaths:  []string{"stderr"},
	Encoding:          "console",
	Development:       true,
	DisableCaller:     false,
	DisableStacktrace: false,
	EnableColor:       true,
}

// NewLogger builds a Logger from cfg.
func NewLogger(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}

	// Parse the level.
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	// Encoder configuration.
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	// Colorized levels for console encoding.
	if cfg.Encoding == "console" && cfg.EnableColor {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Build the core.
	var cores []zapcore.Core

	// Output paths.
	for _, path := range cfg.OutputPaths {
		writer := getWriter(path)
		var encoder zapcore.Encoder
		if cfg.Encoding == "json" {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		}

		core := zapcore.NewCore(
			encoder,
			zapcore.AddSync(writer),
			level,
		)
		cores = append(cores, core)
	}

	// Error output paths.
	if len(cfg.ErrorOutputPaths) > 0 {
		for _, path := range cfg.ErrorOutputPaths {
			if contains(cfg.OutputPaths, path) {
				continue // already added
			}

			writer := getWriter(path)
			var encoder zapcore.Encoder
			if cfg.Encoding == "json" {
				encoder = zapcore.NewJSONEncoder(encoderConfig)
			} else {
				encoder = zapcore.NewConsoleEncoder(encoderConfig)
			}

			// The error sink only records Error and above.
			core := zapcore.NewCore(
				encoder,
				zapcore.AddSync(writer),
				zapcore.ErrorLevel,
			)
			cores = append(cores, core)
		}
	}

	// Merge the cores.
	core := zapcore.NewTee(cores...)

	// Build the zap logger.
	opts := []zap.Option{
		zap.AddCaller(),
	}

	if cfg.DisableCaller {
		opts = []zap.Option{}
	}

	if !cfg.DisableStacktrace {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	zapLogger := zap.New(core, opts...)

	return &Logger{
		zap:    zapLogger,
		sugar:  zapLogger.Sugar(),
		config: cfg,
	}, nil
}

// InitGlobalLogger installs the process-wide logger once.
func InitGlobalLogger(cfg *Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = NewLogger(cfg)
	})
	return err
}

// InitFromConfig converts a config-file LogConfig into this
// package's Config and installs the global logger.
func InitFromConfig(cfg *config.LogConfig) error {
	if cfg == nil {
		return InitGlobalLogger(DefaultConfig)
	}

	logCfg := &Config{
		Level:             cfg.Level,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.ErrorOutputPaths,
		Encoding:          cfg.Encoding,
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: false,
		EnableColor:       cfg.Encoding == "console",
	}

	return InitGlobalLogger(logCfg)
}

// GetLogger returns the global logger.
func GetLogger() *Logger {
	if globalLogger == nil {
		// Lazily fall back to the default configuration.
		_ = InitGlobalLogger(DefaultConfig)
	}
	return globalLogger
}

// ReplaceGlobalLogger swaps the global logger.
func ReplaceGlobalLogger(logger *Logger) {
	globalLogger = logger
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// With returns a child logger carrying extra fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{
		zap:    l.zap.With(fields...),
		sugar:  l.sugar.With(fields),
		config: l.config,
	}
}

// Named returns a named child logger.
func (l *Logger) Named(name string) *Logger {
	return &Logger{
		zap:    l.zap.Named(name),
		sugar:  l.sugar.Named(name),
		config: l.config,
	}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.zap.Debug(msg, fields...)
}

// Info logs at info level.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.zap.Info(msg, fields...)
}

// Warn logs at warn level.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.zap.Warn(msg, fields...)
}

// Error logs at error level.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.zap.Error(msg, fields...)
}

// DPanic logs at dpanic level (panics in development mode).
func (l *Logger) DPanic(msg string, fields ...zap.Field) {
	l.zap.DPanic(msg, fields...)
}

// Panic logs then panics.
func (l *Logger) Panic(msg string, fields ...zap.Field) {
	l.zap.Panic(msg, fields...)
}

// Fatal logs then exits the process.
func (l *Logger) Fatal(msg string, fields ...zap.Field) {
	l.zap.Fatal(msg, fields...)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

// Warnf logs a formatted warn message.
func (l *Logger) Warnf(template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(template string, args ...interface{}) {
	l.sugar.Errorf(template, args...)
}

// DPanicf logs a formatted dpanic message.
func (l *Logger) DPanicf(template string, args ...interface{}) {
	l.sugar.DPanicf(template, args...)
}

// Panicf logs a formatted message then panics.
func (l *Logger) Panicf(template string, args ...interface{}) {
	l.sugar.Panicf(template, args...)
}

// Fatalf logs a formatted message then exits.
func (l *Logger) Fatalf(template string, args ...interface{}) {
	l.sugar.Fatalf(template, args...)
}

// getWriter resolves one output path to a Writer.
func getWriter(path string) zapcore.WriteSyncer {
	switch path {
	case "stdout":
		return zapcore.AddSync(os.Stdout)
	case "stderr":
		return zapcore.AddSync(os.Stderr)
	default:
		// File output (the parent directory is not created).
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			// Fall back to stdout on failure.
			return zapcore.AddSync(os.Stdout)
		}
		return zapcore.AddSync(file)
	}
}

// contains reports whether s holds v.
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// Package-level helpers over the global logger.

// Debug logs at debug level on the global logger.
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Info logs at info level on the global logger.
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Warn logs at warn level on the global logger.
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs at error level on the global logger.
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs on the global logger then exits.
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// Debugf logs a formatted debug message on the global logger.
func Debugf(template string, args ...interface{}) {
	GetLogger().Debugf(template, args...)
}

// Infof logs a formatted info message on the global logger.
func Infof(template string, args ...interface{}) {
	GetLogger().Infof(template, args...)
}

// Warnf logs a formatted warn message on the global logger.
func Warnf(template string, args ...interface{}) {
	GetLogger().Warnf(template, args...)
}

// Errorf logs a formatted error message on the global logger.
func Errorf(template string, args ...interface{}) {
	GetLogger().Errorf(template, args...)
}

// Fatalf logs a formatted message on the global logger then exits.
func Fatalf(template string, args ...interface{}) {
	GetLogger().Fatalf(template, args...)
}

// Sync flushes the global logger.
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}
