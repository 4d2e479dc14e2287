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
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RotationConfig controls log-file rotation.
type RotationConfig struct {
	// Filename is the log file path.
	Filename string

	// MaxSize is the per-file size limit in MB.
	MaxSize int

	// MaxAge is the retention in days.
	MaxAge int

	// MaxBackups bounds how many rotated files are kept.
	MaxBackups int

	// Compress marks rotated files for compression.
	Compress bool

	// LocalTime is not read by the writer; backup file names always
	// carry local time.
	LocalTime bool
}

// RotatingFileWriter is a size- and date-rotating file writer.
type RotatingFileWriter struct {
	mu     sync.Mutex
	config RotationConfig

	file    *os.File
	size    int64
	lastDay int
}

// NewRotatingFileWriter opens (creating as needed) the configured
// log file and starts the background retention sweep.
func NewRotatingFileWriter(config RotationConfig) (*RotatingFileWriter, error) {
	if config.MaxSize == 0 {
		config.MaxSize = 100
	}
	if config.MaxAge == 0 {
		config.MaxAge = 7
	}
	if config.MaxBackups == 0 {
		config.MaxBackups = 10
	}

	w := &RotatingFileWriter{
		config: config,
	}

	// Open the log file.
	if err := w.openFile(); err != nil {
		return nil, err
	}

	// Start the periodic cleanup.
	go w.cleanupRoutine()

	return w, nil
}

// Write implements io.Writer.
func (w *RotatingFileWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Rotate first if this write would cross a boundary.
	if w.shouldRotate(len(p)) {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err = w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Sync implements zapcore.WriteSyncer.
func (w *RotatingFileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

// Close closes the underlying file.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// openFile opens the configured log file.
func (w *RotatingFileWriter) openFile() error {
	// Create the directory.
	dir := filepath.Dir(w.config.Filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Open the file.
	file, err := os.OpenFile(w.config.Filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	// Record the current size.
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}

	w.file = file
	w.size = info.Size()
	w.lastDay = time.Now().Day()

	return nil
}

// shouldRotate reports whether the next write needs a fresh file.
func (w *RotatingFileWriter) shouldRotate(writeLen int) bool {
	// Size boundary.
	if w.size+int64(writeLen) >= int64(w.config.MaxSize)*1024*1024 {
		return true
	}

	// Date boundary (daily rotation).
	currentDay := time.Now().Day()
	if currentDay != w.lastDay {
		return true
	}

	return false
}

// rotate closes, renames and reopens the log file.
func (w *RotatingFileWriter) rotate() error {
	// Close the current file.
	if w.file != nil {
		w.file.Close()
	}

	// Rename it aside.
	timestamp := time.Now().Format("2006-01-02-15-04-05")
	backupName := w.config.Filename + "." + timestamp

	if err := os.Rename(w.config.Filename, backupName); err != nil {
		// If the rename failed, just reopen in place.
		return w.openFile()
	}

	// Compress the rotated file in the background if asked.
	if w.config.Compress {
		go compressFile(backupName)
	}

	// Open the new file.
	return w.openFile()
}

// cleanupRoutine sweeps expired log files on a timer.
func (w *RotatingFileWriter) cleanupRoutine() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		w.cleanup()
	}
}

// cleanup removes rotated files past the age or count limits.
func (w *RotatingFileWriter) cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(w.config.Filename)
	base := filepath.Base(w.config.Filename)

	files, err := filepath.Glob(filepath.Join(dir, base+".*"))
	if err != nil {
		return
	}

	// Glob returns names in lexical order, which the timestamp suffix
	// makes oldest first.
	cutoff := time.Now().AddDate(0, 0, -w.config.MaxAge)

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}

		// Age limit.
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
			continue
		}
	}

	// Count limit.
	if len(files) > w.config.MaxBackups {
		// Drop the oldest files.
		for i := 0; i < len(files)-w.config.MaxBackups; i++ {
			os.Remove(files[i])
		}
	}
}

// compressFile marks a rotated file as compressed.
func compressFile(filename string) {
	// TODO: run a real gzip pass here; today this only renames.
	newName := filename + ".gz"
	os.Rename(filename, newName)
}

// NewRotatingLogger builds a Logger writing through a rotating file
// writer.
func NewRotatingLogger(cfg *Config, rotationCfg RotationConfig) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig
	}

	// The rotating writer.
	writer, err := NewRotatingFileWriter(rotationCfg)
	if err != nil {
		return nil, err
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

	// Build the encoder.
	var encoder zapcore.Encoder
	if cfg.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	// Core over the rotating writer.
	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(writer),
		level,
	)

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
