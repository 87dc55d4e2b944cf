// Package log sets up logrus for u2spool.
package log

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/seedtray/unified2/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the standard logrus logger, which the unified2 readers
// log to by default. The returned closer releases the log file, if any.
func Init(cfg config.LogConfig) (io.Closer, error) {
	return Configure(logrus.StandardLogger(), cfg)
}

// Configure applies cfg to logger. Output always goes to stderr, and also
// to a rotating file when cfg.File.Path is set.
func Configure(logger *logrus.Logger, cfg config.LogConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var formatter logrus.Formatter
	switch strings.ToLower(cfg.Format) {
	case "json":
		formatter = &logrus.JSONFormatter{}
	case "text", "":
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	default:
		return nil, fmt.Errorf("unsupported log format: %s (must be json or text)", cfg.Format)
	}

	writers := []io.Writer{os.Stderr}
	var closer io.Closer = nopCloser{}
	if cfg.File.Path != "" {
		file := newFileWriter(cfg.File)
		writers = append(writers, file)
		closer = file
	}

	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	logger.SetOutput(io.MultiWriter(writers...))
	return closer, nil
}

// newFileWriter creates a lumberjack file writer for log rotation.
func newFileWriter(fc config.FileConfig) *lumberjack.Logger {
	maxSize := 0
	if fc.MaxSize > 0 {
		maxSize = int(math.Ceil(fc.MaxSize.MBytes()))
	}
	return &lumberjack.Logger{
		Filename:   fc.Path,
		MaxSize:    maxSize, // megabytes
		MaxBackups: fc.MaxBackups,
		MaxAge:     fc.MaxAgeDays, // days
		Compress:   fc.Compress,
	}
}
