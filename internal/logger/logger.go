// Package logger builds the process logger. Logs go to stderr, since stdout
// carries result records, and optionally to a rotated file.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lomavis/n8n-lomavis-go/internal/config"
)

const timestampFormat = "2006-01-02 15:04:05.000"

// New creates a logger writing to w (stderr when nil) and to cfg.File if set.
func New(cfg config.LogConfig, w io.Writer) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				s := strings.Split(f.Function, ".")
				return s[len(s)-1], fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
			},
		})
	}

	if w == nil {
		w = os.Stderr
	}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		w = io.MultiWriter(w, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize, // MB
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge, // days
			Compress:   cfg.Compress,
		})
	}
	logger.SetOutput(w)
	logger.SetReportCaller(level >= logrus.DebugLevel)
	return logger, nil
}
