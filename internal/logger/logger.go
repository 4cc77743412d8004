package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	File  string // empty logs to stderr only
	Level string
}

// Setup initializes Logrus on a rotating file and returns the writer so the
// access log can share it.
func Setup(opts Options) io.Writer {
	var out io.Writer = os.Stderr
	if opts.File != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,
			MaxAge:     7, // days
			Compress:   true,
		})
	}

	logrus.SetOutput(out)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	return out
}

// GormLogger routes GORM's SQL and slow-query logs through Logrus.
func GormLogger(level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(
		logrus.StandardLogger(),
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
