// Package log is a thin facade over logrus.
//
// Nothing is emitted unless logs.write is enabled or a command opts into
// console output with ToStderr.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/seamui/seamui/filesystem"
	"github.com/seamui/seamui/key"
	"github.com/seamui/seamui/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Fields is an alias so callers don't import logrus directly.
type Fields = logrus.Fields

var (
	enabled bool
	discard = &logrus.Logger{Out: io.Discard, Formatter: new(logrus.TextFormatter), Hooks: make(logrus.LevelHooks), Level: logrus.PanicLevel}
)

// Setup opens today's log file under where.Logs and configures format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logrus.SetOutput(f)
	configure()

	return nil
}

// ToStderr enables logging to stderr when no log file is configured.
// Long-running headless commands use it.
func ToStderr() {
	if enabled {
		return
	}

	enabled = true
	logrus.SetOutput(os.Stderr)
	configure()
}

func configure() {
	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Enabled reports whether anything is being logged.
func Enabled() bool {
	return enabled
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields Fields) *logrus.Entry {
	if !enabled {
		return logrus.NewEntry(discard).WithFields(fields)
	}
	return logrus.WithFields(fields)
}

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}

func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}

func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}

func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
