// Package log provides the application-wide structured logger.
package log

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger = logrus.New()
	once   sync.Once
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// Options controls logger setup.
type Options struct {
	Level string // debug, info, warn, error
	File  string // rotating log file; empty disables file output
}

// Init configures the shared logger. Only the first call has an effect.
func Init(opts Options) *logrus.Logger {
	once.Do(func() {
		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		logger.SetLevel(level)

		logger.SetFormatter(newFormatter(false))

		writers := []io.Writer{os.Stderr}
		if opts.File != "" && os.Getenv("APP_ENV") != "test" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   opts.File,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    20,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}

		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})
	return logger
}

func newFormatter(noColors bool) *formatter.Formatter {
	return &formatter.Formatter{
		NoColors:        noColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			f = callSite(f)
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	}
}

// thisFile is log.go itself; frames in it are the Debug/Info/Warn/Error wrappers.
var _, thisFile, _, _ = runtime.Caller(0)

// callSite replaces a caller frame that points into the wrappers with the
// frame that called them. The formatter runs on the logging goroutine, so
// the caller is still on the stack.
func callSite(f *runtime.Frame) *runtime.Frame {
	if f == nil || f.File != thisFile {
		return f
	}
	pcs := make([]uintptr, 32)
	frames := runtime.CallersFrames(pcs[:runtime.Callers(2, pcs)])
	for {
		fr, more := frames.Next()
		if fr.File != thisFile && !internalFrame(fr.Function) {
			return &fr
		}
		if !more {
			return f
		}
	}
}

func internalFrame(fn string) bool {
	for _, prefix := range []string{"runtime.", "github.com/sirupsen/logrus.", "github.com/antonfisher/nested-logrus-formatter."} {
		if strings.HasPrefix(fn, prefix) {
			return true
		}
	}
	return false
}

// L returns the shared logger.
func L() *logrus.Logger {
	return logger
}

func Debug(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Debug(msg)
}

func Info(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Info(msg)
}

func Warn(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Warn(msg)
}

func Error(fields Fields, msg string) {
	logger.WithFields(orEmpty(fields)).Error(msg)
}

func orEmpty(fields Fields) Fields {
	if fields == nil {
		return Fields{}
	}
	return fields
}

// SetLevel changes the level of the shared logger. Unknown names are ignored.
func SetLevel(name string) {
	if level, err := logrus.ParseLevel(name); err == nil {
		logger.SetLevel(level)
	}
}
