package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// RootName is the name of the root logger; feed loggers are named below it
	RootName = "rssfetcher"

	timeLayout = "01/02/2006 03:04:05 PM"
)

// Options selects the diagnostic sink.
type Options struct {
	Console bool   // log to stderr instead of File
	File    string // log file path, rotated by lumberjack
	Debug   bool

	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// New builds the process logger. Lines look like
//
//	10/18/2026 09:15:04 AM [INFO] - rssfetcher: total added	{"count": 3}
//
// The returned func flushes and closes the sink.
func New(opts Options) (*zap.Logger, func(), error) {
	var (
		output io.Writer
		closer io.Closer
	)

	if opts.Console {
		output = os.Stderr
	} else {
		if opts.File == "" {
			return nil, nil, fmt.Errorf("log file path is required for the file sink")
		}
		fileWriter := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSize, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAge, 28),
		}
		output = fileWriter
		closer = fileWriter
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	logger := newLogger(zapcore.AddSync(output), level)
	cleanup := func() {
		_ = logger.Sync()
		if closer != nil {
			_ = closer.Close()
		}
	}

	return logger, cleanup, nil
}

func newLogger(ws zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(ws), level)
	return zap.New(core).Named(RootName)
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "T",
		LevelKey:         "L",
		NameKey:          "N",
		MessageKey:       "M",
		StacktraceKey:    "S",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
		EncodeName: func(name string, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("- " + name + ":")
		},
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
