// Package logging builds the process logger: a console, an optional
// rotating log file and an optional line sink for the terminal UI.
package logging

import (
	"io"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log outputs. Every output is optional.
type Options struct {
	// Level is a zap level name; empty means info.
	Level string
	// Console receives human readable lines, usually os.Stderr.
	Console io.Writer
	// File is rotated at MaxSizeMB, keeping MaxBackups old files.
	File       string
	MaxSizeMB  int
	MaxBackups int
	// Lines receives each entry as one short line. Lines are dropped while
	// the channel is full.
	Lines chan<- string
}

// New builds the logger. The closer releases the log file.
func New(opts Options) (golog.Logger, io.Closer, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, errors.Wrapf(err, "log level %q", opts.Level)
		}
	}

	var (
		cores  []zapcore.Core
		closer io.Closer = nopCloser{}
	)
	if opts.Console != nil {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(opts.Console), level))
	}
	if opts.File != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(lj), level))
		closer = lj
	}
	if opts.Lines != nil {
		cfg := zapcore.EncoderConfig{
			TimeKey:        "T",
			MessageKey:     "M",
			NameKey:        "N",
			LevelKey:       "L",
			EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeName:     zapcore.FullNameEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			LineEnding:     "\n",
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), lineSink{opts.Lines}, level))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), closer, nil
}

// lineSink hands each encoded entry to a channel.
type lineSink struct {
	ch chan<- string
}

func (s lineSink) Write(p []byte) (int, error) {
	line := strings.ReplaceAll(strings.TrimRight(string(p), "\n"), "\t", " ")
	select {
	case s.ch <- line:
	default:
	}
	return len(p), nil
}

func (s lineSink) Sync() error { return nil }

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
