// Package telemetry installs the process wide OpenTelemetry log provider so
// the package loggers have somewhere to write.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type options struct {
	writer   io.Writer
	path     string
	minLevel log.Severity
}

type Option func(*options)

// WithWriter sends records to w. WithFile takes precedence.
func WithWriter(w io.Writer) Option {
	return func(o *options) { o.writer = w }
}

// WithFile appends records to the file at path, creating it if needed.
func WithFile(path string) Option {
	return func(o *options) { o.path = path }
}

func WithDebug(debug bool) Option {
	return func(o *options) {
		if debug {
			o.minLevel = log.SeverityDebug
		} else {
			o.minLevel = log.SeverityInfo
		}
	}
}

// Setup builds a log provider exporting through stdoutlog and makes it the
// global provider. The returned function flushes and closes it.
func Setup(opts ...Option) (shutdown func(context.Context) error, err error) {
	o := options{writer: os.Stderr, minLevel: log.SeverityInfo}
	for _, opt := range opts {
		opt(&o)
	}

	var file *os.File
	if o.path != "" {
		if err := os.MkdirAll(filepath.Dir(o.path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(o.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		o.writer = file
	}

	exporter, err := stdoutlog.New(stdoutlog.WithWriter(o.writer))
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return nil, fmt.Errorf("failed to create log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(severityFilter{
			Processor: sdklog.NewSimpleProcessor(exporter),
			min:       o.minLevel,
		}),
	)
	global.SetLoggerProvider(provider)

	return func(ctx context.Context) error {
		err := provider.Shutdown(ctx)
		if file != nil {
			if closeErr := file.Close(); err == nil {
				err = closeErr
			}
		}
		return err
	}, nil
}

// severityFilter drops records below min before they reach the exporter.
type severityFilter struct {
	sdklog.Processor
	min log.Severity
}

func (f severityFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if record.Severity() < f.min {
		return nil
	}
	return f.Processor.OnEmit(ctx, record)
}
