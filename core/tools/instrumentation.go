package tools

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/danieloquelis/questvoice/core/tools"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	dispatchDuration, _ = meter.Float64Histogram(
		"tools.dispatch.duration",
		metric.WithDescription("Time spent running tool handlers"),
		metric.WithUnit("s"),
	)
)
