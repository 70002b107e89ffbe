package session

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/danieloquelis/questvoice/core/session"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)

	framesSent, _ = meter.Int64Counter(
		"session.frames.sent",
		metric.WithDescription("Client events written to the agent connection"),
	)
	framesReceived, _ = meter.Int64Counter(
		"session.frames.received",
		metric.WithDescription("Server events read from the agent connection"),
	)
	responseRequestsSkipped, _ = meter.Int64Counter(
		"session.response_requests.skipped",
		metric.WithDescription("Response requests held back by the active response or debounce guard"),
	)
)
