package miniaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/danieloquelis/questvoice/core/audio/miniaudio"

var logger = otelslog.NewLogger(scopeName)
