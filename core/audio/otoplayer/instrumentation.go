package otoplayer

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/danieloquelis/questvoice/core/audio/otoplayer"

var logger = otelslog.NewLogger(scopeName)
