package portaudio

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/danieloquelis/questvoice/core/audio/portaudio"

var logger = otelslog.NewLogger(scopeName)
