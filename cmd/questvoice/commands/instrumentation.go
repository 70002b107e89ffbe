package commands

import "go.opentelemetry.io/contrib/bridges/otelslog"

const scopeName = "github.com/danieloquelis/questvoice/cmd/questvoice"

var logger = otelslog.NewLogger(scopeName)
