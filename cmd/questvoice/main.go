// questvoice holds a spoken conversation with a realtime speech agent that
// can build and edit 3D meshes through a MeshTool server.
//
// Usage:
//
//	questvoice run               # talk to the agent in the terminal UI
//	questvoice run --headless    # log transcripts to stdout instead
//	questvoice tools             # print the tools offered to the agent
//	questvoice config show       # print the effective configuration
//
// Configuration is read from $XDG_CONFIG_HOME/questvoice/config.yaml, a .env
// file and the environment.
package main

import (
	"os"

	"github.com/danieloquelis/questvoice/cmd/questvoice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
