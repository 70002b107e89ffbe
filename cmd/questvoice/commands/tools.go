package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	orchestration "github.com/danieloquelis/questvoice/core"
	"github.com/danieloquelis/questvoice/core/meshtool"
	"github.com/danieloquelis/questvoice/core/tools"
	"github.com/danieloquelis/questvoice/internal/config"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tools offered to the agent as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, closeTools, err := buildTools(globalConfig)
		if err != nil {
			return err
		}
		defer closeTools()

		orchestrator := orchestration.NewOrchestrator(orchestratorToolOptions(globalConfig, registry)...)

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(orchestrator.Tools().Manifest()); err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return nil
	},
}

// buildTools returns the registry with every configured tool bridge
// registered. The MeshTool connection is only opened on the first call.
func buildTools(cfg *config.Config) (*tools.Registry, func(), error) {
	registry := tools.NewRegistry()
	if !cfg.MeshTool.Enabled {
		return registry, func() {}, nil
	}

	client := meshtool.NewClient(cfg.MeshTool.URL, meshtool.WithTimeout(cfg.MeshTool.Timeout))
	if err := meshtool.Register(registry, client); err != nil {
		return nil, nil, fmt.Errorf("failed to register mesh tools: %w", err)
	}
	return registry, func() { _ = client.Close() }, nil
}

func orchestratorToolOptions(cfg *config.Config, registry *tools.Registry) []orchestration.OrchestratorOption {
	opts := []orchestration.OrchestratorOption{orchestration.WithTools(registry)}
	if cfg.OrchestrationTools {
		opts = append(opts, orchestration.WithOrchestrationTools())
	}
	return opts
}
