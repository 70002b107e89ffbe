package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieloquelis/questvoice/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := globalConfig.Redacted().YAML()
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}

		path := cfgFile
		if path == "" {
			path = config.DefaultPath()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, data)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
