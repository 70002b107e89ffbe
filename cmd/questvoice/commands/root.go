package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/danieloquelis/questvoice/internal/config"
)

const appName = "questvoice"

var (
	cfgFile string
	debug   bool

	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Voice conversations with a realtime speech agent",
	Long: `questvoice streams your microphone to a realtime speech agent, plays its
answers back and lets it call tools, such as the MeshTool 3D mesh server,
while you talk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env file is fine.
		_ = godotenv.Load()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		globalConfig = cfg
		return nil
	},
}

// Execute runs the command line.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log debug records")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(configCmd)
}
