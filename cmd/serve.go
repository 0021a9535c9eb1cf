package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minegate/minegate/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the minegate daemon",
	Long: `Run the minegate daemon in the foreground.

The daemon serves the registration API, keeps the shared projects document
up to date, and propagates changes to the execution service.

For background operation, use:
  nohup minegate serve > /tmp/minegate.log 2>&1 &`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		d, err := daemon.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize daemon: %w", err)
		}
		return d.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
