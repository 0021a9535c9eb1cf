package cmd

import (
	"github.com/spf13/cobra"

	"github.com/minegate/minegate/internal/config"
)

var (
	cfgFile  string
	addrFlag string
)

var rootCmd = &cobra.Command{
	Use:   "minegate",
	Short: "minegate - repository registration gateway",
	Long: `minegate registers source-code repositories for mining and keeps the
shared projects document in sync with the analytics execution service.`,
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/minegate/minegate.yaml)")
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "",
		"daemon address for client commands (default: listen_addr from config)")
}

// loadConfig reads the effective configuration for this invocation.
func loadConfig() (config.Config, error) {
	return config.Load(cfgFile)
}

// daemonAddr resolves the address client commands dial.
func daemonAddr(cfg config.Config) string {
	if addrFlag != "" {
		return addrFlag
	}
	return cfg.ListenAddr
}
