package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/minegate/minegate/internal/apiclient"
)

type checkResp struct {
	DownstreamURL    string          `json:"downstream_url"`
	ConnectionStatus string          `json:"connection_status"`
	Response         json.RawMessage `json:"response,omitempty"`
}

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check execution service reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		c := apiclient.New(daemonAddr(cfg))
		var out checkResp
		if err := c.GetJSON(cmd.Context(), "/api/repository/test", &out); err != nil {
			return err
		}

		if checkJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		fmt.Printf("%s: %s\n", out.DownstreamURL, out.ConnectionStatus)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print JSON")
}
