package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/minegate/minegate/internal/apiclient"
	"github.com/minegate/minegate/internal/registry"
)

type projectsListResp struct {
	Projects registry.Registry `json:"projects"`
}

var listJSON bool

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		c := apiclient.New(daemonAddr(cfg))
		var out projectsListResp
		if err := c.GetJSON(cmd.Context(), "/api/projects", &out); err != nil {
			return err
		}
		if listJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		if len(out.Projects) == 0 {
			fmt.Println("No projects registered")
			return nil
		}

		ids := make([]string, 0, len(out.Projects))
		for id := range out.Projects {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PROJECT\tBACKENDS\tREPO\tRAW INDEX")
		for _, id := range ids {
			p := out.Projects[id]
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, strings.Join(p.Backends, ","), p.RepoURL, p.ESCollection.RawIndex)
		}
		return w.Flush()
	},
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsListCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
}
