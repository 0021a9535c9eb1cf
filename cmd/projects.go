package cmd

import "github.com/spf13/cobra"

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect the shared projects document",
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
