package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/spf13/cobra"

	"github.com/minegate/minegate/internal/apiclient"
	"github.com/minegate/minegate/internal/descriptor"
	"github.com/minegate/minegate/internal/registry"
)

type registerResp struct {
	Message            string            `json:"message"`
	Before             registry.Registry `json:"before"`
	After              registry.Registry `json:"after"`
	DownstreamResponse json.RawMessage   `json:"downstream_response"`
}

// repoFile is the frontmatter schema of a repository declaration file: the
// title and url live in the frontmatter, the markdown body is a free-form
// description the service ignores.
type repoFile struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

var (
	regTitle string
	regURL   string
	regFile  string
	regJSON  bool
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a repository for mining",
	Long: `Register a repository with the minegate daemon.

The repository can be given inline with --title and --url, or read from a
markdown declaration file whose YAML frontmatter carries title and url.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		regTitle = strings.TrimSpace(regTitle)
		regURL = strings.TrimSpace(regURL)

		if regFile != "" {
			if regTitle != "" || regURL != "" {
				return errors.New("--file cannot be combined with --title/--url")
			}
			var err error
			regTitle, regURL, err = readRepoFile(regFile)
			if err != nil {
				return err
			}
		}
		if regURL == "" {
			return errors.New("--url (or --file) is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		desc := descriptor.Descriptor{
			Kind:       descriptor.KindRepository,
			Repository: &descriptor.Repository{Title: regTitle, URL: regURL},
		}

		c := apiclient.New(daemonAddr(cfg))
		var out registerResp
		if err := c.PostJSON(cmd.Context(), "/api/repository", desc, &out); err != nil {
			if apiclient.IsDownstreamUnavailable(err) {
				return fmt.Errorf("registered locally but the execution service is unreachable: %w", err)
			}
			return err
		}

		if regJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		ids := make([]string, 0, len(out.After))
		for id := range out.After {
			if _, ok := out.Before[id]; !ok {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		if len(ids) == 0 {
			fmt.Println(out.Message)
			return nil
		}
		fmt.Printf("%s (%s)\n", out.Message, strings.Join(ids, ", "))
		return nil
	},
}

func readRepoFile(path string) (title, url string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to open declaration file: %w", err)
	}
	defer f.Close()

	var meta repoFile
	if _, err := frontmatter.Parse(f, &meta); err != nil {
		return "", "", fmt.Errorf("failed to parse declaration file: %w", err)
	}
	if meta.URL == "" {
		return "", "", fmt.Errorf("declaration file %s has no url in its frontmatter", path)
	}
	return meta.Title, meta.URL, nil
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&regTitle, "title", "t", "", "repository display title")
	registerCmd.Flags().StringVarP(&regURL, "url", "u", "", "repository clone URL")
	registerCmd.Flags().StringVarP(&regFile, "file", "f", "", "markdown declaration file with frontmatter")
	registerCmd.Flags().BoolVar(&regJSON, "json", false, "print JSON")
}
