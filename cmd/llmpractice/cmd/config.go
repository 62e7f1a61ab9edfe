package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/levitang/llm-practice/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the JSON configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultFile
		if len(args) == 1 {
			path = args[0]
		}
		_, created, err := config.Initialize(path)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration file at %s\n", path)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file already exists at %s\n", path)
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE: func(cmd *cobra.Command, _ []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Environment *config.Config `json:"environment"`
			File        *config.File   `json:"file"`
		}{masked(cfg), fileCfg})
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// masked returns a copy of c with credentials shortened to their last
// four characters.
func masked(c *config.Config) *config.Config {
	m := *c
	m.OpenAI.APIKey = mask(c.OpenAI.APIKey)
	m.Search.TavilyAPIKey = mask(c.Search.TavilyAPIKey)
	m.Search.BraveAPIKey = mask(c.Search.BraveAPIKey)
	m.GitLab.Token = mask(c.GitLab.Token)
	m.Confluence.APIKey = mask(c.Confluence.APIKey)
	return &m
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return "****" + secret[len(secret)-4:]
}
