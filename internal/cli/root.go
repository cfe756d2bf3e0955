// Package cli implements the anansi command line: the HTTP server, schema
// migrations and one-shot imports.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/anansi/internal/config"
	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/version"
)

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "anansi",
		Short:         "Bookmark cataloging service",
		Long:          `Anansi stores bookmarks with a normalized display date and topic tags, and serves them as JSON over HTTP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "anansi %s (commit=%s, built=%s, go=%s)\n",
				version.Version, version.Commit, version.BuildDate, version.GoVersion)
		},
	})

	root.AddCommand(newServeCommand(), newMigrateCommand(), newImportCommand())
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, logger.Logger) {
	cfg := config.Load()
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog)
}
